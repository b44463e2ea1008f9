package memory

import "github.com/sarchlab/kernsim/kernel"

// PageSize is the fixed size of a page in bytes.
const PageSize = 4096

// PageID identifies a page. IDs are in [0, totalPages).
type PageID int

// A Page is one fixed-size unit of the simulated address space. Every page
// is, at all times, either in the free set or owned by exactly one process.
type Page struct {
	ID      PageID
	Channel int

	// Content is the opaque page buffer. It is nil while the page is free.
	Content []byte

	LastRefresh kernel.VTimeInNs
}

// Coherence model parameters. A freshly refreshed page has the base
// coherence; it loses one picosecond per millisecond of age.
const (
	baseCoherencePs         = 1000
	coherenceDecayPeriod    = kernel.Ms
	defaultCoherenceFloorPs = 500
	defaultRefreshThreshold = kernel.S
)

// CoherencePs returns the modeled coherence of the page at the given time,
// in picoseconds. Coherence degrades with age and is restored by a refresh.
func (p *Page) CoherencePs(now kernel.VTimeInNs) int64 {
	age := now - p.LastRefresh
	if age < 0 {
		age = 0
	}

	c := int64(baseCoherencePs) - int64(age/coherenceDecayPeriod)
	if c < 0 {
		c = 0
	}

	return c
}

package memory

import (
	"log"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

// A Builder can build memory Managers.
type Builder struct {
	capability       hardware.Capability
	timeTeller       kernel.TimeTeller
	fabric           SwitchingFabric
	refreshThreshold kernel.VTimeInNs
	coherenceFloorPs int64
}

// MakeBuilder returns a Builder with the default maintenance parameters.
func MakeBuilder() Builder {
	return Builder{
		refreshThreshold: defaultRefreshThreshold,
		coherenceFloorPs: defaultCoherenceFloorPs,
	}
}

// WithCapability sets the hardware capability that sizes the page space.
func (b Builder) WithCapability(c hardware.Capability) Builder {
	b.capability = c
	return b
}

// WithTimeTeller sets the source of simulated time.
func (b Builder) WithTimeTeller(t kernel.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithSwitchingFabric sets the fabric notified on partition changes.
func (b Builder) WithSwitchingFabric(f SwitchingFabric) Builder {
	b.fabric = f
	return b
}

// WithRefreshThreshold sets the page age above which maintenance refreshes
// a page.
func (b Builder) WithRefreshThreshold(t kernel.VTimeInNs) Builder {
	b.refreshThreshold = t
	return b
}

// WithCoherenceFloor sets the coherence value, in picoseconds, below which
// maintenance logs a warning.
func (b Builder) WithCoherenceFloor(ps int64) Builder {
	b.coherenceFloorPs = ps
	return b
}

// Build builds a Manager. The whole page space starts in the free set.
func (b Builder) Build(name string) *Manager {
	if b.timeTeller == nil {
		log.Panic("a memory manager requires a time teller")
	}

	if b.capability.ChannelCount() == 0 {
		log.Panic("a memory manager requires a hardware capability")
	}

	fabric := b.fabric
	if fabric == nil {
		fabric = NewNullSwitchingFabric()
	}

	totalPages := int(b.capability.CapacityBytes() / PageSize)
	now := b.timeTeller.CurrentTime()

	m := &Manager{
		name:             name,
		capability:       b.capability,
		timeTeller:       b.timeTeller,
		fabric:           fabric,
		refreshThreshold: b.refreshThreshold,
		coherenceFloorPs: b.coherenceFloorPs,
		totalPages:       totalPages,
		pages:            make([]*Page, totalPages),
		freeIDs:          make([]PageID, totalPages),
		allocations:      make(map[int][]PageID),
		partition: BandwidthPartition{
			ReadShare:  0.5,
			WriteShare: 0.5,
		},
	}

	for i := 0; i < totalPages; i++ {
		m.pages[i] = &Page{
			ID:          PageID(i),
			Channel:     kernel.NoChannel,
			LastRefresh: now,
		}
		m.freeIDs[i] = PageID(i)
	}

	return m
}

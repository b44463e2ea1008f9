package kernel

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// An IDGenerator generates string identifiers for runs, records, and other
// objects that are not tasks. Task IDs are numeric and owned by the
// scheduler.
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// NewSequentialIDGenerator creates an IDGenerator that generates
// deterministic, sequential IDs. Each generator instance counts
// independently.
func NewSequentialIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewXIDGenerator creates an IDGenerator whose IDs are unique across
// processes and runs. The IDs are not deterministic.
func NewXIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	return strconv.FormatUint(idNumber, 10)
}

type xidGenerator struct {
}

func (g xidGenerator) Generate() string {
	return xid.New().String()
}

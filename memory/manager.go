// Package memory implements the paged memory manager of the simulated
// kernel. The manager owns the full page address space, allocates pages to
// processes, tags each page with an execution channel, and runs periodic
// refresh and coherence maintenance.
package memory

import (
	"log"
	"math"
	"sort"
	"sync"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

// An Allocation reports the outcome of a successful AllocatePages call.
type Allocation struct {
	ProcessID  int
	PageIDs    []PageID
	TotalBytes uint64

	// ChannelSpan lists the distinct channel values the pages are tagged
	// with, in ascending order.
	ChannelSpan []int
}

// Stats is a snapshot of the memory manager state.
type Stats struct {
	TotalPages      int
	FreePages       int
	AllocatedPages  int
	ActiveProcesses int

	// MeanCoherencePs is the mean coherence over the allocated pages.
	MeanCoherencePs float64

	// BandwidthUtilization is allocatedPages over totalPages.
	BandwidthUtilization float64
}

// A Manager owns the page address space of one simulated kernel. Pages are
// created once, at build time, and recycled between the free set and
// process ownership. All operations are synchronous and all-or-nothing.
type Manager struct {
	lock sync.Mutex

	name       string
	capability hardware.Capability
	timeTeller kernel.TimeTeller
	fabric     SwitchingFabric

	refreshThreshold kernel.VTimeInNs
	coherenceFloorPs int64

	totalPages int
	pages      []*Page

	// freeIDs is kept sorted ascending so the consecutive-run search can
	// slide a window over it.
	freeIDs []PageID

	// allocations maps a process to its owned page IDs. A later allocation
	// for the same process replaces the record instead of merging into it.
	allocations map[int][]PageID

	partition BandwidthPartition
}

// Name returns the name of the manager.
func (m *Manager) Name() string {
	return m.name
}

// AllocatePages claims count pages for the given process. It returns nil if
// fewer than count pages are free. The lowest-starting run of count
// numerically consecutive free IDs is preferred; if no such run exists, any
// count free pages are claimed. A non-positive count is a caller error.
func (m *Manager) AllocatePages(processID, count int) *Allocation {
	if count <= 0 {
		log.Panicf("cannot allocate %d pages", count)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if len(m.freeIDs) < count {
		return nil
	}

	ids := m.findConsecutiveRun(count)
	if ids == nil {
		ids = append([]PageID{}, m.freeIDs[:count]...)
	}

	m.claim(ids)

	now := m.timeTeller.CurrentTime()
	for _, id := range ids {
		page := m.pages[id]
		page.Channel = m.capability.ChannelBase() +
			(int(id)%m.capability.ChannelCount())*m.capability.ChannelPitch()
		page.Content = make([]byte, PageSize)
		page.LastRefresh = now
	}

	m.allocations[processID] = ids

	return &Allocation{
		ProcessID:   processID,
		PageIDs:     append([]PageID{}, ids...),
		TotalBytes:  uint64(count) * PageSize,
		ChannelSpan: m.channelSpan(ids),
	}
}

// findConsecutiveRun returns the lowest-starting window of count free IDs
// in which each ID is exactly one more than the previous, or nil.
func (m *Manager) findConsecutiveRun(count int) []PageID {
	for start := 0; start+count <= len(m.freeIDs); start++ {
		run := true
		for i := 1; i < count; i++ {
			if m.freeIDs[start+i] != m.freeIDs[start+i-1]+1 {
				run = false
				break
			}
		}

		if run {
			return append([]PageID{}, m.freeIDs[start:start+count]...)
		}
	}

	return nil
}

func (m *Manager) claim(ids []PageID) {
	claimed := make(map[PageID]bool, len(ids))
	for _, id := range ids {
		claimed[id] = true
	}

	remaining := m.freeIDs[:0]
	for _, id := range m.freeIDs {
		if !claimed[id] {
			remaining = append(remaining, id)
		}
	}

	m.freeIDs = remaining
}

func (m *Manager) channelSpan(ids []PageID) []int {
	seen := make(map[int]bool)
	span := []int{}

	for _, id := range ids {
		channel := m.pages[id].Channel
		if !seen[channel] {
			seen[channel] = true
			span = append(span, channel)
		}
	}

	sort.Ints(span)

	return span
}

// DeallocatePages returns every page the process owns to the free set and
// removes its allocation record. It is a no-op if the process owns nothing.
func (m *Manager) DeallocatePages(processID int) {
	m.lock.Lock()
	defer m.lock.Unlock()

	ids, found := m.allocations[processID]
	if !found {
		return
	}

	for _, id := range ids {
		m.pages[id].Content = nil
	}

	m.freeIDs = append(m.freeIDs, ids...)
	sort.Slice(m.freeIDs, func(i, j int) bool {
		return m.freeIDs[i] < m.freeIDs[j]
	})

	delete(m.allocations, processID)
}

// AdjustBandwidthDistribution replaces the bandwidth partition with the
// given read and write shares and notifies the switching fabric. Shares
// that do not sum to 1.0 are a caller error and leave the partition
// unchanged.
func (m *Manager) AdjustBandwidthDistribution(readShare, writeShare float64) {
	if math.Abs(readShare+writeShare-1.0) > 1e-9 {
		log.Panicf("bandwidth shares %f and %f do not sum to 1.0",
			readShare, writeShare)
	}

	m.lock.Lock()
	m.partition = BandwidthPartition{
		ReadShare:  readShare,
		WriteShare: writeShare,
	}
	p := m.partition
	m.lock.Unlock()

	m.fabric.PartitionChanged(p)
}

// Partition returns the current bandwidth partition.
func (m *Manager) Partition() BandwidthPartition {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.partition
}

// PerformMaintenanceTasks refreshes every page whose age since its last
// refresh exceeds the refresh threshold, then logs a warning for every page
// whose coherence dropped below the floor. No corrective action is taken
// for low-coherence pages.
func (m *Manager) PerformMaintenanceTasks() {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.timeTeller.CurrentTime()

	for _, page := range m.pages {
		if now-page.LastRefresh > m.refreshThreshold {
			page.LastRefresh = now
		}
	}

	for _, page := range m.pages {
		if c := page.CoherencePs(now); c < m.coherenceFloorPs {
			log.Printf(
				"warning: page %d coherence %d ps is below the %d ps floor",
				page.ID, c, m.coherenceFloorPs)
		}
	}
}

// Page returns a copy of the page with the given ID.
func (m *Manager) Page(id PageID) (Page, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if id < 0 || int(id) >= m.totalPages {
		return Page{}, false
	}

	return *m.pages[id], true
}

// ProcessPageIDs returns a copy of the page IDs the process currently owns.
func (m *Manager) ProcessPageIDs(processID int) []PageID {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]PageID{}, m.allocations[processID]...)
}

// Statistics returns a snapshot of the memory manager state.
func (m *Manager) Statistics() Stats {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.timeTeller.CurrentTime()
	free := len(m.freeIDs)
	allocated := m.totalPages - free

	stats := Stats{
		TotalPages:      m.totalPages,
		FreePages:       free,
		AllocatedPages:  allocated,
		ActiveProcesses: len(m.allocations),
	}

	if m.totalPages > 0 {
		stats.BandwidthUtilization =
			float64(allocated) / float64(m.totalPages)
	}

	if allocated > 0 {
		var sum int64
		for _, ids := range m.allocations {
			for _, id := range ids {
				sum += m.pages[id].CoherencePs(now)
			}
		}

		stats.MeanCoherencePs = float64(sum) / float64(allocated)
	}

	return stats
}

package scheduler

import (
	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

// A channelAssigner picks the channel for a starting task that has no
// stated preference. It spreads tasks by occupancy: the channel index with
// the fewest running tasks wins, ties broken by the lowest index.
type channelAssigner struct {
	capability hardware.Capability
}

func (a channelAssigner) assign(running []*kernel.Task) int {
	occupancy := make([]int, a.capability.ChannelCount())

	for _, t := range running {
		if t.AssignedChannel == kernel.NoChannel {
			continue
		}

		index := a.capability.ChannelIndex(t.AssignedChannel)
		if index >= 0 && index < len(occupancy) {
			occupancy[index]++
		}
	}

	best := 0
	for i, load := range occupancy {
		if load < occupancy[best] {
			best = i
		}
	}

	return a.capability.ChannelValue(best)
}

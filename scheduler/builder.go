package scheduler

import (
	"log"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

// A Builder can build Schedulers.
type Builder struct {
	capability            hardware.Capability
	timeTeller            kernel.TimeTeller
	rebalancer            RebalanceStrategy
	overloadCheckInterval uint64
	overloadThreshold     float64
}

// MakeBuilder returns a Builder with the default overload-check settings.
func MakeBuilder() Builder {
	return Builder{
		overloadCheckInterval: 1000,
		overloadThreshold:     1.5,
	}
}

// WithCapability sets the hardware capability that bounds the scheduler.
func (b Builder) WithCapability(c hardware.Capability) Builder {
	b.capability = c
	return b
}

// WithTimeTeller sets the source of simulated time.
func (b Builder) WithTimeTeller(t kernel.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithRebalanceStrategy sets the strategy that is told about overloaded
// channels.
func (b Builder) WithRebalanceStrategy(r RebalanceStrategy) Builder {
	b.rebalancer = r
	return b
}

// WithOverloadCheckInterval sets how many ticks pass between two runs of
// the channel-overload check.
func (b Builder) WithOverloadCheckInterval(ticks uint64) Builder {
	b.overloadCheckInterval = ticks
	return b
}

// WithOverloadThreshold sets the multiple of the mean active-channel load
// above which a channel counts as overloaded.
func (b Builder) WithOverloadThreshold(factor float64) Builder {
	b.overloadThreshold = factor
	return b
}

// Build builds a Scheduler.
func (b Builder) Build(name string) *Scheduler {
	if b.timeTeller == nil {
		log.Panic("a scheduler requires a time teller")
	}

	if b.capability.ChannelCount() == 0 {
		log.Panic("a scheduler requires a hardware capability")
	}

	if b.overloadCheckInterval == 0 {
		log.Panic("overload check interval must be positive")
	}

	rebalancer := b.rebalancer
	if rebalancer == nil {
		rebalancer = NewLogRebalanceStrategy()
	}

	return &Scheduler{
		name:                  name,
		capability:            b.capability,
		timeTeller:            b.timeTeller,
		assigner:              channelAssigner{capability: b.capability},
		rebalancer:            rebalancer,
		overloadCheckInterval: b.overloadCheckInterval,
		overloadThreshold:     b.overloadThreshold,
		tasks:                 make(map[kernel.TaskID]*kernel.Task),
		channelPrefs:          make(map[kernel.TaskID]int),
	}
}

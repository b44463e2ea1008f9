package kernel

import (
	"log"
	"sync"
)

// VTimeInNs defines the time in the simulated space in the unit of
// nanosecond.
type VTimeInNs int64

// Defines common durations in simulated time.
const (
	Ns VTimeInNs = 1
	Us VTimeInNs = 1e3
	Ms VTimeInNs = 1e6
	S  VTimeInNs = 1e9
)

// TimeTeller can be used to get the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInNs
}

// A VirtualClock is the single source of simulated time for a kernel. Only
// the kernel loop advances it; every component reads it through the
// TimeTeller interface.
type VirtualClock struct {
	lock sync.RWMutex
	now  VTimeInNs
}

// NewVirtualClock creates a VirtualClock starting at time 0.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

// CurrentTime returns the current simulated time.
func (c *VirtualClock) CurrentTime() VTimeInNs {
	c.lock.RLock()
	t := c.now
	c.lock.RUnlock()

	return t
}

// Advance moves the clock forward by d and returns the new time. Simulated
// time never moves backward.
func (c *VirtualClock) Advance(d VTimeInNs) VTimeInNs {
	if d < 0 {
		log.Panic("cannot advance the clock by a negative duration")
	}

	c.lock.Lock()
	c.now += d
	t := c.now
	c.lock.Unlock()

	return t
}

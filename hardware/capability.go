// Package hardware describes the capabilities of the simulated platform. A
// Capability is read once at construction time and never changes afterwards.
package hardware

import "log"

// A Capability carries the figures the hardware probe reports about the
// platform: how many parallel execution channels exist, how they are
// numbered, and how much memory is installed.
type Capability struct {
	channelCount      int
	parallelismFactor int
	capacityBytes     uint64
	channelBase       int
	channelPitch      int
	accessTimePs      int64
}

// ChannelCount returns the number of parallel execution channels. It bounds
// the number of concurrently running tasks.
func (c Capability) ChannelCount() int {
	return c.channelCount
}

// ParallelismFactor returns the number of lanes the hardware can
// meaningfully exploit per instruction.
func (c Capability) ParallelismFactor() int {
	return c.parallelismFactor
}

// CapacityBytes returns the installed memory capacity.
func (c Capability) CapacityBytes() uint64 {
	return c.capacityBytes
}

// ChannelBase returns the numeric value of channel index 0.
func (c Capability) ChannelBase() int {
	return c.channelBase
}

// ChannelPitch returns the spacing between consecutive channel values.
func (c Capability) ChannelPitch() int {
	return c.channelPitch
}

// AccessTimePs returns the nominal memory access time in picoseconds. It is
// used for reporting only.
func (c Capability) AccessTimePs() int64 {
	return c.accessTimePs
}

// ChannelValue converts a channel index to its channel value.
func (c Capability) ChannelValue(index int) int {
	return c.channelBase + index*c.channelPitch
}

// ChannelIndex converts a channel value back to its index.
func (c Capability) ChannelIndex(value int) int {
	return (value - c.channelBase) / c.channelPitch
}

// A Builder can build Capabilities.
type Builder struct {
	channelCount      int
	parallelismFactor int
	capacityBytes     uint64
	channelBase       int
	channelPitch      int
	accessTimePs      int64
}

// MakeBuilder returns a Builder with default capability figures.
func MakeBuilder() Builder {
	return Builder{
		channelCount:      4,
		parallelismFactor: 2,
		capacityBytes:     64 * 1024 * 1024,
		channelBase:       0,
		channelPitch:      1,
		accessTimePs:      1000,
	}
}

// WithChannelCount sets the number of parallel execution channels.
func (b Builder) WithChannelCount(n int) Builder {
	b.channelCount = n
	return b
}

// WithParallelismFactor sets the per-instruction lane cap.
func (b Builder) WithParallelismFactor(n int) Builder {
	b.parallelismFactor = n
	return b
}

// WithCapacity sets the installed memory capacity in bytes.
func (b Builder) WithCapacity(bytes uint64) Builder {
	b.capacityBytes = bytes
	return b
}

// WithChannelRange sets the value of channel index 0 and the spacing between
// consecutive channel values.
func (b Builder) WithChannelRange(base, pitch int) Builder {
	b.channelBase = base
	b.channelPitch = pitch
	return b
}

// WithAccessTime sets the nominal memory access time in picoseconds.
func (b Builder) WithAccessTime(ps int64) Builder {
	b.accessTimePs = ps
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.channelCount <= 0 {
		log.Panic("channel count must be positive")
	}

	if b.parallelismFactor <= 0 {
		log.Panic("parallelism factor must be positive")
	}

	if b.channelPitch <= 0 {
		log.Panic("channel pitch must be positive")
	}
}

// Build builds a Capability.
func (b Builder) Build() Capability {
	b.parametersMustBeValid()

	return Capability{
		channelCount:      b.channelCount,
		parallelismFactor: b.parallelismFactor,
		capacityBytes:     b.capacityBytes,
		channelBase:       b.channelBase,
		channelPitch:      b.channelPitch,
		accessTimePs:      b.accessTimePs,
	}
}

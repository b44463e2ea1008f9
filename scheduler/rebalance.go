package scheduler

import "log"

// A RebalanceStrategy is told about overloaded channels by the periodic load
// check. The scheduler itself never moves a running task between channels.
// A strategy that wants corrective behavior can keep its own records and act
// through the public scheduler surface.
type RebalanceStrategy interface {
	// ChannelOverloaded reports that a channel carries more than the
	// overload threshold times the mean load of the active channels.
	ChannelOverloaded(channelIndex, load int, meanLoad float64)
}

// NewLogRebalanceStrategy creates the default RebalanceStrategy. It only
// writes a warning to the log.
func NewLogRebalanceStrategy() RebalanceStrategy {
	return logRebalanceStrategy{}
}

type logRebalanceStrategy struct {
}

func (logRebalanceStrategy) ChannelOverloaded(
	channelIndex, load int,
	meanLoad float64,
) {
	log.Printf(
		"warning: channel %d is overloaded, load %d, mean active load %.2f",
		channelIndex, load, meanLoad)
}

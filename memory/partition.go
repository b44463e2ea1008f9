package memory

// A BandwidthPartition splits the memory bandwidth between the read and the
// write direction. The two shares always sum to 1.0. The partition is only
// replaced whole, through Manager.AdjustBandwidthDistribution.
type BandwidthPartition struct {
	ReadShare  float64
	WriteShare float64
}

// A SwitchingFabric is notified when the bandwidth partition changes. The
// real fabric lives outside this core.
type SwitchingFabric interface {
	PartitionChanged(p BandwidthPartition)
}

// NewNullSwitchingFabric creates a SwitchingFabric that ignores every
// notification.
func NewNullSwitchingFabric() SwitchingFabric {
	return nullSwitchingFabric{}
}

type nullSwitchingFabric struct {
}

func (nullSwitchingFabric) PartitionChanged(BandwidthPartition) {
}

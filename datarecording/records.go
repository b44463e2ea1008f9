package datarecording

// Names of the tables the kernel loop records into.
const (
	TaskTable           = "tasks"
	SchedulerStatsTable = "scheduler_stats"
	MemoryStatsTable    = "memory_stats"
)

// A TaskRecord is one archived task.
type TaskRecord struct {
	TaskID              uint64
	ProcessID           int
	Priority            int
	State               string
	Channel             int
	CreatedAtNs         int64
	StartedAtNs         int64
	CompletedAtNs       int64
	EstimatedDurationNs int64
	InstructionCount    int
}

// A SchedulerStatsRecord is one statistics snapshot of the scheduler.
type SchedulerStatsRecord struct {
	Tick                    uint64
	TimeNs                  int64
	TotalTasks              uint64
	ReadyTasks              int
	RunningTasks            int
	CompletedTasks          int
	CancelledTasks          int
	MeanCompletedDurationNs int64
	ChannelUtilization      float64
}

// A MemoryStatsRecord is one statistics snapshot of the memory manager.
type MemoryStatsRecord struct {
	Tick                 uint64
	TimeNs               int64
	TotalPages           int
	FreePages            int
	AllocatedPages       int
	ActiveProcesses      int
	MeanCoherencePs      float64
	BandwidthUtilization float64
}

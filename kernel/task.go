package kernel

import "log"

// TaskID identifies a task. IDs are monotonically increasing within one
// scheduler instance.
type TaskID uint64

// NoChannel marks a task that has not been assigned an execution channel.
const NoChannel = -1

// TaskState is the lifecycle state of a task.
type TaskState int

// The states a task can be in. TaskBlocked is reserved for forward
// compatibility. No transition in this kernel enters or leaves it.
const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskCompleted
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskBlocked:
		return "Blocked"
	case TaskCompleted:
		return "Completed"
	case TaskCancelled:
		return "Cancelled"
	}

	return "Unknown"
}

// IsTerminal returns true if no transition can leave the state.
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// A Task is one unit of schedulable work. Tasks are created by the scheduler
// and only ever mutated through its tick and cancel operations.
type Task struct {
	ID           TaskID
	ProcessID    int
	Instructions []InstructionDescriptor

	// Priority is in [0, 7]. 0 is the most urgent.
	Priority int

	State TaskState

	CreatedAt   VTimeInNs
	StartedAt   VTimeInNs
	CompletedAt VTimeInNs

	// EstimatedDuration is derived from the instruction list at creation
	// time.
	EstimatedDuration VTimeInNs

	// AssignedChannel is NoChannel while the task is Ready.
	AssignedChannel int

	// ExecutedInstructions counts the instructions the progress model
	// considers done.
	ExecutedInstructions int
}

// Start transitions the task from Ready to Running, stamping the start time
// and the assigned channel.
func (t *Task) Start(channel int, now VTimeInNs) {
	if t.State != TaskReady {
		log.Panicf("cannot start task %d in state %s", t.ID, t.State)
	}

	t.State = TaskRunning
	t.AssignedChannel = channel
	t.StartedAt = now
}

// Complete transitions the task from Running to Completed, stamping the
// completion time and forcing progress to 100%.
func (t *Task) Complete(now VTimeInNs) {
	if t.State != TaskRunning {
		log.Panicf("cannot complete task %d in state %s", t.ID, t.State)
	}

	t.State = TaskCompleted
	t.CompletedAt = now
	t.ExecutedInstructions = len(t.Instructions)
}

// Cancel transitions the task from Ready or Running to Cancelled.
func (t *Task) Cancel(now VTimeInNs) {
	if t.State != TaskReady && t.State != TaskRunning {
		log.Panicf("cannot cancel task %d in state %s", t.ID, t.State)
	}

	t.State = TaskCancelled
	t.CompletedAt = now
}

// ProgressComplete returns true when every instruction of the task counts as
// executed.
func (t *Task) ProgressComplete() bool {
	return t.ExecutedInstructions >= len(t.Instructions)
}

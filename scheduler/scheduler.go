// Package scheduler implements the admission-control core of the simulated
// kernel. A Scheduler admits tasks onto a hard-bounded number of parallel
// execution channels and simulates their progress tick by tick.
package scheduler

import (
	"sync"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

// Stats is a snapshot of the scheduler state.
type Stats struct {
	TotalTasks     uint64
	ReadyTasks     int
	RunningTasks   int
	CompletedTasks int
	CancelledTasks int

	// MeanCompletedDuration is the mean wall time, in simulated
	// nanoseconds, of the tasks that ran to completion.
	MeanCompletedDuration kernel.VTimeInNs

	// ChannelUtilization is runningTasks over channelCount.
	ChannelUtilization float64

	TicksProcessed uint64
}

// A Scheduler owns the ready, running, and terminal task collections of one
// simulated kernel. All operations are synchronous and none of them blocks.
// The kernel loop drives the scheduler by calling Tick repeatedly.
type Scheduler struct {
	lock sync.Mutex

	name       string
	capability hardware.Capability
	timeTeller kernel.TimeTeller
	assigner   channelAssigner
	rebalancer RebalanceStrategy

	overloadCheckInterval uint64
	overloadThreshold     float64

	nextTaskID   kernel.TaskID
	tasks        map[kernel.TaskID]*kernel.Task
	readyQueues  [NumPriorityLevels][]*kernel.Task
	channelPrefs map[kernel.TaskID]int

	// running holds the tasks occupying channel slots. A task marked
	// Completed by the progress phase stays here, holding its slot, until
	// the next tick's completion sweep archives it.
	running      []*kernel.Task
	runningCount int

	archive []*kernel.Task

	ticksProcessed       uint64
	completedCount       int
	cancelledCount       int
	completedDurationSum kernel.VTimeInNs
}

// Name returns the name of the scheduler.
func (s *Scheduler) Name() string {
	return s.name
}

// Schedule creates a new task from the request and places it in its priority
// bucket. The task ID is returned immediately; admission happens on a later
// tick. Priorities outside [0, 7] are clamped. An empty instruction list is
// allowed and yields a zero-duration task.
func (s *Scheduler) Schedule(req ScheduleRequest) kernel.TaskID {
	s.lock.Lock()
	defer s.lock.Unlock()

	priority := clampPriority(req.Priority)

	s.nextTaskID++
	task := &kernel.Task{
		ID:                s.nextTaskID,
		ProcessID:         req.ProcessID,
		Instructions:      req.Instructions,
		Priority:          priority,
		State:             kernel.TaskReady,
		CreatedAt:         s.timeTeller.CurrentTime(),
		EstimatedDuration: s.estimateDuration(req.Instructions),
		AssignedChannel:   kernel.NoChannel,
	}

	s.tasks[task.ID] = task
	s.readyQueues[priority] = append(s.readyQueues[priority], task)

	if req.ChannelPreference != kernel.NoChannelPreference {
		s.channelPrefs[task.ID] = req.ChannelPreference
	}

	return task.ID
}

func clampPriority(p int) int {
	if p < 0 {
		return 0
	}

	if p >= NumPriorityLevels {
		return NumPriorityLevels - 1
	}

	return p
}

// estimateDuration sums, over the instructions, the baseline quantum divided
// by the usable lane count, converting microseconds to nanoseconds.
func (s *Scheduler) estimateDuration(
	instructions []kernel.InstructionDescriptor,
) kernel.VTimeInNs {
	var total kernel.VTimeInNs

	for _, inst := range instructions {
		lanes := inst.LaneCount
		if lanes > s.capability.ParallelismFactor() {
			lanes = s.capability.ParallelismFactor()
		}

		if lanes < 1 {
			lanes = 1
		}

		total += kernel.VTimeInNs(
			inst.BaselineQuantum * int64(kernel.Us) / int64(lanes))
	}

	return total
}

// Tick advances the scheduler by one step: it archives the tasks that
// finished on the previous tick, admits queued tasks into the freed
// capacity, and updates the progress of every running task. Every
// overload-check interval it additionally reports overloaded channels to
// the rebalance strategy. Tick returns true if any task changed state.
func (s *Scheduler) Tick() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.timeTeller.CurrentTime()

	madeProgress := s.sweepCompletedTasks()
	madeProgress = s.admitTasks(now) || madeProgress
	madeProgress = s.updateProgress(now) || madeProgress

	s.ticksProcessed++
	if s.ticksProcessed%s.overloadCheckInterval == 0 {
		s.reportOverloadedChannels()
	}

	return madeProgress
}

// sweepCompletedTasks moves the tasks the previous tick marked Completed
// out of the running collection, freeing their channel slots for this
// tick's admission phase.
func (s *Scheduler) sweepCompletedTasks() bool {
	swept := false
	remaining := s.running[:0]

	for _, task := range s.running {
		if task.State == kernel.TaskCompleted && task.ProgressComplete() {
			s.archive = append(s.archive, task)
			swept = true
			continue
		}

		remaining = append(remaining, task)
	}

	s.running = remaining

	return swept
}

// admitTasks scans the priority buckets from most to least urgent and
// starts tasks until the channel capacity is exhausted.
func (s *Scheduler) admitTasks(now kernel.VTimeInNs) bool {
	capacity := s.capability.ChannelCount() - len(s.running)
	admitted := false

	for priority := 0; priority < NumPriorityLevels; priority++ {
		for capacity > 0 && len(s.readyQueues[priority]) > 0 {
			task := s.readyQueues[priority][0]
			s.readyQueues[priority] = s.readyQueues[priority][1:]

			s.startTask(task, now)
			capacity--
			admitted = true
		}

		if capacity == 0 {
			break
		}
	}

	return admitted
}

func (s *Scheduler) startTask(task *kernel.Task, now kernel.VTimeInNs) {
	channel, preferred := s.channelPrefs[task.ID]
	if !preferred {
		channel = s.assigner.assign(s.running)
	}

	delete(s.channelPrefs, task.ID)

	task.Start(channel, now)
	s.running = append(s.running, task)
	s.runningCount++
}

// updateProgress recomputes the executed-instruction counter of every
// running task from the elapsed simulated time. A task whose elapsed time
// reached its estimate is marked Completed here; its slot is reclaimed by
// the next tick's sweep.
func (s *Scheduler) updateProgress(now kernel.VTimeInNs) bool {
	changed := false

	for _, task := range s.running {
		if task.State != kernel.TaskRunning {
			continue
		}

		elapsed := now - task.StartedAt
		if elapsed >= task.EstimatedDuration {
			task.Complete(now)
			s.runningCount--
			s.completedCount++
			s.completedDurationSum += elapsed
			changed = true

			continue
		}

		instCount := len(task.Instructions)
		executed := int(int64(instCount) * int64(elapsed) /
			int64(task.EstimatedDuration))
		if executed != task.ExecutedInstructions {
			task.ExecutedInstructions = executed
			changed = true
		}
	}

	return changed
}

// reportOverloadedChannels flags every channel whose running-task count
// exceeds the overload threshold times the mean load of the channels that
// carry at least one task. Reporting is the only action taken.
func (s *Scheduler) reportOverloadedChannels() {
	load := make([]int, s.capability.ChannelCount())
	total := 0
	active := 0

	for _, task := range s.running {
		if task.State != kernel.TaskRunning {
			continue
		}

		index := s.capability.ChannelIndex(task.AssignedChannel)
		if index < 0 || index >= len(load) {
			continue
		}

		if load[index] == 0 {
			active++
		}

		load[index]++
		total++
	}

	if active == 0 {
		return
	}

	mean := float64(total) / float64(active)
	for index, l := range load {
		if float64(l) > s.overloadThreshold*mean {
			s.rebalancer.ChannelOverloaded(index, l, mean)
		}
	}
}

// CancelTask cancels a queued or running task. It returns false, without
// side effects, if the task is unknown or already terminal. Cancelling a
// running task does not free its channel slot until the next tick's
// admission phase.
func (s *Scheduler) CancelTask(id kernel.TaskID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	task, found := s.tasks[id]
	if !found || task.State.IsTerminal() {
		return false
	}

	now := s.timeTeller.CurrentTime()

	switch task.State {
	case kernel.TaskRunning:
		s.removeFromRunning(task)
		s.runningCount--
	case kernel.TaskReady:
		s.removeFromReadyQueue(task)
	default:
		return false
	}

	delete(s.channelPrefs, id)
	task.Cancel(now)
	s.cancelledCount++
	s.archive = append(s.archive, task)

	return true
}

func (s *Scheduler) removeFromRunning(task *kernel.Task) {
	for i, t := range s.running {
		if t == task {
			s.running = append(s.running[:i], s.running[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) removeFromReadyQueue(task *kernel.Task) {
	queue := s.readyQueues[task.Priority]
	for i, t := range queue {
		if t == task {
			s.readyQueues[task.Priority] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

// RunningTaskCount returns the number of tasks currently in the Running
// state.
func (s *Scheduler) RunningTaskCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.runningCount
}

// Task returns a copy of the task with the given ID.
func (s *Scheduler) Task(id kernel.TaskID) (kernel.Task, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	task, found := s.tasks[id]
	if !found {
		return kernel.Task{}, false
	}

	return *task, true
}

// ArchivedTasks returns copies of the terminal tasks, in the order they
// entered the archive. The archive only ever grows.
func (s *Scheduler) ArchivedTasks() []kernel.Task {
	s.lock.Lock()
	defer s.lock.Unlock()

	tasks := make([]kernel.Task, len(s.archive))
	for i, t := range s.archive {
		tasks[i] = *t
	}

	return tasks
}

// Statistics returns a snapshot of the scheduler state.
func (s *Scheduler) Statistics() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()

	ready := 0
	for _, queue := range s.readyQueues {
		ready += len(queue)
	}

	stats := Stats{
		TotalTasks:     uint64(s.nextTaskID),
		ReadyTasks:     ready,
		RunningTasks:   s.runningCount,
		CompletedTasks: s.completedCount,
		CancelledTasks: s.cancelledCount,
		ChannelUtilization: float64(s.runningCount) /
			float64(s.capability.ChannelCount()),
		TicksProcessed: s.ticksProcessed,
	}

	if s.completedCount > 0 {
		stats.MeanCompletedDuration = s.completedDurationSum /
			kernel.VTimeInNs(s.completedCount)
	}

	return stats
}

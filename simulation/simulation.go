// Package simulation wires the kernel components together and drives them.
// The kernel loop is the only caller of the scheduler's tick and the memory
// manager's maintenance pass.
package simulation

import (
	"sync"

	"github.com/sarchlab/kernsim/datarecording"
	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/memory"
	"github.com/sarchlab/kernsim/monitoring"
	"github.com/sarchlab/kernsim/scheduler"
)

// A Simulation owns one simulated kernel: the virtual clock, the scheduler,
// the memory manager, and the recording and monitoring facilities around
// them.
type Simulation struct {
	id string

	capability hardware.Capability
	clock      *kernel.VirtualClock
	scheduler  *scheduler.Scheduler
	memory     *memory.Manager

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor

	cadence             kernel.VTimeInNs
	maintenanceInterval uint64
	snapshotInterval    uint64

	runLock   sync.Mutex
	pauseLock sync.Mutex

	recordedTasks int
}

// ID returns the unique ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Capability returns the hardware capability of the simulated platform.
func (s *Simulation) Capability() hardware.Capability {
	return s.capability
}

// CurrentTime returns the current simulated time.
func (s *Simulation) CurrentTime() kernel.VTimeInNs {
	return s.clock.CurrentTime()
}

// Scheduler returns the task scheduler of the kernel.
func (s *Simulation) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// Memory returns the memory manager of the kernel.
func (s *Simulation) Memory() *memory.Manager {
	return s.memory
}

// DataRecorder returns the recorder run data is written to.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor of the simulation, or nil when monitoring is
// disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Pause pauses the kernel loop before its next tick.
func (s *Simulation) Pause() {
	s.pauseLock.Lock()
}

// Continue resumes a paused kernel loop.
func (s *Simulation) Continue() {
	s.pauseLock.Unlock()
}

// RunTicks drives the kernel for n ticks. Each tick advances the clock by
// the cadence, ticks the scheduler, and, on their intervals, runs memory
// maintenance and records statistics snapshots.
func (s *Simulation) RunTicks(n uint64) {
	s.runLock.Lock()
	defer s.runLock.Unlock()

	for i := uint64(0); i < n; i++ {
		s.pauseLock.Lock()

		s.clock.Advance(s.cadence)
		s.scheduler.Tick()

		tick := s.scheduler.Statistics().TicksProcessed
		if tick%s.maintenanceInterval == 0 {
			s.memory.PerformMaintenanceTasks()
		}

		if tick%s.snapshotInterval == 0 {
			s.recordSnapshots(tick)
		}

		s.recordArchivedTasks()

		s.pauseLock.Unlock()
	}
}

// RunUntilIdle drives the kernel until a tick passes in which no task
// changes state and no task is queued or running.
func (s *Simulation) RunUntilIdle() {
	s.runLock.Lock()
	defer s.runLock.Unlock()

	for {
		s.pauseLock.Lock()

		s.clock.Advance(s.cadence)
		madeProgress := s.scheduler.Tick()

		stats := s.scheduler.Statistics()
		if stats.TicksProcessed%s.maintenanceInterval == 0 {
			s.memory.PerformMaintenanceTasks()
		}

		s.recordArchivedTasks()

		s.pauseLock.Unlock()

		if !madeProgress && stats.ReadyTasks == 0 && stats.RunningTasks == 0 {
			return
		}
	}
}

func (s *Simulation) recordSnapshots(tick uint64) {
	now := int64(s.clock.CurrentTime())

	schedStats := s.scheduler.Statistics()
	s.dataRecorder.InsertData(datarecording.SchedulerStatsTable,
		datarecording.SchedulerStatsRecord{
			Tick:                    tick,
			TimeNs:                  now,
			TotalTasks:              schedStats.TotalTasks,
			ReadyTasks:              schedStats.ReadyTasks,
			RunningTasks:            schedStats.RunningTasks,
			CompletedTasks:          schedStats.CompletedTasks,
			CancelledTasks:          schedStats.CancelledTasks,
			MeanCompletedDurationNs: int64(schedStats.MeanCompletedDuration),
			ChannelUtilization:      schedStats.ChannelUtilization,
		})

	memStats := s.memory.Statistics()
	s.dataRecorder.InsertData(datarecording.MemoryStatsTable,
		datarecording.MemoryStatsRecord{
			Tick:                 tick,
			TimeNs:               now,
			TotalPages:           memStats.TotalPages,
			FreePages:            memStats.FreePages,
			AllocatedPages:       memStats.AllocatedPages,
			ActiveProcesses:      memStats.ActiveProcesses,
			MeanCoherencePs:      memStats.MeanCoherencePs,
			BandwidthUtilization: memStats.BandwidthUtilization,
		})
}

// recordArchivedTasks records the tasks that reached a terminal state since
// the previous call.
func (s *Simulation) recordArchivedTasks() {
	archive := s.scheduler.ArchivedTasks()

	for _, task := range archive[s.recordedTasks:] {
		s.dataRecorder.InsertData(datarecording.TaskTable,
			datarecording.TaskRecord{
				TaskID:              uint64(task.ID),
				ProcessID:           task.ProcessID,
				Priority:            task.Priority,
				State:               task.State.String(),
				Channel:             task.AssignedChannel,
				CreatedAtNs:         int64(task.CreatedAt),
				StartedAtNs:         int64(task.StartedAt),
				CompletedAtNs:       int64(task.CompletedAt),
				EstimatedDurationNs: int64(task.EstimatedDuration),
				InstructionCount:    len(task.Instructions),
			})
	}

	s.recordedTasks = len(archive)
}

// Terminate records the final statistics and closes the data recorder.
func (s *Simulation) Terminate() {
	s.recordSnapshots(s.scheduler.Statistics().TicksProcessed)
	s.recordArchivedTasks()
	s.dataRecorder.Close()
}

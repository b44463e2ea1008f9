package scheduler

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
)

func oneInstruction() []kernel.InstructionDescriptor {
	return []kernel.InstructionDescriptor{
		kernel.MakeInstruction(0, 1, 1000, "vadd.0"),
	}
}

var _ = Describe("Scheduler", func() {
	var (
		capability hardware.Capability
		clock      *kernel.VirtualClock
		s          *Scheduler
	)

	BeforeEach(func() {
		capability = hardware.MakeBuilder().
			WithChannelCount(2).
			WithParallelismFactor(1).
			Build()
		clock = kernel.NewVirtualClock()
		s = MakeBuilder().
			WithCapability(capability).
			WithTimeTeller(clock).
			Build("Scheduler")
	})

	It("should assign monotonically increasing task IDs", func() {
		id1 := s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		id2 := s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		Expect(id2).To(BeNumerically(">", id1))
	})

	It("should clamp priorities into [0, 7]", func() {
		idHigh := s.Schedule(
			MakeScheduleRequest(1, oneInstruction()).WithPriority(12))
		idLow := s.Schedule(
			MakeScheduleRequest(1, oneInstruction()).WithPriority(-3))

		taskHigh, _ := s.Task(idHigh)
		taskLow, _ := s.Task(idLow)

		Expect(taskHigh.Priority).To(Equal(7))
		Expect(taskLow.Priority).To(Equal(0))
	})

	It("should estimate the duration from the instruction list", func() {
		id := s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		task, _ := s.Task(id)

		Expect(task.EstimatedDuration).To(Equal(1 * kernel.Ms))
	})

	It("should cap the lane benefit at the parallelism factor", func() {
		wideCapability := hardware.MakeBuilder().
			WithChannelCount(2).
			WithParallelismFactor(2).
			Build()
		wide := MakeBuilder().
			WithCapability(wideCapability).
			WithTimeTeller(clock).
			Build("Scheduler")

		id := wide.Schedule(MakeScheduleRequest(1,
			[]kernel.InstructionDescriptor{
				kernel.MakeInstruction(0, 4, 1000, "vmul.0"),
			}))

		task, _ := wide.Task(id)

		Expect(task.EstimatedDuration).To(Equal(500 * kernel.Us))
	})

	It("should never run more tasks than there are channels", func() {
		for i := 0; i < 5; i++ {
			s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		}

		s.Tick()

		Expect(s.RunningTaskCount()).To(Equal(2))
		Expect(s.Statistics().ReadyTasks).To(Equal(3))
	})

	It("should admit strictly by priority", func() {
		narrowCapability := hardware.MakeBuilder().
			WithChannelCount(1).
			WithParallelismFactor(1).
			Build()
		narrow := MakeBuilder().
			WithCapability(narrowCapability).
			WithTimeTeller(clock).
			Build("Scheduler")

		idB := narrow.Schedule(
			MakeScheduleRequest(1, oneInstruction()).WithPriority(3))
		idA := narrow.Schedule(
			MakeScheduleRequest(1, oneInstruction()).WithPriority(1))

		narrow.Tick()

		taskA, _ := narrow.Task(idA)
		taskB, _ := narrow.Task(idB)

		Expect(taskA.State).To(Equal(kernel.TaskRunning))
		Expect(taskB.State).To(Equal(kernel.TaskReady))
	})

	It("should run the three-task admission scenario", func() {
		id1 := s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		id2 := s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		id3 := s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		s.Tick()

		task3, _ := s.Task(id3)
		Expect(s.RunningTaskCount()).To(Equal(2))
		Expect(task3.State).To(Equal(kernel.TaskReady))

		clock.Advance(1 * kernel.Ms)
		s.Tick()

		task1, _ := s.Task(id1)
		task2, _ := s.Task(id2)
		Expect(task1.State).To(Equal(kernel.TaskCompleted))
		Expect(task2.State).To(Equal(kernel.TaskCompleted))

		clock.Advance(1 * kernel.Ms)
		s.Tick()

		task3, _ = s.Task(id3)
		Expect(task3.State).To(Equal(kernel.TaskRunning))
		Expect(s.RunningTaskCount()).To(Equal(1))
	})

	It("should complete an empty task on its first eligible tick", func() {
		id := s.Schedule(MakeScheduleRequest(1, nil))

		s.Tick()

		task, _ := s.Task(id)
		Expect(task.State).To(Equal(kernel.TaskCompleted))
		Expect(task.EstimatedDuration).To(Equal(kernel.VTimeInNs(0)))
	})

	It("should track instruction progress over time", func() {
		id := s.Schedule(MakeScheduleRequest(1,
			[]kernel.InstructionDescriptor{
				kernel.MakeInstruction(0, 1, 1000, "vadd.0"),
				kernel.MakeInstruction(1, 1, 1000, "vadd.1"),
				kernel.MakeInstruction(2, 1, 1000, "vadd.2"),
				kernel.MakeInstruction(3, 1, 1000, "vadd.3"),
			}))

		s.Tick()
		clock.Advance(2 * kernel.Ms)
		s.Tick()

		task, _ := s.Task(id)
		Expect(task.State).To(Equal(kernel.TaskRunning))
		Expect(task.ExecutedInstructions).To(Equal(2))
	})

	It("should spread tasks over the least-occupied channels", func() {
		spacedCapability := hardware.MakeBuilder().
			WithChannelCount(2).
			WithParallelismFactor(1).
			WithChannelRange(100, 10).
			Build()
		spaced := MakeBuilder().
			WithCapability(spacedCapability).
			WithTimeTeller(clock).
			Build("Scheduler")

		id1 := spaced.Schedule(MakeScheduleRequest(1, oneInstruction()))
		id2 := spaced.Schedule(MakeScheduleRequest(1, oneInstruction()))

		spaced.Tick()

		task1, _ := spaced.Task(id1)
		task2, _ := spaced.Task(id2)

		Expect(task1.AssignedChannel).To(Equal(100))
		Expect(task2.AssignedChannel).To(Equal(110))
	})

	It("should honor a channel preference verbatim", func() {
		id := s.Schedule(
			MakeScheduleRequest(1, oneInstruction()).
				WithChannelPreference(42))

		s.Tick()

		task, _ := s.Task(id)
		Expect(task.AssignedChannel).To(Equal(42))
	})

	It("should cancel a queued task", func() {
		s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		id := s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		s.Tick()

		Expect(s.CancelTask(id)).To(BeTrue())

		task, _ := s.Task(id)
		Expect(task.State).To(Equal(kernel.TaskCancelled))
		Expect(s.Statistics().ReadyTasks).To(Equal(0))
	})

	It("should cancel a running task", func() {
		id := s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		s.Tick()

		Expect(s.CancelTask(id)).To(BeTrue())
		Expect(s.RunningTaskCount()).To(Equal(0))
	})

	It("should refuse to cancel a terminal task", func() {
		id := s.Schedule(MakeScheduleRequest(1, nil))

		s.Tick()

		statsBefore := s.Statistics()

		Expect(s.CancelTask(id)).To(BeFalse())

		statsAfter := s.Statistics()
		statsBefore.TicksProcessed = statsAfter.TicksProcessed
		Expect(statsAfter).To(Equal(statsBefore))
	})

	It("should refuse to cancel an unknown task", func() {
		Expect(s.CancelTask(999)).To(BeFalse())
	})

	It("should report statistics", func() {
		s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		s.Schedule(MakeScheduleRequest(1, oneInstruction()))
		s.Schedule(MakeScheduleRequest(1, oneInstruction()))

		s.Tick()
		clock.Advance(1 * kernel.Ms)
		s.Tick()

		stats := s.Statistics()

		Expect(stats.TotalTasks).To(Equal(uint64(3)))
		Expect(stats.CompletedTasks).To(Equal(2))
		Expect(stats.ReadyTasks).To(Equal(1))
		Expect(stats.MeanCompletedDuration).To(Equal(1 * kernel.Ms))
		Expect(stats.TicksProcessed).To(Equal(uint64(2)))
	})
})

var _ = Describe("Scheduler overload reporting", func() {
	var (
		mockCtrl   *gomock.Controller
		rebalancer *MockRebalanceStrategy
		clock      *kernel.VirtualClock
		s          *Scheduler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		rebalancer = NewMockRebalanceStrategy(mockCtrl)
		clock = kernel.NewVirtualClock()

		capability := hardware.MakeBuilder().
			WithChannelCount(8).
			WithParallelismFactor(1).
			Build()
		s = MakeBuilder().
			WithCapability(capability).
			WithTimeTeller(clock).
			WithRebalanceStrategy(rebalancer).
			WithOverloadCheckInterval(1).
			Build("Scheduler")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should flag a channel above 1.5x the mean active load", func() {
		for i := 0; i < 5; i++ {
			s.Schedule(MakeScheduleRequest(1, oneInstruction()).
				WithChannelPreference(0))
		}
		s.Schedule(MakeScheduleRequest(1, oneInstruction()).
			WithChannelPreference(1))

		rebalancer.EXPECT().ChannelOverloaded(0, 5, 3.0)

		s.Tick()
	})

	It("should not flag evenly loaded channels", func() {
		s.Schedule(MakeScheduleRequest(1, oneInstruction()).
			WithChannelPreference(0))
		s.Schedule(MakeScheduleRequest(1, oneInstruction()).
			WithChannelPreference(1))

		s.Tick()
	})
})

package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/memory"
	"github.com/sarchlab/kernsim/scheduler"
)

type fakeLoop struct {
	now    kernel.VTimeInNs
	paused bool
}

func (l *fakeLoop) CurrentTime() kernel.VTimeInNs {
	return l.now
}

func (l *fakeLoop) Pause() {
	l.paused = true
}

func (l *fakeLoop) Continue() {
	l.paused = false
}

var _ = Describe("Monitor", func() {
	var (
		loop    *fakeLoop
		monitor *Monitor
	)

	BeforeEach(func() {
		capability := hardware.MakeBuilder().
			WithChannelCount(2).
			WithCapacity(10 * memory.PageSize).
			Build()
		clock := kernel.NewVirtualClock()

		loop = &fakeLoop{now: 5 * kernel.Ms}

		monitor = NewMonitor()
		monitor.RegisterLoop(loop)
		monitor.RegisterScheduler(scheduler.MakeBuilder().
			WithCapability(capability).
			WithTimeTeller(clock).
			Build("Scheduler"))
		monitor.RegisterMemory(memory.MakeBuilder().
			WithCapability(capability).
			WithTimeTeller(clock).
			Build("MemCtrl"))
	})

	It("should serve the current time", func() {
		w := httptest.NewRecorder()

		monitor.now(w, nil)

		Expect(w.Body.String()).To(Equal("{\"now\":5000000}"))
	})

	It("should pause and continue the loop", func() {
		monitor.pauseLoop(httptest.NewRecorder(), nil)
		Expect(loop.paused).To(BeTrue())

		monitor.continueLoop(httptest.NewRecorder(), nil)
		Expect(loop.paused).To(BeFalse())
	})

	It("should serve scheduler statistics as JSON", func() {
		w := httptest.NewRecorder()

		monitor.schedulerStats(w, nil)

		stats := scheduler.Stats{}
		err := json.Unmarshal(w.Body.Bytes(), &stats)
		Expect(err).ToNot(HaveOccurred())
		Expect(stats.TotalTasks).To(Equal(uint64(0)))
	})

	It("should serve memory statistics as JSON", func() {
		w := httptest.NewRecorder()

		monitor.memoryStats(w, nil)

		stats := memory.Stats{}
		err := json.Unmarshal(w.Body.Bytes(), &stats)
		Expect(err).ToNot(HaveOccurred())
		Expect(stats.TotalPages).To(Equal(10))
	})

	It("should list registered components", func() {
		w := httptest.NewRecorder()

		monitor.listComponents(w, nil)

		Expect(w.Body.String()).To(Equal("[\"Scheduler\",\"MemCtrl\"]"))
	})

	It("should 404 on an unknown component", func() {
		w := httptest.NewRecorder()

		component := monitor.findComponentOr404(w, "NoSuchComp")

		Expect(component).To(BeNil())
		Expect(w.Code).To(Equal(404))
	})

	It("should track progress bars", func() {
		bar := monitor.CreateProgressBar("workload", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		Expect(bar.InProgress).To(Equal(uint64(1)))
		Expect(bar.Finished).To(Equal(uint64(3)))

		w := httptest.NewRecorder()
		monitor.listProgressBars(w, nil)
		Expect(w.Body.String()).To(ContainSubstring("workload"))

		monitor.CompleteProgressBar(bar)

		w = httptest.NewRecorder()
		monitor.listProgressBars(w, nil)
		Expect(w.Body.String()).ToNot(ContainSubstring("workload"))
	})
})

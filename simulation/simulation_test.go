package simulation

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/kernsim/datarecording"
	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/memory"
	"github.com/sarchlab/kernsim/scheduler"
)

func testRecorder() (datarecording.DataRecorder, *sql.DB) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}

	// The in-memory database lives in a single connection.
	db.SetMaxOpenConns(1)

	return datarecording.NewDataRecorderWithDB(db), db
}

var _ = Describe("Simulation", func() {
	var (
		db *sql.DB
		s  *Simulation
	)

	BeforeEach(func() {
		capability := hardware.MakeBuilder().
			WithChannelCount(2).
			WithParallelismFactor(1).
			WithCapacity(10 * memory.PageSize).
			Build()

		var recorder datarecording.DataRecorder
		recorder, db = testRecorder()

		s = MakeBuilder().
			WithCapability(capability).
			WithoutMonitoring().
			WithDataRecorder(recorder).
			WithSnapshotInterval(2).
			WithMaintenanceInterval(2).
			Build()
	})

	AfterEach(func() {
		db.Close()
	})

	It("should advance the clock by the cadence per tick", func() {
		s.RunTicks(3)

		Expect(s.CurrentTime()).To(Equal(3 * kernel.Ms))
	})

	It("should run scheduled tasks to completion", func() {
		id := s.Scheduler().Schedule(scheduler.MakeScheduleRequest(1,
			[]kernel.InstructionDescriptor{
				kernel.MakeInstruction(0, 1, 1000, "vadd.0"),
			}))

		s.RunUntilIdle()

		task, found := s.Scheduler().Task(id)
		Expect(found).To(BeTrue())
		Expect(task.State).To(Equal(kernel.TaskCompleted))
	})

	It("should run memory maintenance on its interval", func() {
		s.Memory().AllocatePages(1, 2)

		// 1200 ticks of 1 ms push the page age past the refresh threshold.
		s.RunTicks(1200)

		page, _ := s.Memory().Page(0)
		Expect(page.LastRefresh).To(BeNumerically(">", 0))
	})

	It("should record archived tasks", func() {
		s.Scheduler().Schedule(scheduler.MakeScheduleRequest(1, nil))

		s.RunUntilIdle()
		s.DataRecorder().Flush()

		reader := datarecording.NewDataReaderWithDB(db)
		reader.MapTable(datarecording.TaskTable, datarecording.TaskRecord{})

		rows, err := reader.Query(datarecording.TaskTable)
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(1))

		record := rows[0].(datarecording.TaskRecord)
		Expect(record.State).To(Equal("Completed"))
	})

	It("should record statistics snapshots", func() {
		s.RunTicks(4)
		s.DataRecorder().Flush()

		reader := datarecording.NewDataReaderWithDB(db)
		reader.MapTable(datarecording.SchedulerStatsTable,
			datarecording.SchedulerStatsRecord{})

		rows, err := reader.Query(datarecording.SchedulerStatsTable)
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(2))
	})

	It("should refuse a monitor port without monitoring", func() {
		Expect(func() {
			MakeBuilder().
				WithoutMonitoring().
				WithMonitorPort(8080).
				Build()
		}).To(Panic())
	})
})

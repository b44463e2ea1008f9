package simulation

import (
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/kernsim/datarecording"
	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/memory"
	"github.com/sarchlab/kernsim/monitoring"
	"github.com/sarchlab/kernsim/scheduler"
)

// A Builder can build Simulations.
type Builder struct {
	capability          hardware.Capability
	cadence             kernel.VTimeInNs
	maintenanceInterval uint64
	snapshotInterval    uint64

	monitorOn   bool
	monitorPort int

	outputFileName string
	recorder       datarecording.DataRecorder

	rebalancer scheduler.RebalanceStrategy
	fabric     memory.SwitchingFabric
}

// MakeBuilder creates a Builder with the default loop parameters: a 1 ms
// cadence, maintenance and snapshots every 1000 ticks, and monitoring on.
func MakeBuilder() Builder {
	return Builder{
		capability:          hardware.MakeBuilder().Build(),
		cadence:             kernel.Ms,
		maintenanceInterval: 1000,
		snapshotInterval:    1000,
		monitorOn:           true,
	}
}

// WithCapability sets the hardware capability of the simulated platform.
func (b Builder) WithCapability(c hardware.Capability) Builder {
	b.capability = c
	return b
}

// WithCadence sets the simulated time that passes per tick.
func (b Builder) WithCadence(d kernel.VTimeInNs) Builder {
	b.cadence = d
	return b
}

// WithMaintenanceInterval sets how many ticks pass between two memory
// maintenance passes.
func (b Builder) WithMaintenanceInterval(ticks uint64) Builder {
	b.maintenanceInterval = ticks
	return b
}

// WithSnapshotInterval sets how many ticks pass between two recorded
// statistics snapshots.
func (b Builder) WithSnapshotInterval(ticks uint64) Builder {
	b.snapshotInterval = ticks
	return b
}

// WithoutMonitoring sets the simulation to not start a monitoring server.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithDataRecorder sets an already constructed data recorder, overriding
// the output file name.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithRebalanceStrategy sets the strategy told about overloaded channels.
func (b Builder) WithRebalanceStrategy(r scheduler.RebalanceStrategy) Builder {
	b.rebalancer = r
	return b
}

// WithSwitchingFabric sets the fabric notified on bandwidth partition
// changes.
func (b Builder) WithSwitchingFabric(f memory.SwitchingFabric) Builder {
	b.fabric = f
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		log.Panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.cadence <= 0 {
		log.Panic("cadence must be positive")
	}

	if b.maintenanceInterval == 0 || b.snapshotInterval == 0 {
		log.Panic("loop intervals must be positive")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:                  xid.New().String(),
		capability:          b.capability,
		clock:               kernel.NewVirtualClock(),
		cadence:             b.cadence,
		maintenanceInterval: b.maintenanceInterval,
		snapshotInterval:    b.snapshotInterval,
	}

	s.scheduler = scheduler.MakeBuilder().
		WithCapability(b.capability).
		WithTimeTeller(s.clock).
		WithRebalanceStrategy(b.rebalancer).
		Build("Scheduler")

	s.memory = memory.MakeBuilder().
		WithCapability(b.capability).
		WithTimeTeller(s.clock).
		WithSwitchingFabric(b.fabric).
		Build("MemCtrl")

	s.dataRecorder = b.recorder
	if s.dataRecorder == nil {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "kernsim_" + s.id
		}

		s.dataRecorder = datarecording.NewDataRecorder(outputPath)
	}

	s.dataRecorder.CreateTable(datarecording.TaskTable,
		datarecording.TaskRecord{})
	s.dataRecorder.CreateTable(datarecording.SchedulerStatsTable,
		datarecording.SchedulerStatsRecord{})
	s.dataRecorder.CreateTable(datarecording.MemoryStatsTable,
		datarecording.MemoryStatsRecord{})

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		s.monitor.RegisterLoop(s)
		s.monitor.RegisterScheduler(s.scheduler)
		s.monitor.RegisterMemory(s.memory)
		s.monitor.StartServer()
	}

	return s
}

// Package main provides the kernsim command. It builds a simulated kernel
// from command-line parameters, drives a demo workload through it, and
// reports the resulting statistics.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/kernsim/hardware"
	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/simulation"
)

var rootCmd = &cobra.Command{
	Use:   "kernsim",
	Short: "kernsim runs a simulated parallel-execution kernel.",
	Long: `kernsim builds a tick-driven kernel with a task scheduler and a paged ` +
		`memory manager, runs a synthetic workload through it, and records the ` +
		`run into a SQLite database. A monitoring server exposes the live ` +
		`kernel state over HTTP.`,
	Run: run,
}

var (
	flagChannels     int
	flagParallelism  int
	flagCapacityMB   uint64
	flagChannelBase  int
	flagChannelPitch int
	flagTicks        uint64
	flagCadenceNs    int64
	flagProcesses    int
	flagTasks        int
	flagSeed         int64
	flagMonitorOff   bool
	flagMonitorPort  int
	flagOpenMonitor  bool
	flagOutput       string
)

func init() {
	// A .env file can preset the environment-backed defaults.
	_ = godotenv.Load()

	rootCmd.Flags().IntVar(&flagChannels, "channels", 4,
		"number of parallel execution channels")
	rootCmd.Flags().IntVar(&flagParallelism, "parallelism", 2,
		"per-instruction lane cap of the hardware")
	rootCmd.Flags().Uint64Var(&flagCapacityMB, "capacity-mb", 64,
		"memory capacity in MB")
	rootCmd.Flags().IntVar(&flagChannelBase, "channel-base", 0,
		"numeric value of channel index 0")
	rootCmd.Flags().IntVar(&flagChannelPitch, "channel-pitch", 1,
		"spacing between consecutive channel values")
	rootCmd.Flags().Uint64Var(&flagTicks, "ticks", 5000,
		"number of ticks to run")
	rootCmd.Flags().Int64Var(&flagCadenceNs, "cadence-ns",
		int64(kernel.Ms), "simulated nanoseconds per tick")
	rootCmd.Flags().IntVar(&flagProcesses, "processes", 4,
		"number of synthetic processes")
	rootCmd.Flags().IntVar(&flagTasks, "tasks", 32,
		"number of synthetic tasks")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 1,
		"random seed of the workload generator")
	rootCmd.Flags().BoolVar(&flagMonitorOff, "no-monitor", false,
		"do not start the monitoring server")
	rootCmd.Flags().IntVar(&flagMonitorPort, "monitor-port",
		envInt("KERNSIM_MONITOR_PORT", 0),
		"port of the monitoring server, 0 picks a random port")
	rootCmd.Flags().BoolVar(&flagOpenMonitor, "open", false,
		"open the monitoring server in a browser")
	rootCmd.Flags().StringVar(&flagOutput, "output",
		os.Getenv("KERNSIM_OUTPUT"),
		"output file name for the recorded run data")
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		log.Panicf("%s must be an integer, got %q", key, v)
	}

	return n
}

func run(_ *cobra.Command, _ []string) {
	capability := hardware.MakeBuilder().
		WithChannelCount(flagChannels).
		WithParallelismFactor(flagParallelism).
		WithCapacity(flagCapacityMB * 1024 * 1024).
		WithChannelRange(flagChannelBase, flagChannelPitch).
		Build()

	builder := simulation.MakeBuilder().
		WithCapability(capability).
		WithCadence(kernel.VTimeInNs(flagCadenceNs)).
		WithOutputFileName(flagOutput)

	if flagMonitorOff {
		builder = builder.WithoutMonitoring()
	} else if flagMonitorPort > 0 {
		builder = builder.WithMonitorPort(flagMonitorPort)
	}

	s := builder.Build()

	if flagOpenMonitor && s.Monitor() != nil && flagMonitorPort > 0 {
		url := fmt.Sprintf("http://localhost:%d/api/scheduler",
			flagMonitorPort)
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "cannot open browser: %s\n", err)
		}
	}

	runWorkload(s)

	reportStatistics(s)

	s.Terminate()
	atexit.Exit(0)
}

func runWorkload(s *simulation.Simulation) {
	rng := rand.New(rand.NewSource(flagSeed))

	var bar *monitorBar
	if s.Monitor() != nil {
		bar = &monitorBar{
			monitor: s.Monitor(),
			bar: s.Monitor().CreateProgressBar(
				"synthetic workload", uint64(flagTasks)),
		}
	}

	for i := 0; i < flagProcesses; i++ {
		pages := 4 + rng.Intn(12)
		if s.Memory().AllocatePages(i, pages) == nil {
			fmt.Fprintf(os.Stderr,
				"process %d: not enough free pages for %d pages\n",
				i, pages)
		}
	}

	for i := 0; i < flagTasks; i++ {
		instructions := makeInstructions(rng)
		req := makeRequest(rng, i%flagProcesses, instructions)
		s.Scheduler().Schedule(req)

		if bar != nil {
			bar.bar.IncrementInProgress(1)
		}
	}

	s.RunTicks(flagTicks)
	s.RunUntilIdle()

	if bar != nil {
		done := uint64(s.Scheduler().Statistics().CompletedTasks)
		bar.bar.MoveInProgressToFinished(done)
		bar.monitor.CompleteProgressBar(bar.bar)
	}

	for i := 0; i < flagProcesses; i++ {
		s.Memory().DeallocatePages(i)
	}
}

func reportStatistics(s *simulation.Simulation) {
	schedStats := s.Scheduler().Statistics()
	memStats := s.Memory().Statistics()

	fmt.Printf("ticks processed:      %d\n", schedStats.TicksProcessed)
	fmt.Printf("tasks scheduled:      %d\n", schedStats.TotalTasks)
	fmt.Printf("tasks completed:      %d\n", schedStats.CompletedTasks)
	fmt.Printf("mean task duration:   %d ns\n",
		schedStats.MeanCompletedDuration)
	fmt.Printf("channel utilization:  %.2f\n",
		schedStats.ChannelUtilization)
	fmt.Printf("pages total/free:     %d/%d\n",
		memStats.TotalPages, memStats.FreePages)
	fmt.Printf("access time:          %d ps\n",
		s.Capability().AccessTimePs())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/kernsim/kernel"
	"github.com/sarchlab/kernsim/monitoring"
	"github.com/sarchlab/kernsim/scheduler"
)

type monitorBar struct {
	monitor *monitoring.Monitor
	bar     *monitoring.ProgressBar
}

var opcodeMnemonics = []string{"vadd", "vmul", "ld", "st", "fma", "cmp"}

func makeInstructions(rng *rand.Rand) []kernel.InstructionDescriptor {
	count := 1 + rng.Intn(8)
	instructions := make([]kernel.InstructionDescriptor, count)

	for i := range instructions {
		opcode := rng.Intn(len(opcodeMnemonics))
		instructions[i] = kernel.MakeInstruction(
			uint32(opcode),
			1+rng.Intn(4),
			int64(100+rng.Intn(2000)),
			fmt.Sprintf("%s.%d", opcodeMnemonics[opcode], i),
		)
	}

	return instructions
}

func makeRequest(
	rng *rand.Rand,
	processID int,
	instructions []kernel.InstructionDescriptor,
) scheduler.ScheduleRequest {
	req := scheduler.MakeScheduleRequest(processID, instructions).
		WithPriority(rng.Intn(scheduler.NumPriorityLevels))

	return req
}

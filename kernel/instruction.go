package kernel

// NoChannelPreference marks an instruction or a schedule request that does
// not ask for a particular execution channel.
const NoChannelPreference = -1

// An InstructionDescriptor describes one instruction of a task. Descriptors
// are immutable once created.
type InstructionDescriptor struct {
	// Opcode identifies the operation.
	Opcode uint32

	// PreferredChannel is the channel value the instruction would like to
	// execute on, or NoChannelPreference.
	PreferredChannel int

	// LaneCount is the number of parallel lanes the instruction requests.
	LaneCount int

	// BaselineQuantum is the baseline execution time of the instruction on a
	// single lane, in microseconds.
	BaselineQuantum int64

	// Mnemonic is a human-readable name used for diagnostics only.
	Mnemonic string
}

// MakeInstruction creates an InstructionDescriptor with no channel
// preference.
func MakeInstruction(
	opcode uint32,
	laneCount int,
	baselineQuantum int64,
	mnemonic string,
) InstructionDescriptor {
	return InstructionDescriptor{
		Opcode:           opcode,
		PreferredChannel: NoChannelPreference,
		LaneCount:        laneCount,
		BaselineQuantum:  baselineQuantum,
		Mnemonic:         mnemonic,
	}
}

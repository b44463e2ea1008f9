package scheduler

import "github.com/sarchlab/kernsim/kernel"

// NumPriorityLevels is the number of priority buckets. Priority 0 is the
// most urgent.
const NumPriorityLevels = 8

// DefaultPriority is the priority used when the caller does not state one.
const DefaultPriority = 4

// A ScheduleRequest asks the scheduler to create a task.
type ScheduleRequest struct {
	ProcessID         int
	Instructions      []kernel.InstructionDescriptor
	Priority          int
	ChannelPreference int
}

// MakeScheduleRequest creates a ScheduleRequest with the default priority
// and no channel preference.
func MakeScheduleRequest(
	processID int,
	instructions []kernel.InstructionDescriptor,
) ScheduleRequest {
	return ScheduleRequest{
		ProcessID:         processID,
		Instructions:      instructions,
		Priority:          DefaultPriority,
		ChannelPreference: kernel.NoChannelPreference,
	}
}

// WithPriority sets the priority of the request.
func (r ScheduleRequest) WithPriority(p int) ScheduleRequest {
	r.Priority = p
	return r
}

// WithChannelPreference sets the channel value the task must run on. The
// preference is honored verbatim and bypasses the channel-assignment
// heuristic.
func (r ScheduleRequest) WithChannelPreference(channel int) ScheduleRequest {
	r.ChannelPreference = channel
	return r
}

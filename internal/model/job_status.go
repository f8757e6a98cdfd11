package model

import "fmt"

// Job states with continuation semantics. Every other state is terminal.
const (
	StatePending  = "PENDING"
	StateProgress = "PROGRESS"
)

// JobStatus is one snapshot of the dashboard's refresh job, as served at its
// status locator
type JobStatus struct {
	State   string  `json:"state" bson:"state"`
	Current int     `json:"current" bson:"current"`
	Total   int     `json:"total" bson:"total"`
	Status  string  `json:"status,omitempty" bson:"status,omitempty"`
	Result  *string `json:"result,omitempty" bson:"result,omitempty"`
	Locked  bool    `json:"locked,omitempty" bson:"locked,omitempty"`
}

// Active reports whether the job is still pending or in progress
func (s *JobStatus) Active() bool {
	return s.State == StatePending || s.State == StateProgress
}

// HasResult reports whether the job reported a result message
func (s *JobStatus) HasResult() bool {
	return s.Result != nil
}

// Percent returns floor(current*100/total) clamped to [0,100].
// A zero or negative total counts as no progress.
func (s *JobStatus) Percent() int {
	if s.Total <= 0 || s.Current <= 0 {
		return 0
	}

	percent := int(int64(s.Current) * 100 / int64(s.Total))
	if percent > 100 {
		return 100
	}
	return percent
}

// RetryMessage is the text shown for a terminal state without a result
func RetryMessage(state string) string {
	return fmt.Sprintf("%s, please try again.", state)
}

// TerminalMessage returns the final text rendered for a finished job
func (s *JobStatus) TerminalMessage() string {
	if s.Result != nil {
		return *s.Result
	}
	return RetryMessage(s.State)
}

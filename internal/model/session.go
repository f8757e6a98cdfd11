package model

import "time"

// Phase is the monitor state of a render target
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePolling
	PhaseTerminal
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePolling:
		return "polling"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Origin records how a poll session came to exist
type Origin string

const (
	OriginDiscovered Origin = "discovered" // found already running on start
	OriginTriggered  Origin = "triggered"  // explicit user request
	OriginScheduled  Origin = "scheduled"  // cron schedule
)

// PollSession is the client-side observation of one job instance. It is
// owned by whoever created it and passed into every poll step.
type PollSession struct {
	ID          string    `json:"id" bson:"session_id"`
	StatusURL   string    `json:"status_url" bson:"status_url"`
	Target      string    `json:"target" bson:"target"`
	Origin      Origin    `json:"origin" bson:"origin"`
	StartedAt   time.Time `json:"started_at" bson:"started_at"`
	Polls       int       `json:"polls" bson:"polls"`
	LastPercent int       `json:"last_percent" bson:"last_percent"`
	Generation  uint64    `json:"-" bson:"-"`
}

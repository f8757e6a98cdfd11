package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome is how a poll session ended
type Outcome string

const (
	OutcomeRunning    Outcome = "running"
	OutcomeCompleted  Outcome = "completed"  // terminal state with a result
	OutcomeFailed     Outcome = "failed"     // terminal state without a result, or polling gave up
	OutcomeLocked     Outcome = "locked"     // another consumer owns reporting
	OutcomeSuperseded Outcome = "superseded" // replaced by a newer session on the same target
	OutcomeCancelled  Outcome = "cancelled"  // monitor shut down
	OutcomeTimedOut   Outcome = "timed_out"
)

// SessionOutcome is the final result of driving one session
type SessionOutcome struct {
	Outcome Outcome `json:"outcome" bson:"outcome"`
	State   string  `json:"state,omitempty" bson:"state,omitempty"`
	Message string  `json:"message,omitempty" bson:"message,omitempty"`
}

// SessionRecord is the persisted history of one poll session
type SessionRecord struct {
	ID            primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	SessionID     string             `json:"session_id" bson:"session_id"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Target        string             `json:"target" bson:"target"`
	Origin        Origin             `json:"origin" bson:"origin"`
	StatusURL     string             `json:"status_url" bson:"status_url"`
	StartedAt     time.Time          `json:"started_at" bson:"started_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	FinishedAt    time.Time          `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
	Polls         int                `json:"polls" bson:"polls"`
	LastPercent   int                `json:"last_percent" bson:"last_percent"`
	LastState     string             `json:"last_state,omitempty" bson:"last_state,omitempty"`
	LastStatus    string             `json:"last_status,omitempty" bson:"last_status,omitempty"`
	Outcome       Outcome            `json:"outcome" bson:"outcome"`
	Message       string             `json:"message,omitempty" bson:"message,omitempty"`
}

// NewSessionRecord creates the initial record for a started session
func NewSessionRecord(session PollSession) *SessionRecord {
	return &SessionRecord{
		SessionID: session.ID,
		Target:    session.Target,
		Origin:    session.Origin,
		StatusURL: session.StatusURL,
		StartedAt: session.StartedAt,
		UpdatedAt: session.StartedAt,
		Outcome:   OutcomeRunning,
	}
}

// SessionSummary represents a summary for list responses
type SessionSummary struct {
	SessionID   string  `json:"session_id"`
	Target      string  `json:"target"`
	Origin      Origin  `json:"origin"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  string  `json:"finished_at,omitempty"`
	DurationMs  int64   `json:"duration_ms,omitempty"`
	Polls       int     `json:"polls"`
	LastPercent int     `json:"last_percent"`
	Outcome     Outcome `json:"outcome"`
}

// ToSummary converts SessionRecord to SessionSummary
func (r *SessionRecord) ToSummary() SessionSummary {
	var startedAt, finishedAt string
	var durationMs int64
	if !r.StartedAt.IsZero() {
		startedAt = r.StartedAt.Format(time.RFC3339)
	}
	if !r.FinishedAt.IsZero() {
		finishedAt = r.FinishedAt.Format(time.RFC3339)
		durationMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	}

	return SessionSummary{
		SessionID:   r.SessionID,
		Target:      r.Target,
		Origin:      r.Origin,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		DurationMs:  durationMs,
		Polls:       r.Polls,
		LastPercent: r.LastPercent,
		Outcome:     r.Outcome,
	}
}

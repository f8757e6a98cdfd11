package model

// Notification kinds
const (
	NotificationError   = "error"
	NotificationOutcome = "outcome"
)

// UnexpectedErrorMessage is shown when the dashboard cannot be reached
const UnexpectedErrorMessage = "Unexpected error"

// Notification is a user-facing event raised by the monitor
type Notification struct {
	Kind      string  `json:"kind"`
	Target    string  `json:"target"`
	SessionID string  `json:"session_id,omitempty"`
	Message   string  `json:"message"`
	Detail    string  `json:"detail,omitempty"`
	State     string  `json:"state,omitempty"`
	Outcome   Outcome `json:"outcome,omitempty"`
}

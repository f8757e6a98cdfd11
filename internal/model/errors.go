package model

import "errors"

var (
	// ErrNoActiveJob is returned when the dashboard reports no running refresh
	ErrNoActiveJob = errors.New("no active refresh job")
	// ErrMissingLocation is returned when an accepted request carries no status locator
	ErrMissingLocation = errors.New("response has no Location header")
	// ErrHistoryDisabled is returned by history queries when no store is configured
	ErrHistoryDisabled = errors.New("session history is disabled")
	// ErrSessionNotFound is returned when a session record does not exist
	ErrSessionNotFound = errors.New("session not found")
)

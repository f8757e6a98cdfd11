package model

import "time"

// RefreshLock is a distributed lock guarding scheduled refresh triggers
type RefreshLock struct {
	Name      string    `json:"name" bson:"name"`
	LockedBy  string    `json:"locked_by" bson:"locked_by"`   // Instance identifier (hostname)
	LockedAt  time.Time `json:"locked_at" bson:"locked_at"`   // Lock acquisition timestamp
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"` // Lock expiration (TTL)
}

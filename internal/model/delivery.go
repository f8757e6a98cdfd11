package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryAttempt represents a single webhook delivery attempt
type DeliveryAttempt struct {
	AttemptNumber int       `json:"attempt_number" bson:"attempt_number"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	StatusCode    int       `json:"status_code,omitempty" bson:"status_code,omitempty"`
	ResponseBody  string    `json:"response_body,omitempty" bson:"response_body,omitempty"`
	Error         string    `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs    int64     `json:"duration_ms" bson:"duration_ms"`
}

// Delivery statuses
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliveryRetrying  = "retrying"
)

// DeliveryLog records the delivery of one notification to a webhook
type DeliveryLog struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SessionID   string             `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Kind        string             `json:"kind" bson:"kind"`
	WebhookURL  string             `json:"webhook_url" bson:"webhook_url"`
	Text        string             `json:"text" bson:"text"`
	Attempts    []DeliveryAttempt  `json:"attempts" bson:"attempts"`
	FinalStatus string             `json:"final_status" bson:"final_status"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	CompletedAt time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

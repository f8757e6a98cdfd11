package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepository handles poll session history
type SessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *MongoDB) *SessionRepository {
	return &SessionRepository{
		collection: db.GetCollection(CollectionRefreshSessions),
	}
}

// Create inserts a new session record
func (r *SessionRepository) Create(ctx context.Context, record *model.SessionRecord) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, record)
	if err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}

	return nil
}

// UpdateProgress records the latest poll of a running session
func (r *SessionRepository) UpdateProgress(ctx context.Context, sessionID string, polls, percent int, state, status string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"polls":        polls,
			"last_percent": percent,
			"last_state":   state,
			"last_status":  status,
			"updated_at":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"session_id": sessionID}, update)
	if err != nil {
		return fmt.Errorf("failed to update session progress: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Finish stores the outcome of a session
func (r *SessionRepository) Finish(ctx context.Context, sessionID string, polls int, outcome model.SessionOutcome) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"polls":       polls,
		"outcome":     outcome.Outcome,
		"message":     outcome.Message,
		"finished_at": now,
		"updated_at":  now,
	}
	if outcome.State != "" {
		set["last_state"] = outcome.State
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// GetBySessionID retrieves a session record by its session ID
func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record model.SessionRecord
	err := r.collection.FindOne(ctxTimeout, bson.M{"session_id": sessionID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &record, nil
}

// List retrieves session history with filtering and pagination
func (r *SessionRepository) List(ctx context.Context, filter bson.M, page, limit int) ([]model.SessionRecord, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err := r.collection.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "started_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var records []model.SessionRecord
	if err := cursor.All(ctxTimeout, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return records, total, nil
}

// DeliveryRepository stores webhook delivery logs
type DeliveryRepository struct {
	collection *mongo.Collection
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *MongoDB) *DeliveryRepository {
	return &DeliveryRepository{
		collection: db.GetCollection(CollectionDeliveryLogs),
	}
}

// Create inserts a delivery log
func (r *DeliveryRepository) Create(ctx context.Context, delivery *model.DeliveryLog) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if delivery.ID.IsZero() {
		delivery.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctxTimeout, delivery); err != nil {
		return fmt.Errorf("failed to create delivery log: %w", err)
	}

	return nil
}

package service

import (
	"context"

	"github.com/dandantas/refreshwatch/internal/model"
	"go.mongodb.org/mongo-driver/bson"
)

// SessionStore persists session records. Implemented by database.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, record *model.SessionRecord) error
	UpdateProgress(ctx context.Context, sessionID string, polls, percent int, state, status string) error
	Finish(ctx context.Context, sessionID string, polls int, outcome model.SessionOutcome) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.SessionRecord, error)
	List(ctx context.Context, filter bson.M, page, limit int) ([]model.SessionRecord, int64, error)
}

// HistoryService records poll sessions and answers history queries.
// A nil store disables history.
type HistoryService struct {
	store SessionStore
}

// NewHistoryService creates a new history service
func NewHistoryService(store SessionStore) *HistoryService {
	return &HistoryService{
		store: store,
	}
}

// Enabled reports whether a store is configured
func (s *HistoryService) Enabled() bool {
	return s != nil && s.store != nil
}

// Start records a newly started session
func (s *HistoryService) Start(ctx context.Context, session model.PollSession) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.Create(ctx, model.NewSessionRecord(session))
}

// Update records the latest poll of a session
func (s *HistoryService) Update(ctx context.Context, session model.PollSession, status *model.JobStatus) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.UpdateProgress(ctx, session.ID, session.Polls, session.LastPercent, status.State, status.Status)
}

// Finish records how a session ended
func (s *HistoryService) Finish(ctx context.Context, session model.PollSession, outcome model.SessionOutcome) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.Finish(ctx, session.ID, session.Polls, outcome)
}

// Get retrieves a session record by session ID
func (s *HistoryService) Get(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrHistoryDisabled
	}
	return s.store.GetBySessionID(ctx, sessionID)
}

// List retrieves session history with filtering
func (s *HistoryService) List(ctx context.Context, target, outcome, origin string, page, limit int) ([]model.SessionSummary, int64, error) {
	if !s.Enabled() {
		return nil, 0, model.ErrHistoryDisabled
	}

	filter := bson.M{}
	if target != "" {
		filter["target"] = target
	}
	if outcome != "" {
		filter["outcome"] = outcome
	}
	if origin != "" {
		filter["origin"] = origin
	}

	records, total, err := s.store.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]model.SessionSummary, len(records))
	for i, record := range records {
		summaries[i] = record.ToSummary()
	}

	return summaries, total, nil
}

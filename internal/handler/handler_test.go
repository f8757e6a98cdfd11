package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/render"
	"github.com/dandantas/refreshwatch/internal/service"
	"github.com/dandantas/refreshwatch/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeMonitor struct {
	session *model.PollSession
	phase   model.Phase
	target  *render.Target
}

func (m *fakeMonitor) TriggerRefresh(context.Context) *model.PollSession {
	if m.session == nil {
		m.target.Reset()
		return nil
	}
	m.phase = model.PhasePolling
	m.target.ShowProgress(0)
	return m.session
}

func (m *fakeMonitor) Active() (model.PollSession, bool) {
	if m.phase != model.PhasePolling || m.session == nil {
		return model.PollSession{}, false
	}
	return *m.session, true
}

func (m *fakeMonitor) Phase() model.Phase { return m.phase }

type fakeStore struct {
	records []model.SessionRecord
	filter  bson.M
	err     error
}

func (s *fakeStore) Create(context.Context, *model.SessionRecord) error { return nil }
func (s *fakeStore) UpdateProgress(context.Context, string, int, int, string, string) error {
	return nil
}
func (s *fakeStore) Finish(context.Context, string, int, model.SessionOutcome) error { return nil }

func (s *fakeStore) GetBySessionID(_ context.Context, id string) (*model.SessionRecord, error) {
	for i := range s.records {
		if s.records[i].SessionID == id {
			return &s.records[i], nil
		}
	}
	return nil, model.ErrSessionNotFound
}

func (s *fakeStore) List(_ context.Context, filter bson.M, page, limit int) ([]model.SessionRecord, int64, error) {
	s.filter = filter
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.records, int64(len(s.records)), nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(mon *fakeMonitor, history *service.HistoryService, db Pinger) http.Handler {
	return NewRouter(
		NewProgressHandler(mon, mon.target),
		NewSessionHandler(history),
		NewHealthHandler(db, "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET, POST, OPTIONS"},
	).Handler()
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRefreshAccepted(t *testing.T) {
	target := render.NewTarget("progressbar")
	mon := &fakeMonitor{target: target, session: &model.PollSession{ID: "s1", StatusURL: "http://dash/status/1", Origin: model.OriginTriggered}}
	h := newTestRouter(mon, service.NewHistoryService(nil), nil)

	rec := do(h, http.MethodPost, "/api/v1/refresh")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, ProgressPath, rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationHeader))

	var session model.PollSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "s1", session.ID)

	rec = do(h, http.MethodGet, "/api/v1/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var progress ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, "polling", progress.Phase)
	assert.Equal(t, render.ModeProgress, progress.Target.Mode)
	require.NotNil(t, progress.Session)
	assert.Equal(t, "s1", progress.Session.ID)
}

func TestRefreshUnexpectedError(t *testing.T) {
	mon := &fakeMonitor{target: render.NewTarget("progressbar")}
	h := newTestRouter(mon, service.NewHistoryService(nil), nil)

	rec := do(h, http.MethodPost, "/api/v1/refresh")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unexpected error")
}

func TestProgressFragment(t *testing.T) {
	target := render.NewTarget("progressbar")
	target.ShowProgress(42)
	h := newTestRouter(&fakeMonitor{target: target}, service.NewHistoryService(nil), nil)

	rec := do(h, http.MethodGet, "/api/v1/progress/fragment")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), `aria-valuenow="42"`)
}

func TestSessionsDisabled(t *testing.T) {
	h := newTestRouter(&fakeMonitor{target: render.NewTarget("x")}, service.NewHistoryService(nil), nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/api/v1/sessions").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/api/v1/sessions/abc").Code)
}

func TestSessionsList(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeStore{records: []model.SessionRecord{{
		SessionID:  "s1",
		Target:     "progressbar",
		Origin:     model.OriginScheduled,
		StartedAt:  started,
		FinishedAt: started.Add(4 * time.Second),
		Polls:      3,
		Outcome:    model.OutcomeCompleted,
	}}}
	h := newTestRouter(&fakeMonitor{target: render.NewTarget("x")}, service.NewHistoryService(store), nil)

	rec := do(h, http.MethodGet, "/api/v1/sessions?outcome=completed&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 100, resp.Limit)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(4000), resp.Results[0].DurationMs)
	assert.Equal(t, bson.M{"outcome": "completed"}, store.filter)
}

func TestSessionsListStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("mongo down")}
	h := newTestRouter(&fakeMonitor{target: render.NewTarget("x")}, service.NewHistoryService(store), nil)

	assert.Equal(t, http.StatusInternalServerError, do(h, http.MethodGet, "/api/v1/sessions").Code)
}

func TestSessionGet(t *testing.T) {
	store := &fakeStore{records: []model.SessionRecord{{SessionID: "s1", Outcome: model.OutcomeLocked}}}
	h := newTestRouter(&fakeMonitor{target: render.NewTarget("x")}, service.NewHistoryService(store), nil)

	rec := do(h, http.MethodGet, "/api/v1/sessions/s1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"locked"`)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/sessions/missing").Code)
}

func TestHealthAndReady(t *testing.T) {
	mon := &fakeMonitor{target: render.NewTarget("x")}

	tests := []struct {
		name      string
		db        Pinger
		wantMongo string
		wantReady int
	}{
		{"disabled", nil, "disabled", http.StatusOK},
		{"connected", pinger{}, "connected", http.StatusOK},
		{"disconnected", pinger{err: errors.New("down")}, "disconnected", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(mon, service.NewHistoryService(nil), tt.db)

			rec := do(h, http.MethodGet, "/health")
			require.Equal(t, http.StatusOK, rec.Code)
			var health HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
			assert.Equal(t, tt.wantMongo, health.MongoDB)
			assert.Equal(t, "test", health.Version)

			assert.Equal(t, tt.wantReady, do(h, http.MethodGet, "/ready").Code)
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	h := newTestRouter(&fakeMonitor{target: render.NewTarget("x")}, service.NewHistoryService(nil), nil)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/v1/refresh").Code)
}

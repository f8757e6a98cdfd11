package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newClient(t *testing.T, dashboard model.Dashboard) *StatusClient {
	t.Helper()
	client, err := NewStatusClient(NewHTTPClient(2*time.Second), dashboard, nil)
	require.NoError(t, err)
	return client
}

func TestNewStatusClientValidates(t *testing.T) {
	_, err := NewStatusClient(NewHTTPClient(time.Second), model.Dashboard{URL: "ftp://dash"}, nil)
	assert.Error(t, err)

	_, err = NewStatusClient(NewHTTPClient(time.Second), model.Dashboard{
		URL:  "https://dash",
		Auth: model.Auth{Type: "bearer"},
	}, nil)
	assert.Error(t, err)
}

func TestCheckActive(t *testing.T) {
	dash := testutil.NewFakeDashboard(t)
	client := newClient(t, model.Dashboard{URL: dash.URL()})

	_, err := client.CheckActive(context.Background())
	assert.ErrorIs(t, err, model.ErrNoActiveJob)

	dash.SetActive("abc")
	locator, err := client.CheckActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dash.URL()+"/status/abc", locator)

	dash.FailCheck(true)
	_, err = client.CheckActive(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNoActiveJob)
}

func TestSubmitAndFetch(t *testing.T) {
	dash := testutil.NewFakeDashboard(t)
	dash.OnSubmit(testutil.Progress(1, 4), testutil.Success(4, 4, "done"))
	client := newClient(t, model.Dashboard{URL: dash.URL()})

	locator, err := client.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dash.URL()+"/status/job-1", locator)

	status, err := client.Fetch(context.Background(), locator)
	require.NoError(t, err)
	assert.Equal(t, model.StateProgress, status.State)
	assert.Equal(t, 1, status.Current)
	assert.Equal(t, 4, status.Total)

	status, err = client.Fetch(context.Background(), locator)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", status.State)
	require.NotNil(t, status.Result)
	assert.Equal(t, "done", *status.Result)
}

func TestSubmitErrors(t *testing.T) {
	dash := testutil.NewFakeDashboard(t)
	client := newClient(t, model.Dashboard{URL: dash.URL()})

	dash.OmitLocation(true)
	_, err := client.Submit(context.Background())
	assert.ErrorIs(t, err, model.ErrMissingLocation)

	dash.FailSubmit(true)
	_, err = client.Submit(context.Background())
	assert.Error(t, err)
}

func TestFetchErrors(t *testing.T) {
	dash := testutil.NewFakeDashboard(t)
	client := newClient(t, model.Dashboard{URL: dash.URL()})

	_, err := client.Fetch(context.Background(), dash.URL()+"/status/unknown")
	assert.Error(t, err)

	dash.AddJob("abc", testutil.Progress(1, 2))
	dash.FailStatus(true)
	_, err = client.Fetch(context.Background(), dash.URL()+"/status/abc")
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := newClient(t, model.Dashboard{
		URL:           srv.URL,
		Auth:          model.Auth{Type: "bearer", Token: "secret"},
		SessionCookie: "session=xyz",
	})

	_, err := client.CheckActive(context.Background())
	assert.ErrorIs(t, err, model.ErrNoActiveJob)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "session=xyz", got.Get("Cookie"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
}

type stubStore struct {
	created  []*model.SessionRecord
	updates  int
	outcomes []model.SessionOutcome
	filter   bson.M
}

func (s *stubStore) Create(_ context.Context, record *model.SessionRecord) error {
	s.created = append(s.created, record)
	return nil
}

func (s *stubStore) UpdateProgress(context.Context, string, int, int, string, string) error {
	s.updates++
	return nil
}

func (s *stubStore) Finish(_ context.Context, _ string, _ int, outcome model.SessionOutcome) error {
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *stubStore) GetBySessionID(context.Context, string) (*model.SessionRecord, error) {
	return nil, model.ErrSessionNotFound
}

func (s *stubStore) List(_ context.Context, filter bson.M, _, _ int) ([]model.SessionRecord, int64, error) {
	s.filter = filter
	return []model.SessionRecord{{SessionID: "s1", Outcome: model.OutcomeCompleted}}, 1, nil
}

func TestHistoryDisabled(t *testing.T) {
	history := NewHistoryService(nil)
	session := model.PollSession{ID: "s1"}

	assert.False(t, history.Enabled())
	assert.NoError(t, history.Start(context.Background(), session))
	assert.NoError(t, history.Update(context.Background(), session, &model.JobStatus{}))
	assert.NoError(t, history.Finish(context.Background(), session, model.SessionOutcome{Outcome: model.OutcomeCompleted}))

	_, err := history.Get(context.Background(), "s1")
	assert.True(t, errors.Is(err, model.ErrHistoryDisabled))
	_, _, err = history.List(context.Background(), "", "", "", 1, 10)
	assert.ErrorIs(t, err, model.ErrHistoryDisabled)
}

func TestHistoryLifecycle(t *testing.T) {
	store := &stubStore{}
	history := NewHistoryService(store)
	session := model.PollSession{ID: "s1", Target: "progressbar", Origin: model.OriginTriggered}

	require.NoError(t, history.Start(context.Background(), session))
	require.NoError(t, history.Update(context.Background(), session, &model.JobStatus{State: model.StateProgress}))
	require.NoError(t, history.Finish(context.Background(), session, model.SessionOutcome{Outcome: model.OutcomeFailed}))

	require.Len(t, store.created, 1)
	assert.Equal(t, model.OutcomeRunning, store.created[0].Outcome)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, []model.SessionOutcome{{Outcome: model.OutcomeFailed}}, store.outcomes)

	_, err := history.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	summaries, total, err := history.List(context.Background(), "progressbar", "", "scheduled", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, bson.M{"target": "progressbar", "origin": "scheduled"}, store.filter)
}

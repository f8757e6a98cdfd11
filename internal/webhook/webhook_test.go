package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) model.RetryConfig {
	return model.RetryConfig{MaxAttempts: attempts, InitialDelayMs: 1, MaxDelayMs: 5, Multiplier: 2}
}

func TestBackoffDelay(t *testing.T) {
	b := NewBackoff(model.RetryConfig{})

	assert.Equal(t, 3, b.Attempts())
	assert.Equal(t, time.Duration(0), b.Delay(0))
	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(3))
	assert.Equal(t, 30*time.Second, b.Delay(10))
}

func TestBackoffRetryable(t *testing.T) {
	b := NewBackoff(model.RetryConfig{MaxAttempts: 3})
	transport := errors.New("connection refused")
	status := errors.New("bad status")

	assert.True(t, b.Retryable(1, 0, transport))
	assert.True(t, b.Retryable(1, 500, status))
	assert.True(t, b.Retryable(1, 503, status))
	assert.True(t, b.Retryable(1, 429, status))
	assert.True(t, b.Retryable(1, 302, status))
	assert.False(t, b.Retryable(1, 400, status))
	assert.False(t, b.Retryable(1, 404, status))
	assert.False(t, b.Retryable(3, 500, status))
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(2, 1, time.Minute)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.Failure()
	assert.Equal(t, BreakerClosed, cb.State())
	cb.Failure()
	assert.Equal(t, BreakerOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, BreakerHalfOpen, cb.State())

	cb.Failure()
	assert.Equal(t, BreakerOpen, cb.State())

	now = now.Add(time.Minute)
	require.True(t, cb.Allow())
	cb.Success()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestDispatcherRetriesThenDelivers(t *testing.T) {
	var calls int32
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, nil)
	wh := model.Webhook{URL: srv.URL, Method: "POST", Headers: map[string]string{"X-Token": "secret"}, RetryConfig: fastRetry(3)}
	payload := FormatNotification(model.Notification{Kind: model.NotificationError, Target: "progressbar", Message: "Unexpected error"})

	delivery, err := d.Send(context.Background(), wh, payload, "s1")
	require.NoError(t, err)

	assert.Equal(t, model.DeliveryDelivered, delivery.FinalStatus)
	assert.Equal(t, "s1", delivery.SessionID)
	assert.Equal(t, model.NotificationError, delivery.Kind)
	require.Len(t, delivery.Attempts, 2)
	assert.Equal(t, 503, delivery.Attempts[0].StatusCode)
	assert.Equal(t, 2, delivery.Attempts[1].AttemptNumber)
	assert.Equal(t, payload.Text, got.Text)
}

func TestDispatcherStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, nil)
	delivery, err := d.Send(context.Background(), model.Webhook{URL: srv.URL, RetryConfig: fastRetry(3)}, Payload{Text: "x"}, "")

	require.Error(t, err)
	assert.Equal(t, model.DeliveryFailed, delivery.FinalStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDispatcherOpenCircuitSkipsDelivery(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, NewCircuitBreaker(1, 1, time.Hour))
	wh := model.Webhook{URL: srv.URL, RetryConfig: fastRetry(2)}

	_, err := d.Send(context.Background(), wh, Payload{Text: "x"}, "")
	require.Error(t, err)
	assert.Equal(t, BreakerOpen, d.BreakerState())

	delivery, err := d.Send(context.Background(), wh, Payload{Text: "x"}, "")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Empty(t, delivery.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFormatNotification(t *testing.T) {
	p := FormatNotification(model.Notification{
		Kind:      model.NotificationOutcome,
		Target:    "progressbar",
		SessionID: "s1",
		Message:   "FAILURE, please try again.",
		State:     "FAILURE",
		Outcome:   model.OutcomeFailed,
	})

	assert.True(t, strings.HasPrefix(p.Text, "🚨"))
	assert.Contains(t, p.Text, "FAILURE, please try again.")
	assert.Equal(t, "warning", p.Metadata["severity"])
	assert.Equal(t, "failed", p.Details["outcome"])

	ok := FormatNotification(model.Notification{Kind: model.NotificationOutcome, Outcome: model.OutcomeCompleted, Message: "done"})
	assert.Equal(t, "info", ok.Metadata["severity"])
}

type memoryStore struct {
	mu   sync.Mutex
	logs []*model.DeliveryLog
}

func (m *memoryStore) Create(_ context.Context, d *model.DeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, d)
	return nil
}

func TestNotifierForwardsAndStores(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		texts = append(texts, p.Text)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := &memoryStore{}
	n := NewNotifier(NewDispatcher(time.Second, nil), &model.Webhook{URL: srv.URL, RetryConfig: fastRetry(1)}, false, store)

	n.Notify(context.Background(), model.Notification{Kind: model.NotificationError, Target: "progressbar", Message: "Unexpected error"})
	n.Notify(context.Background(), model.Notification{Kind: model.NotificationOutcome, Outcome: model.OutcomeCompleted, Message: "done"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Unexpected error")

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.logs, 1)
	assert.Equal(t, model.DeliveryDelivered, store.logs[0].FinalStatus)
}

func TestNotifierWithoutWebhook(t *testing.T) {
	n := NewNotifier(nil, nil, true, nil)
	n.Notify(context.Background(), model.Notification{Kind: model.NotificationError, Message: "Unexpected error"})
	require.NoError(t, n.Wait(context.Background()))
}

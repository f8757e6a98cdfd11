package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrCircuitOpen is returned when deliveries are suspended
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Dispatcher delivers payloads to a webhook with retry and a circuit breaker
type Dispatcher struct {
	httpClient *http.Client
	breaker    *CircuitBreaker
}

// NewDispatcher creates a dispatcher. A nil breaker gets the default thresholds.
func NewDispatcher(timeout time.Duration, breaker *CircuitBreaker) *Dispatcher {
	if breaker == nil {
		breaker = NewCircuitBreaker(0, 0, 0)
	}

	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breaker: breaker,
	}
}

// Send posts payload to the webhook, retrying per its retry configuration.
// The returned log records every attempt, even when delivery fails.
func (d *Dispatcher) Send(ctx context.Context, webhook model.Webhook, payload Payload, sessionID string) (*model.DeliveryLog, error) {
	delivery := &model.DeliveryLog{
		ID:          primitive.NewObjectID(),
		SessionID:   sessionID,
		WebhookURL:  webhook.URL,
		Text:        payload.Text,
		Attempts:    make([]model.DeliveryAttempt, 0),
		FinalStatus: model.DeliveryRetrying,
		CreatedAt:   time.Now().UTC(),
	}
	if kind, ok := payload.Metadata["kind"].(string); ok {
		delivery.Kind = kind
	}

	fail := func(err error) (*model.DeliveryLog, error) {
		delivery.FinalStatus = model.DeliveryFailed
		delivery.CompletedAt = time.Now().UTC()
		return delivery, err
	}

	if !d.breaker.Allow() {
		slog.Warn("Circuit breaker is open, skipping webhook delivery",
			"session_id", sessionID,
			"webhook_url", webhook.URL,
			"circuit_state", d.breaker.State().String(),
		)
		return fail(ErrCircuitOpen)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal payload: %w", err))
	}

	backoff := NewBackoff(webhook.RetryConfig)

	for attempt := 1; attempt <= backoff.Attempts(); attempt++ {
		result, err := d.deliver(ctx, webhook, body)
		result.AttemptNumber = attempt
		delivery.Attempts = append(delivery.Attempts, result)

		if err == nil {
			slog.Info("Webhook delivered",
				"session_id", sessionID,
				"webhook_url", webhook.URL,
				"attempt", attempt,
				"status_code", result.StatusCode,
			)
			delivery.FinalStatus = model.DeliveryDelivered
			delivery.CompletedAt = time.Now().UTC()
			d.breaker.Success()
			return delivery, nil
		}

		if !backoff.Retryable(attempt, result.StatusCode, err) {
			slog.Error("Webhook delivery failed",
				"session_id", sessionID,
				"webhook_url", webhook.URL,
				"attempt", attempt,
				"status_code", result.StatusCode,
				"error", result.Error,
			)
			d.breaker.Failure()
			return fail(fmt.Errorf("webhook delivery failed after %d attempts: %w", attempt, err))
		}

		delay := backoff.Delay(attempt)
		slog.Warn("Webhook delivery failed, retrying",
			"session_id", sessionID,
			"webhook_url", webhook.URL,
			"attempt", attempt,
			"next_retry_ms", delay.Milliseconds(),
			"error", result.Error,
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fail(ctx.Err())
		}
	}

	// Retryable never allows more than Attempts, so this is only reached
	// with a zero attempt budget.
	d.breaker.Failure()
	return fail(fmt.Errorf("webhook delivery failed after %d attempts", backoff.Attempts()))
}

// deliver performs one attempt
func (d *Dispatcher) deliver(ctx context.Context, webhook model.Webhook, body []byte) (model.DeliveryAttempt, error) {
	start := time.Now()
	attempt := model.DeliveryAttempt{Timestamp: start.UTC()}

	finish := func(err error) (model.DeliveryAttempt, error) {
		attempt.DurationMs = time.Since(start).Milliseconds()
		if err != nil && attempt.Error == "" {
			attempt.Error = err.Error()
		}
		return attempt, err
	}

	method := webhook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return finish(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range webhook.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return finish(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	// Only the head of the response is kept
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		slog.Warn("Failed to read webhook response body", "error", err)
	}

	attempt.StatusCode = resp.StatusCode
	attempt.ResponseBody = string(respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return finish(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}

	return finish(nil)
}

// BreakerState returns the circuit breaker state
func (d *Dispatcher) BreakerState() BreakerState {
	return d.breaker.State()
}

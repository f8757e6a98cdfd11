package webhook

import (
	"math"
	"net/http"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
)

// Backoff decides whether and when a failed delivery is retried
type Backoff struct {
	config model.RetryConfig
}

// NewBackoff creates a backoff from a retry configuration, filling defaults
func NewBackoff(config model.RetryConfig) *Backoff {
	config.SetDefaults()
	return &Backoff{
		config: config,
	}
}

// Delay returns the wait after the given failed attempt:
// min(initial * multiplier^(attempt-1), max)
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delayMs := float64(b.config.InitialDelayMs) * math.Pow(b.config.Multiplier, float64(attempt-1))
	if delayMs > float64(b.config.MaxDelayMs) {
		delayMs = float64(b.config.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// Retryable reports whether another attempt should follow a failed one
func (b *Backoff) Retryable(attempt int, statusCode int, err error) bool {
	if attempt >= b.config.MaxAttempts {
		return false
	}

	switch {
	case err != nil && statusCode == 0:
		// transport error
		return true
	case statusCode == http.StatusTooManyRequests:
		return true
	case statusCode >= 500:
		return true
	case statusCode >= 400:
		return false
	case statusCode >= 300:
		return true
	}

	return false
}

// Attempts returns the maximum number of attempts
func (b *Backoff) Attempts() int {
	return b.config.MaxAttempts
}

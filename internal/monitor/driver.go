package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
)

// DefaultPollInterval is the fixed delay between a processed poll and the next request
const DefaultPollInterval = 2 * time.Second

// Fetcher retrieves one status snapshot from a status locator
type Fetcher interface {
	Fetch(ctx context.Context, statusURL string) (*model.JobStatus, error)
}

// Effects receives what a driven session does
type Effects struct {
	// Render applies a command. Returning false means the session no longer
	// owns its target and must stop.
	Render func(RenderCommand) bool
	// Polled is called after every processed, unlocked status snapshot
	Polled func(session model.PollSession, status *model.JobStatus)
}

// Result is how a driven session ended
type Result struct {
	Session model.PollSession
	Outcome model.SessionOutcome
}

// Driver re-invokes Step with a fixed delay while a session is polling
type Driver struct {
	fetcher     Fetcher
	interval    time.Duration
	maxDuration time.Duration
	maxFailures int
	now         func() time.Time
}

// NewDriver creates a driver. A zero maxDuration or maxFailures means unbounded.
func NewDriver(fetcher Fetcher, interval, maxDuration time.Duration, maxFailures int) *Driver {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Driver{
		fetcher:     fetcher,
		interval:    interval,
		maxDuration: maxDuration,
		maxFailures: maxFailures,
		now:         time.Now,
	}
}

// Interval returns the delay between polls
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Run polls session.StatusURL until a terminal state, a locked response,
// cancellation, or an exhausted failure/time budget. When first is non-nil
// it is processed before any request is made. The next request is only
// scheduled after the previous response has been processed, so requests for
// one session never overlap.
func (d *Driver) Run(ctx context.Context, session model.PollSession, first *model.JobStatus, fx Effects) Result {
	var deadline time.Time
	if d.maxDuration > 0 {
		deadline = session.StartedAt.Add(d.maxDuration)
	}

	failures := 0
	status := first

	for {
		if status == nil {
			fetched, err := d.fetcher.Fetch(ctx, session.StatusURL)
			if err != nil {
				if ctx.Err() != nil {
					return cancelled(session)
				}

				failures++
				slog.Warn("Status poll failed",
					"session_id", session.ID,
					"status_url", session.StatusURL,
					"consecutive_failures", failures,
					"error", err,
				)

				if d.maxFailures > 0 && failures >= d.maxFailures {
					return d.giveUp(session, fx, model.OutcomeFailed, "ERROR")
				}
			} else {
				status = fetched
			}
		}

		if status != nil {
			failures = 0
			t := Step(session, *status)
			session = t.Last

			slog.Debug("Processed job status",
				"session_id", session.ID,
				"state", status.State,
				"percent", session.LastPercent,
				"phase", t.Phase.String(),
			)

			if !status.Locked && fx.Polled != nil {
				fx.Polled(session, status)
			}
			status = nil

			for _, cmd := range t.Renders {
				if !fx.Render(cmd) {
					return superseded(session)
				}
			}

			if t.Phase != model.PhasePolling {
				return Result{Session: session, Outcome: t.Outcome}
			}
		}

		if !deadline.IsZero() && !d.now().Before(deadline) {
			return d.giveUp(session, fx, model.OutcomeTimedOut, "TIMEOUT")
		}

		timer := time.NewTimer(d.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return cancelled(session)
		case <-timer.C:
		}
	}
}

// giveUp ends a session that stopped for a client-side reason
func (d *Driver) giveUp(session model.PollSession, fx Effects, outcome model.Outcome, state string) Result {
	message := model.RetryMessage(state)
	if !fx.Render(RenderCommand{Kind: RenderMessage, Text: message}) {
		return superseded(session)
	}

	slog.Warn("Stopped polling",
		"session_id", session.ID,
		"outcome", outcome,
		"polls", session.Polls,
	)

	return Result{
		Session: session,
		Outcome: model.SessionOutcome{Outcome: outcome, State: state, Message: message},
	}
}

func cancelled(session model.PollSession) Result {
	return Result{Session: session, Outcome: model.SessionOutcome{Outcome: model.OutcomeCancelled}}
}

func superseded(session model.PollSession) Result {
	return Result{Session: session, Outcome: model.SessionOutcome{Outcome: model.OutcomeSuperseded}}
}

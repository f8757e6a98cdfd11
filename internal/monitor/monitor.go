package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/render"
	"github.com/google/uuid"
)

const finishTimeout = 5 * time.Second

// Client is the dashboard side of the monitor
type Client interface {
	Fetcher
	CheckActive(ctx context.Context) (string, error)
	Submit(ctx context.Context) (string, error)
}

// Notifier surfaces user-facing events
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Recorder keeps a history of sessions. Implemented by service.HistoryService.
type Recorder interface {
	Start(ctx context.Context, session model.PollSession) error
	Update(ctx context.Context, session model.PollSession, status *model.JobStatus) error
	Finish(ctx context.Context, session model.PollSession, outcome model.SessionOutcome) error
}

// Config holds the polling settings of a monitor
type Config struct {
	Target       string
	PollInterval time.Duration
	MaxDuration  time.Duration
	MaxFailures  int
}

// run is one launched session and its lifecycle
type run struct {
	session model.PollSession
	cancel  context.CancelFunc
	done    chan struct{}
	outcome model.SessionOutcome
}

// RefreshMonitor observes the dashboard's refresh job and keeps one render
// target in sync with it. At most one session drives the target at a time;
// starting a new one cancels the previous one.
type RefreshMonitor struct {
	client   Client
	sink     render.Sink
	driver   *Driver
	notifier Notifier
	recorder Recorder
	target   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	gen     uint64
	phase   model.Phase
	active  *run
	last    *run
	stopped bool
}

// New creates a monitor. notifier and recorder may be nil.
func New(client Client, sink render.Sink, cfg Config, notifier Notifier, recorder Recorder) *RefreshMonitor {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RefreshMonitor{
		client:   client,
		sink:     sink,
		driver:   NewDriver(client, cfg.PollInterval, cfg.MaxDuration, cfg.MaxFailures),
		notifier: notifier,
		recorder: recorder,
		target:   cfg.Target,
		ctx:      ctx,
		cancel:   cancel,
		phase:    model.PhaseIdle,
	}
}

// Target returns the name of the render target
func (m *RefreshMonitor) Target() string {
	return m.target
}

// StartOrDiscover asks the dashboard whether a refresh is already running
// and, if one is in progress, starts observing it. It returns the started
// session or nil when nothing was started.
func (m *RefreshMonitor) StartOrDiscover(ctx context.Context) *model.PollSession {
	session, _ := m.Discover(ctx)
	return session
}

// Discover is StartOrDiscover with the failure surfaced. A nil session with
// a nil error means no refresh is in progress; a check or fetch failure is
// notified and returned.
func (m *RefreshMonitor) Discover(ctx context.Context) (*model.PollSession, error) {
	locator, err := m.client.CheckActive(ctx)
	if errors.Is(err, model.ErrNoActiveJob) {
		slog.Info("No refresh in progress", "target", m.target)
		return nil, nil
	}
	if err != nil {
		m.notifyError(ctx, "", err)
		return nil, err
	}

	if s, ok := m.Active(); ok && s.StatusURL == locator {
		slog.Debug("Refresh already observed", "session_id", s.ID, "status_url", locator)
		return &s, nil
	}

	status, err := m.client.Fetch(ctx, locator)
	if err != nil {
		m.notifyError(ctx, "", err)
		return nil, err
	}

	if status.State != model.StateProgress {
		slog.Info("Reported refresh is not in progress",
			"status_url", locator,
			"state", status.State,
		)
		return nil, nil
	}

	gen, ok := m.claim()
	if !ok {
		return nil, nil
	}

	return m.launch(gen, model.OriginDiscovered, locator, status), nil
}

// TriggerRefresh submits a new refresh on behalf of the user and observes it
func (m *RefreshMonitor) TriggerRefresh(ctx context.Context) *model.PollSession {
	return m.Trigger(ctx, model.OriginTriggered)
}

// Trigger submits a new refresh and observes it. The target is reset to an
// empty indicator before the submission is sent.
func (m *RefreshMonitor) Trigger(ctx context.Context, origin model.Origin) *model.PollSession {
	gen, ok := m.claim()
	if !ok {
		return nil
	}

	locator, err := m.client.Submit(ctx)
	if err != nil {
		m.release(gen)
		m.notifyError(ctx, "", err)
		return nil
	}

	slog.Info("Refresh submitted", "target", m.target, "origin", origin, "status_url", locator)

	return m.launch(gen, origin, locator, nil)
}

// Active returns the session currently driving the target
func (m *RefreshMonitor) Active() (model.PollSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return model.PollSession{}, false
	}
	return m.active.session, true
}

// Phase returns the monitor state of the target
func (m *RefreshMonitor) Phase() model.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Wait blocks until the active session finishes and returns its outcome.
// With no active session it returns the outcome of the last finished one.
func (m *RefreshMonitor) Wait(ctx context.Context) (model.SessionOutcome, error) {
	m.mu.Lock()
	r := m.active
	if r == nil {
		r = m.last
	}
	m.mu.Unlock()

	if r == nil {
		return model.SessionOutcome{}, model.ErrNoActiveJob
	}

	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return model.SessionOutcome{}, ctx.Err()
	}
}

// Stop cancels any active session and waits for it to wind down
func (m *RefreshMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.cancel()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Refresh monitor stopped", "target", m.target)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// claim takes ownership of the target for a new session: the previous
// session is cancelled and the target shows an empty indicator.
func (m *RefreshMonitor) claim() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return 0, false
	}

	if m.active != nil {
		slog.Info("Superseding session", "session_id", m.active.session.ID)
		m.active.cancel()
		m.active = nil
	}

	m.gen++
	m.phase = model.PhasePolling
	m.sink.Reset()
	m.sink.ShowProgress(0)

	return m.gen, true
}

// release clears the target after a claim that never produced a session
func (m *RefreshMonitor) release(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	m.phase = model.PhaseIdle
	m.sink.Reset()
}

func (m *RefreshMonitor) launch(gen uint64, origin model.Origin, locator string, first *model.JobStatus) *model.PollSession {
	session := model.PollSession{
		ID:         uuid.New().String(),
		StatusURL:  locator,
		Target:     m.target,
		Origin:     origin,
		StartedAt:  time.Now().UTC(),
		Generation: gen,
	}

	ctx, cancel := context.WithCancel(m.ctx)
	r := &run{
		session: session,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		cancel()
		slog.Info("Session superseded before polling started", "status_url", locator)
		return nil
	}
	m.active = r
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.recorder.Start(ctx, session); err != nil {
		slog.Warn("Failed to record session start", "session_id", session.ID, "error", err)
	}

	slog.Info("Polling refresh status",
		"session_id", session.ID,
		"target", m.target,
		"origin", origin,
		"status_url", locator,
		"interval", m.driver.Interval(),
	)

	go m.drive(ctx, r, first)

	return &session
}

func (m *RefreshMonitor) drive(ctx context.Context, r *run, first *model.JobStatus) {
	defer m.wg.Done()
	defer r.cancel()

	gen := r.session.Generation
	result := m.driver.Run(ctx, r.session, first, Effects{
		Render: func(cmd RenderCommand) bool {
			return m.render(gen, cmd)
		},
		Polled: func(session model.PollSession, status *model.JobStatus) {
			m.mu.Lock()
			if m.active == r {
				r.session = session
			}
			m.mu.Unlock()

			if err := m.recorder.Update(ctx, session, status); err != nil {
				slog.Warn("Failed to record poll", "session_id", session.ID, "error", err)
			}
		},
	})

	m.finish(r, result)
}

// render applies cmd only while gen still owns the target
func (m *RefreshMonitor) render(gen uint64, cmd RenderCommand) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return false
	}
	cmd.apply(m.sink)
	return true
}

func (m *RefreshMonitor) finish(r *run, result Result) {
	outcome := result.Outcome

	m.mu.Lock()
	current := r.session.Generation == m.gen
	if outcome.Outcome == model.OutcomeCancelled && !current {
		outcome.Outcome = model.OutcomeSuperseded
	}
	if m.active == r {
		m.active = nil
		switch outcome.Outcome {
		case model.OutcomeCompleted, model.OutcomeFailed, model.OutcomeTimedOut:
			m.phase = model.PhaseTerminal
		default:
			m.phase = model.PhaseIdle
		}
	}
	r.session = result.Session
	r.outcome = outcome
	if current {
		m.last = r
	}
	m.mu.Unlock()

	slog.Info("Session finished",
		"session_id", result.Session.ID,
		"outcome", outcome.Outcome,
		"state", outcome.State,
		"polls", result.Session.Polls,
		"percent", result.Session.LastPercent,
	)

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := m.recorder.Finish(ctx, result.Session, outcome); err != nil {
		slog.Warn("Failed to record session outcome", "session_id", result.Session.ID, "error", err)
	}

	if current && isTerminal(outcome.Outcome) {
		m.notifier.Notify(ctx, model.Notification{
			Kind:      model.NotificationOutcome,
			Target:    m.target,
			SessionID: result.Session.ID,
			Message:   outcome.Message,
			State:     outcome.State,
			Outcome:   outcome.Outcome,
		})
	}

	close(r.done)
}

func (m *RefreshMonitor) notifyError(ctx context.Context, sessionID string, err error) {
	slog.Error("Dashboard request failed", "target", m.target, "error", err)

	m.notifier.Notify(ctx, model.Notification{
		Kind:      model.NotificationError,
		Target:    m.target,
		SessionID: sessionID,
		Message:   model.UnexpectedErrorMessage,
		Detail:    err.Error(),
	})
}

func isTerminal(o model.Outcome) bool {
	switch o {
	case model.OutcomeCompleted, model.OutcomeFailed, model.OutcomeTimedOut:
		return true
	}
	return false
}

// LogNotifier writes notifications to the default logger
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n model.Notification) {
	level := slog.LevelInfo
	if n.Kind == model.NotificationError {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, n.Message,
		"kind", n.Kind,
		"target", n.Target,
		"session_id", n.SessionID,
		"detail", n.Detail,
	)
}

type nopRecorder struct{}

func (nopRecorder) Start(context.Context, model.PollSession) error { return nil }
func (nopRecorder) Update(context.Context, model.PollSession, *model.JobStatus) error {
	return nil
}
func (nopRecorder) Finish(context.Context, model.PollSession, model.SessionOutcome) error {
	return nil
}

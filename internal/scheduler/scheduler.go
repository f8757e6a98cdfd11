package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// LockName is the distributed lock guarding scheduled refresh submissions
const LockName = "scheduled-refresh"

// Trigger submits a refresh and starts observing it
type Trigger interface {
	Trigger(ctx context.Context, origin model.Origin) *model.PollSession
}

// Locker arbitrates scheduled submissions between instances. Implemented by
// database.LockRepository.
type Locker interface {
	AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseAllLocks(ctx context.Context, owner string) error
}

// Scheduler submits refreshes on a cron schedule. With a Locker, only one
// instance submits per firing: the lock is kept until its TTL expires, so
// the TTL must be shorter than the schedule period.
type Scheduler struct {
	cron       *cron.Cron
	entry      cron.EntryID
	trigger    Trigger
	locker     Locker
	spec       string
	lockTTL    time.Duration
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a scheduler for a five-field cron expression or a descriptor
// such as @hourly. locker may be nil for a single instance.
func New(spec string, lockTTL time.Duration, trigger Trigger, locker Locker) (*Scheduler, error) {
	// Get instance identifier (hostname in Kubernetes)
	instanceID, err := os.Hostname()
	if err != nil || instanceID == "" {
		instanceID = uuid.New().String()
		slog.Warn("Failed to get hostname, using UUID as instance ID", "instance_id", instanceID)
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       c,
		trigger:    trigger,
		locker:     locker,
		spec:       spec,
		lockTTL:    lockTTL,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}

	entry, err := c.AddFunc(spec, func() { s.Fire(s.ctx) })
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule '%s': %w", spec, err)
	}
	s.entry = entry

	return s, nil
}

// Start begins firing on schedule
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"instance_id", s.instanceID,
		"schedule", s.spec,
		"lock_ttl", s.lockTTL,
		"distributed_lock", s.locker != nil,
	)
	s.cron.Start()
	slog.Info("Next scheduled refresh", "at", s.Next().Format(time.RFC3339))
}

// Stop stops the schedule and waits for a running firing to return
func (s *Scheduler) Stop(ctx context.Context) {
	slog.Info("Stopping scheduler", "instance_id", s.instanceID)

	stopped := s.cron.Stop()
	s.cancel()

	select {
	case <-stopped.Done():
		slog.Info("Scheduled firings completed")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for scheduled firing to complete")
	}

	if s.locker != nil {
		if err := s.locker.ReleaseAllLocks(context.Background(), s.instanceID); err != nil {
			slog.Error("Failed to release locks during shutdown", "error", err)
		}
	}

	slog.Info("Scheduler stopped", "instance_id", s.instanceID)
}

// Next returns the next firing time, or zero before Start
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// InstanceID returns the lock owner name of this instance
func (s *Scheduler) InstanceID() string {
	return s.instanceID
}

// Fire runs one scheduled submission. It reports whether a refresh was submitted.
func (s *Scheduler) Fire(ctx context.Context) bool {
	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, LockName, s.instanceID, s.lockTTL)
		if err != nil {
			slog.Error("Failed to acquire lock", "lock", LockName, "error", err)
			return false
		}
		if !acquired {
			slog.Debug("Lock already held by another instance", "lock", LockName)
			return false
		}
		slog.Info("Acquired lock for scheduled refresh", "lock", LockName, "instance_id", s.instanceID)
	}

	session := s.trigger.Trigger(ctx, model.OriginScheduled)
	if session == nil {
		slog.Warn("Scheduled refresh was not started", "instance_id", s.instanceID)
		return false
	}

	slog.Info("Scheduled refresh started",
		"session_id", session.ID,
		"status_url", session.StatusURL,
		"instance_id", s.instanceID,
	)
	return true
}

// cronLogger routes cron's own logging to slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

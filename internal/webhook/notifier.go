package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
)

const deliveryTimeout = 2 * time.Minute

// DeliveryStore persists delivery logs. Implemented by database.DeliveryRepository.
type DeliveryStore interface {
	Create(ctx context.Context, delivery *model.DeliveryLog) error
}

// Notifier logs every monitor notification and forwards it to a webhook
// when one is configured. Outcome notifications are only forwarded when
// notifyOutcomes is set. Deliveries run in the background.
type Notifier struct {
	dispatcher     *Dispatcher
	webhook        *model.Webhook
	notifyOutcomes bool
	store          DeliveryStore
	wg             sync.WaitGroup
}

// NewNotifier creates a notifier. webhook and store may be nil.
func NewNotifier(dispatcher *Dispatcher, webhook *model.Webhook, notifyOutcomes bool, store DeliveryStore) *Notifier {
	return &Notifier{
		dispatcher:     dispatcher,
		webhook:        webhook,
		notifyOutcomes: notifyOutcomes,
		store:          store,
	}
}

// Notify records n and schedules its delivery
func (n *Notifier) Notify(ctx context.Context, msg model.Notification) {
	level := slog.LevelInfo
	if msg.Kind == model.NotificationError {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "Refresh notification",
		"kind", msg.Kind,
		"target", msg.Target,
		"session_id", msg.SessionID,
		"message", msg.Message,
		"detail", msg.Detail,
		"outcome", msg.Outcome,
	)

	if n.webhook == nil || n.dispatcher == nil {
		return
	}
	if msg.Kind == model.NotificationOutcome && !n.notifyOutcomes {
		return
	}

	payload := FormatNotification(msg)
	webhook := *n.webhook

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		delivery, err := n.dispatcher.Send(deliverCtx, webhook, payload, msg.SessionID)
		if err != nil {
			slog.Error("Notification not delivered", "session_id", msg.SessionID, "error", err)
		}

		if n.store != nil && delivery != nil {
			if err := n.store.Create(deliverCtx, delivery); err != nil {
				slog.Error("Failed to save delivery log", "session_id", msg.SessionID, "error", err)
			}
		}
	}()
}

// Wait blocks until pending deliveries finish or ctx is done
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

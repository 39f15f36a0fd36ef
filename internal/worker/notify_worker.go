package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastapp/internal/amqp"
	"gastapp/internal/cache"
	"gastapp/internal/core"
)

// Dispatcher delivers a rendered notification to a user. The default
// implementation logs; a push gateway can be slotted in without
// touching the worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, title, body string) error
}

// LogDispatcher writes notifications to the structured log.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, userID int64, title, body string) error {
	slog.InfoContext(ctx, "Notification dispatched",
		"user_id", userID,
		"title", title,
		"body", body)
	return nil
}

// NotifyWorker turns budget alert messages into user notifications.
// Deliveries can repeat after a requeue, so processed event IDs are
// remembered for a while and duplicates dropped.
type NotifyWorker struct {
	dispatcher Dispatcher
	seen       *cache.LRUCache[struct{}]
}

func NewNotifyWorker(dispatcher Dispatcher) *NotifyWorker {
	return &NotifyWorker{
		dispatcher: dispatcher,
		seen:       cache.NewLRUCache[struct{}](4096, time.Hour),
	}
}

// HandleAlert renders and dispatches one alert. A non-nil error causes
// the delivery to be requeued by the consumer.
func (w *NotifyWorker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.EventID != "" {
		if _, dup := w.seen.Get(msg.EventID); dup {
			slog.InfoContext(ctx, "Skipping duplicate alert", "event_id", msg.EventID)
			return nil
		}
	}

	title, body, err := renderAlert(msg)
	if err != nil {
		// Undeliverable by construction; do not requeue forever.
		slog.ErrorContext(ctx, "Dropping malformed alert",
			"event_id", msg.EventID,
			"kind", msg.Kind,
			"error", err)
		return nil
	}

	if err := w.dispatcher.Dispatch(ctx, msg.UserID, title, body); err != nil {
		return fmt.Errorf("dispatch alert %s: %w", msg.EventID, err)
	}

	if msg.EventID != "" {
		w.seen.Set(msg.EventID, struct{}{})
	}
	return nil
}

// renderAlert produces the user-facing Spanish texts.
func renderAlert(msg *amqp.BudgetAlertMessage) (title, body string, err error) {
	budget := core.Money{Cents: msg.BudgetAmountCents}
	amount := core.Money{Cents: msg.AmountCents}

	switch msg.Kind {
	case amqp.KindNearLimit:
		title = "Presupuesto casi agotado"
		body = fmt.Sprintf("Te quedan %s € del presupuesto de %s € en %s.",
			amount, budget, msg.CategoryName)
	case amqp.KindExceeded:
		title = "Presupuesto superado"
		body = fmt.Sprintf("Has superado en %s € el presupuesto de %s € en %s.",
			amount, budget, msg.CategoryName)
	default:
		return "", "", fmt.Errorf("unknown alert kind %q", msg.Kind)
	}
	return title, body, nil
}

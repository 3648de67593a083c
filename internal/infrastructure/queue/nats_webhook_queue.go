// Package queue holds the NATS-backed webhook processing queue that
// decouples ingestion from processing.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// Compile-time check
var _ ports.WebhookQueue = (*NATSWebhookQueue)(nil)

// NATSWebhookQueue publishes webhook event ids on a fixed subject and
// lets the processor's subscription pull them off one at a time.
// Delayed re-enqueues (exponential-backoff retries) are implemented
// with a local timer rather than a NATS-native delay feature, since
// core NATS pub/sub has none.
type NATSWebhookQueue struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSWebhookQueue creates a new NATSWebhookQueue.
func NewNATSWebhookQueue(conn *nats.Conn, subject string, logger *slog.Logger) *NATSWebhookQueue {
	return &NATSWebhookQueue{conn: conn, subject: subject, logger: logger}
}

type queuedEvent struct {
	EventID uuid.UUID `json:"event_id"`
}

// Enqueue schedules a webhook event for processing, optionally after a
// delay used for exponential-backoff retries.
func (q *NATSWebhookQueue) Enqueue(ctx context.Context, eventID uuid.UUID, delay time.Duration) error {
	publish := func() error {
		payload, err := json.Marshal(queuedEvent{EventID: eventID})
		if err != nil {
			return fmt.Errorf("failed to marshal queued event: %w", err)
		}
		return q.conn.Publish(q.subject, payload)
	}

	if delay <= 0 {
		if err := publish(); err != nil {
			return fmt.Errorf("failed to publish webhook event: %w", err)
		}
		return nil
	}

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := publish(); err != nil {
				q.logger.Error("delayed webhook re-enqueue failed", "event_id", eventID, "error", err)
			}
		case <-ctx.Done():
			q.logger.Warn("delayed webhook re-enqueue abandoned, context cancelled", "event_id", eventID)
		}
	}()

	return nil
}

// Subscribe registers handler to run for each event id published on
// the subject, then blocks until ctx is cancelled. Handler errors are
// logged; the NATS delivery itself is at-most-once per subscriber, so
// retry is handled entirely at the WebhookEvent/retry-count level
// above this queue, not here.
func (q *NATSWebhookQueue) Subscribe(ctx context.Context, handler func(ctx context.Context, eventID uuid.UUID) error) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		var event queuedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			q.logger.Error("failed to unmarshal queued webhook event", "error", err)
			return
		}
		if err := handler(ctx, event.EventID); err != nil {
			q.logger.Error("webhook handler failed", "event_id", event.EventID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to webhook subject: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		_ = sub.Unsubscribe()
	}
	return nil
}

// Package ports - the domain event publishing contract.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/domain/events"
)

// EventPublisher publishes domain events.
//
// Delivery is at-least-once: consumers must be idempotent. The
// production implementation is the transactional outbox
// (postgres.OutboxRepository): Publish from a use case writes the
// event into the same DB transaction as the business change, and the
// relay carries it out.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch publishes a set of events; the whole batch or
	// nothing.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventRelay carries one durable outbox event onto the bus. It is
// the consuming side of the Transactional Outbox:
// RelayOutboxEventsUseCase drains FindUnpublished through Relay and
// marks the result.
type EventRelay interface {
	Relay(ctx context.Context, event events.DomainEvent) error
}

// OutboxRepository is the Transactional Outbox store.
//
// Save runs in the same DB transaction as the business write: if the
// transaction rolled back there is no event; if it committed the
// relay is guaranteed to publish the event eventually (possibly not
// on the first attempt).
type OutboxRepository interface {
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished returns the next unpublished events for the relay.
	FindUnpublished(ctx context.Context, limit int) ([]events.DomainEvent, error)

	// MarkPublished records a successful publish.
	MarkPublished(ctx context.Context, eventID string) error

	// MarkFailed records a failed attempt with its reason.
	MarkFailed(ctx context.Context, eventID string, reason string) error

	// MarkForRetry moves a failed event back to PENDING until the
	// attempt limit is exhausted.
	MarkForRetry(ctx context.Context, eventID string) error

	// FindFailedRetryable returns ids of FAILED events with attempts left.
	FindFailedRetryable(ctx context.Context, limit int) ([]uuid.UUID, error)

	// CleanupPublished deletes published events older than olderThan.
	CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

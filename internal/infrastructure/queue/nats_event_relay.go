package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/events"
)

// Compile-time check
var _ ports.EventRelay = (*NATSEventRelay)(nil)

// payloadCarrier is satisfied by the outbox's deserialized events,
// which carry the raw JSON the write-side serialized - republishing
// it verbatim avoids re-marshaling a partially-typed event.
type payloadCarrier interface {
	Payload() []byte
}

// NATSEventRelay is the consumer side of the transactional outbox: it
// publishes a durable outbox row onto NATS under
// "<subjectPrefix>.<event_type>", e.g. "paybridge.events.wallet.credited".
// Published here does not mean delivered - NATS core pub/sub is
// at-most-once per subscriber, so any downstream consumer that needs
// durability subscribes with its own queue group and tracks its own
// offsets; the outbox's job ends at "left the database reliably".
type NATSEventRelay struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// NewNATSEventRelay creates a new NATSEventRelay.
func NewNATSEventRelay(conn *nats.Conn, subjectPrefix string, logger *slog.Logger) *NATSEventRelay {
	return &NATSEventRelay{conn: conn, subjectPrefix: subjectPrefix, logger: logger}
}

// Relay publishes event onto NATS. It prefers the original payload
// bytes captured when the event was first serialized into the outbox;
// only freshly-raised events (which implementations never pass here)
// would need to fall back to re-marshaling.
func (r *NATSEventRelay) Relay(ctx context.Context, event events.DomainEvent) error {
	var body []byte
	if carrier, ok := event.(payloadCarrier); ok {
		body = carrier.Payload()
	} else {
		marshaled, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event for relay: %w", err)
		}
		body = marshaled
	}

	subject := r.subjectPrefix + "." + event.EventType()
	if err := r.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("failed to publish event to nats: %w", err)
	}
	return nil
}

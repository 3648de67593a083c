package maintenance

import (
	"context"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// RelayOutboxEventsUseCase drains PENDING rows out of the transactional
// outbox and publishes each onto the message bus, the consumer side
// of the pattern whose write side (OutboxRepository.Save) runs inside
// every use case's database transaction. A publish failure marks the
// row FAILED rather than leaving it PENDING forever, so a poisoned
// event cannot wedge the whole relay; RetryFailedOutboxEventsUseCase
// gives it another chance later.
type RelayOutboxEventsUseCase struct {
	outboxRepo ports.OutboxRepository
	relay      ports.EventRelay
	batchSize  int
}

// NewRelayOutboxEventsUseCase creates a new use case.
func NewRelayOutboxEventsUseCase(outboxRepo ports.OutboxRepository, relay ports.EventRelay, batchSize int) *RelayOutboxEventsUseCase {
	return &RelayOutboxEventsUseCase{outboxRepo: outboxRepo, relay: relay, batchSize: batchSize}
}

// Execute relays one batch of unpublished events and returns how many
// were relayed successfully.
func (uc *RelayOutboxEventsUseCase) Execute(ctx context.Context) (int, error) {
	pending, err := uc.outboxRepo.FindUnpublished(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load unpublished outbox events: %w", err)
	}

	var relayed int
	for _, event := range pending {
		eventID := event.EventID().String()

		if err := uc.relay.Relay(ctx, event); err != nil {
			_ = uc.outboxRepo.MarkFailed(ctx, eventID, err.Error())
			continue
		}
		if err := uc.outboxRepo.MarkPublished(ctx, eventID); err != nil {
			continue
		}
		relayed++
	}

	return relayed, nil
}

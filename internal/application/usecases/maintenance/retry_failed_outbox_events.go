package maintenance

import (
	"context"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// RetryFailedOutboxEventsUseCase scans for FAILED outbox rows that
// have not exhausted their retry budget and moves them back to
// PENDING, where the next RelayOutboxEventsUseCase tick picks them up
// again. Kept separate from the relay itself so a transient NATS
// outage doesn't retry in a tight loop against the same connection.
type RetryFailedOutboxEventsUseCase struct {
	outboxRepo ports.OutboxRepository
	scanLimit  int
}

// NewRetryFailedOutboxEventsUseCase creates a new use case.
func NewRetryFailedOutboxEventsUseCase(outboxRepo ports.OutboxRepository, scanLimit int) *RetryFailedOutboxEventsUseCase {
	return &RetryFailedOutboxEventsUseCase{outboxRepo: outboxRepo, scanLimit: scanLimit}
}

// Execute requeues retryable FAILED events and returns how many were
// requeued.
func (uc *RetryFailedOutboxEventsUseCase) Execute(ctx context.Context) (int, error) {
	ids, err := uc.outboxRepo.FindFailedRetryable(ctx, uc.scanLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to scan for retryable outbox events: %w", err)
	}

	var requeued int
	for _, id := range ids {
		if err := uc.outboxRepo.MarkForRetry(ctx, id.String()); err != nil {
			continue
		}
		requeued++
	}

	return requeued, nil
}

package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// CleanupOutboxUseCase deletes PUBLISHED outbox rows older than the
// configured retention window, bounding the table's growth now that
// the relay actually marks rows PUBLISHED.
type CleanupOutboxUseCase struct {
	outboxRepo ports.OutboxRepository
	retention  time.Duration
}

// NewCleanupOutboxUseCase creates a new use case.
func NewCleanupOutboxUseCase(outboxRepo ports.OutboxRepository, retention time.Duration) *CleanupOutboxUseCase {
	return &CleanupOutboxUseCase{outboxRepo: outboxRepo, retention: retention}
}

// Execute purges published outbox events older than the retention
// window and returns the number of rows removed.
func (uc *CleanupOutboxUseCase) Execute(ctx context.Context) (int64, error) {
	purged, err := uc.outboxRepo.CleanupPublished(ctx, uc.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup published outbox events: %w", err)
	}
	return purged, nil
}

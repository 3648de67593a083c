// Package maintenance holds periodic housekeeping use cases invoked by
// the cron scheduler rather than any HTTP surface.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/paybridge/ledgercore/internal/application/ports"
)

// PurgeWebhookEventsUseCase deletes PROCESSED webhook events older than
// the configured retention window. FAILED rows are never touched, so a
// permanently failed delivery stays visible for investigation.
type PurgeWebhookEventsUseCase struct {
	webhookEventRepo ports.WebhookEventRepository
	retention        time.Duration
}

// NewPurgeWebhookEventsUseCase creates a new use case.
func NewPurgeWebhookEventsUseCase(webhookEventRepo ports.WebhookEventRepository, retention time.Duration) *PurgeWebhookEventsUseCase {
	return &PurgeWebhookEventsUseCase{webhookEventRepo: webhookEventRepo, retention: retention}
}

// Execute purges PROCESSED webhook events older than the retention
// window and returns the number of rows removed.
func (uc *PurgeWebhookEventsUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-uc.retention)

	purged, err := uc.webhookEventRepo.PurgeProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge processed webhook events: %w", err)
	}
	return purged, nil
}

// Package scheduler runs periodic maintenance jobs with robfig/cron.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/application/usecases/kyc"
	"github.com/paybridge/ledgercore/internal/application/usecases/maintenance"
)

// Scheduler owns the cron process for background housekeeping: purging
// stale processed webhook events, expiring KYC verifications past
// their validity window, re-enqueueing webhook events stuck in
// PENDING (an enqueue that failed after the durable insert, or a
// delayed backoff retry lost to a restart), and draining the
// transactional outbox onto the message bus.
type Scheduler struct {
	purgeWebhookEvents *maintenance.PurgeWebhookEventsUseCase
	expireKYC          *kyc.ExpireUseCase
	relayOutboxEvents  *maintenance.RelayOutboxEventsUseCase
	retryFailedOutbox  *maintenance.RetryFailedOutboxEventsUseCase
	cleanupOutbox      *maintenance.CleanupOutboxUseCase
	userRepo           ports.UserRepository
	webhookEventRepo   ports.WebhookEventRepository
	webhookQueue       ports.WebhookQueue
	expireScanLimit    int
	retryScanLimit     int
	cron               *cron.Cron
	logger             *slog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	purgeWebhookEvents *maintenance.PurgeWebhookEventsUseCase,
	expireKYC *kyc.ExpireUseCase,
	relayOutboxEvents *maintenance.RelayOutboxEventsUseCase,
	retryFailedOutbox *maintenance.RetryFailedOutboxEventsUseCase,
	cleanupOutbox *maintenance.CleanupOutboxUseCase,
	userRepo ports.UserRepository,
	webhookEventRepo ports.WebhookEventRepository,
	webhookQueue ports.WebhookQueue,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		purgeWebhookEvents: purgeWebhookEvents,
		expireKYC:          expireKYC,
		relayOutboxEvents:  relayOutboxEvents,
		retryFailedOutbox:  retryFailedOutbox,
		cleanupOutbox:      cleanupOutbox,
		userRepo:           userRepo,
		webhookEventRepo:   webhookEventRepo,
		webhookQueue:       webhookQueue,
		expireScanLimit:    500,
		retryScanLimit:     200,
		cron:               cron.New(),
		logger:             logger,
	}
}

// Start registers the scheduled jobs and starts the cron process.
// purgeSchedule and outboxRelaySchedule are robfig/cron expressions
// (standard 5-field, or an "@every" duration for the relay's tight
// polling loop).
func (s *Scheduler) Start(purgeSchedule, outboxRelaySchedule string) error {
	_, err := s.cron.AddFunc(purgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		purged, err := s.purgeWebhookEvents.Execute(ctx)
		if err != nil {
			s.logger.Error("failed to purge processed webhook events", "error", err)
			return
		}
		s.logger.Info("purged processed webhook events", "count", purged)
	})
	if err != nil {
		return err
	}

	// KYC expiry runs hourly, independent of the purge schedule.
	_, err = s.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.runKYCExpiryScan(ctx)
	})
	if err != nil {
		return err
	}

	// Stuck-PENDING webhook events are re-enqueued every few minutes.
	_, err = s.cron.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.runWebhookRetryScan(ctx)
	})
	if err != nil {
		return err
	}

	// The outbox relay runs tight - it's the only path domain events
	// leave the database by.
	_, err = s.cron.AddFunc(outboxRelaySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.runOutboxRelay(ctx)
	})
	if err != nil {
		return err
	}

	// FAILED outbox rows get a chance to retry every few minutes.
	_, err = s.cron.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.runOutboxRetryScan(ctx)
	})
	if err != nil {
		return err
	}

	// PUBLISHED outbox rows are reclaimed daily, same cadence as the
	// webhook purge but offset so the two never contend for the table.
	_, err = s.cron.AddFunc("30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.runOutboxCleanup(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started")
	return nil
}

// runKYCExpiryScan finds VERIFIED users whose kyc_expires_at has
// passed and drives each one through ExpireUseCase individually, so a
// single bad record never blocks the rest of the batch.
func (s *Scheduler) runKYCExpiryScan(ctx context.Context) {
	users, err := s.userRepo.FindVerifiedExpiring(ctx, time.Now(), s.expireScanLimit)
	if err != nil {
		s.logger.Error("failed to scan for expiring KYC verifications", "error", err)
		return
	}

	var expired int
	for _, user := range users {
		cmd := dtos.ExpireKYCCommand{UserID: user.ID().String()}
		if _, err := s.expireKYC.Execute(ctx, cmd); err != nil {
			s.logger.Error("failed to expire KYC verification", "user_id", user.ID(), "error", err)
			continue
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("expired stale KYC verifications", "count", expired)
	}
}

// runWebhookRetryScan re-enqueues PENDING webhook events. At-least-once
// is fine here: the processor skips terminal events and the deposit
// path is idempotent by reference_id, so a double enqueue never
// double-credits.
func (s *Scheduler) runWebhookRetryScan(ctx context.Context) {
	events, err := s.webhookEventRepo.FindRetryable(ctx, s.retryScanLimit)
	if err != nil {
		s.logger.Error("failed to scan for retryable webhook events", "error", err)
		return
	}

	var enqueued int
	for _, event := range events {
		if err := s.webhookQueue.Enqueue(ctx, event.ID(), 0); err != nil {
			s.logger.Error("failed to re-enqueue webhook event", "event_id", event.EventID(), "error", err)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		s.logger.Info("re-enqueued pending webhook events", "count", enqueued)
	}
}

// runOutboxRelay drains one batch of unpublished outbox events onto
// the message bus.
func (s *Scheduler) runOutboxRelay(ctx context.Context) {
	relayed, err := s.relayOutboxEvents.Execute(ctx)
	if err != nil {
		s.logger.Error("failed to relay outbox events", "error", err)
		return
	}
	if relayed > 0 {
		s.logger.Info("relayed outbox events", "count", relayed)
	}
}

// runOutboxRetryScan requeues FAILED outbox rows that have not
// exhausted their retry budget.
func (s *Scheduler) runOutboxRetryScan(ctx context.Context) {
	requeued, err := s.retryFailedOutbox.Execute(ctx)
	if err != nil {
		s.logger.Error("failed to scan for retryable outbox events", "error", err)
		return
	}
	if requeued > 0 {
		s.logger.Info("requeued failed outbox events", "count", requeued)
	}
}

// runOutboxCleanup deletes PUBLISHED outbox rows past their retention
// window.
func (s *Scheduler) runOutboxCleanup(ctx context.Context) {
	purged, err := s.cleanupOutbox.Execute(ctx)
	if err != nil {
		s.logger.Error("failed to cleanup published outbox events", "error", err)
		return
	}
	if purged > 0 {
		s.logger.Info("cleaned up published outbox events", "count", purged)
	}
}

// Stop halts the cron process and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance scheduler stopped")
}

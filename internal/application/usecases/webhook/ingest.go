// Package webhook holds the ingestor and processor halves of the
// inbound payment-gateway webhook pipeline. The ingestor's only job is
// durable, deduplicated receipt; every balance mutation happens later,
// asynchronously, in the processor.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
)

// Ingestor verifies, deduplicates, and durably records inbound gateway
// webhooks, then hands them to the queue for asynchronous processing.
// It never mutates a wallet balance itself.
type Ingestor struct {
	webhookEventRepo ports.WebhookEventRepository
	webhookQueue     ports.WebhookQueue
	eventPublisher   ports.EventPublisher
	secret           []byte
}

// NewIngestor creates a new Ingestor.
func NewIngestor(
	webhookEventRepo ports.WebhookEventRepository,
	webhookQueue ports.WebhookQueue,
	eventPublisher ports.EventPublisher,
	secret []byte,
) *Ingestor {
	return &Ingestor{
		webhookEventRepo: webhookEventRepo,
		webhookQueue:     webhookQueue,
		eventPublisher:   eventPublisher,
		secret:           secret,
	}
}

type webhookEnvelope struct {
	Event     string `json:"event"`
	PaymentID string `json:"payment_id"`
}

// Ingest verifies the signature over the exact bytes received, then
// inserts a WebhookEvent (or dedups against one already PROCESSED)
// before enqueueing for the processor. The insert-before-enqueue order
// is deliberate: a crash between the two never loses the event.
func (uc *Ingestor) Ingest(ctx context.Context, rawPayload []byte, signatureHex string) error {
	if !uc.verifySignature(rawPayload, signatureHex) {
		return domainErrors.NewDomainError(domainErrors.CodeUnauthorized, "invalid webhook signature", domainErrors.ErrInvalidWebhookSignature)
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawPayload, &envelope); err != nil {
		return domainErrors.ValidationError{Field: "payload", Message: "malformed JSON body"}
	}
	if envelope.PaymentID == "" {
		return domainErrors.ValidationError{Field: "payment_id", Message: "payment_id (event_id) is required"}
	}
	if envelope.Event == "" {
		return domainErrors.ValidationError{Field: "event", Message: "event type is required"}
	}

	existing, err := uc.webhookEventRepo.FindByEventID(ctx, envelope.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to check webhook event dedup: %w", err)
	}
	if existing != nil {
		if existing.Status() == entities.WebhookEventStatusProcessed {
			return nil // already handled, re-delivery is a no-op
		}
		// Present but not yet terminal - nudge the queue again in case
		// the original enqueue never landed.
		return uc.webhookQueue.Enqueue(ctx, existing.ID(), 0)
	}

	event, err := entities.NewWebhookEvent(envelope.PaymentID, envelope.Event, rawPayload)
	if err != nil {
		return fmt.Errorf("failed to create webhook event entity: %w", err)
	}
	if err := uc.webhookEventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to persist webhook event: %w", err)
	}

	if err := uc.eventPublisher.Publish(ctx, events.NewWebhookReceived(event.ID(), event.EventType())); err != nil {
		return fmt.Errorf("failed to publish WebhookReceived: %w", err)
	}

	if err := uc.webhookQueue.Enqueue(ctx, event.ID(), 0); err != nil {
		return fmt.Errorf("failed to enqueue webhook event: %w", err)
	}

	return nil
}

// verifySignature checks an HMAC-SHA256 over the raw received bytes
// using a constant-time comparison, never the parsed/re-serialized
// payload, which would silently change byte-for-byte with any
// re-marshaling.
func (uc *Ingestor) verifySignature(rawPayload []byte, signatureHex string) bool {
	mac := hmac.New(sha256.New, uc.secret)
	mac.Write(rawPayload)
	expected := mac.Sum(nil)

	given, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(expected, given) == 1
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/application/usecases/ledger"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/pkg/tracing"
)

var tracer = tracing.Tracer("ledgercore/webhook")

const eventTypePaymentSucceeded = "payment.succeeded"
const eventTypePaymentFailed = "payment.failed"
const depositReferencePrefix = "DEPOSIT-"

// Processor dispatches one durably-recorded webhook event at a time.
// Runs as one or more workers pulled off the queue by WebhookQueue.Subscribe.
type Processor struct {
	webhookEventRepo  ports.WebhookEventRepository
	paymentIntentRepo ports.PaymentIntentRepository
	deposit           *ledger.DepositUseCase
	webhookQueue      ports.WebhookQueue
	maxRetries        int
	retryBase         time.Duration
}

// NewProcessor creates a new Processor.
func NewProcessor(
	webhookEventRepo ports.WebhookEventRepository,
	paymentIntentRepo ports.PaymentIntentRepository,
	deposit *ledger.DepositUseCase,
	webhookQueue ports.WebhookQueue,
	maxRetries int,
	retryBase time.Duration,
) *Processor {
	return &Processor{
		webhookEventRepo:  webhookEventRepo,
		paymentIntentRepo: paymentIntentRepo,
		deposit:           deposit,
		webhookQueue:      webhookQueue,
		maxRetries:        maxRetries,
		retryBase:         retryBase,
	}
}

type rawWebhookPayload struct {
	Event         string      `json:"event"`
	PaymentID     string      `json:"payment_id"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	UserEmail     string      `json:"user_email"`
	PaymentMethod string      `json:"payment_method"`
	ErrorMessage  string      `json:"error_message"`
}

// Process handles a single enqueued webhook event, identified by its
// internal WebhookEvent id (not the gateway's event_id).
func (p *Processor) Process(ctx context.Context, webhookEventID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Processor.Process")
	defer span.End()

	event, err := p.webhookEventRepo.FindByID(ctx, webhookEventID)
	if err != nil {
		return fmt.Errorf("failed to load webhook event: %w", err)
	}
	if event.Status() == entities.WebhookEventStatusProcessed {
		return nil
	}

	if event.Status() == entities.WebhookEventStatusPending {
		if err := event.StartProcessing(); err != nil {
			return fmt.Errorf("failed to start processing webhook event: %w", err)
		}
		if err := p.webhookEventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to persist processing state: %w", err)
		}
	}

	var payload rawWebhookPayload
	if err := json.Unmarshal(event.Payload(), &payload); err != nil {
		// Malformed payload can never succeed on retry - fail terminally
		// rather than burn through the retry budget.
		event.ScheduleRetry("malformed payload", 1)
		_ = p.webhookEventRepo.Update(ctx, event)
		return nil
	}

	dispatchErr := p.dispatch(ctx, event.EventType(), payload)
	if dispatchErr == nil {
		event.MarkProcessed()
		if err := p.webhookEventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to persist processed webhook event: %w", err)
		}
		return nil
	}

	// Business-rule failures (unknown intent, or the impossible-by-
	// construction INSUFFICIENT_BALANCE on a deposit) are permanent -
	// retrying them can never succeed, so fail terminally in one step
	// rather than burn through the retry budget.
	if domainErrors.IsBusinessRuleViolation(dispatchErr) || isInsufficientBalance(dispatchErr) {
		event.ScheduleRetry(dispatchErr.Error(), 1)
		return p.webhookEventRepo.Update(ctx, event)
	}

	event.ScheduleRetry(dispatchErr.Error(), p.maxRetries)
	if err := p.webhookEventRepo.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to persist retry state: %w", err)
	}

	if event.Status() == entities.WebhookEventStatusPending {
		delay := backoffDelay(p.retryBase, event.RetryCount())
		if err := p.webhookQueue.Enqueue(ctx, event.ID(), delay); err != nil {
			return fmt.Errorf("failed to re-enqueue webhook event: %w", err)
		}
	}

	return nil
}

func (p *Processor) dispatch(ctx context.Context, eventType string, payload rawWebhookPayload) error {
	switch eventType {
	case eventTypePaymentSucceeded:
		return p.handleSucceeded(ctx, payload)
	case eventTypePaymentFailed:
		return p.handleFailed(ctx, payload)
	default:
		// Unknown event types are a forward-compatibility no-op, not an error.
		return nil
	}
}

func (p *Processor) handleSucceeded(ctx context.Context, payload rawWebhookPayload) error {
	intent, err := p.paymentIntentRepo.FindByGatewayPaymentID(ctx, payload.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to look up payment intent: %w", err)
	}
	if intent == nil {
		return domainErrors.NewBusinessRuleViolation(
			"INTENT_NOT_FOUND",
			"intent-not-found",
			map[string]interface{}{"gateway_payment_id": payload.PaymentID},
		)
	}

	gatewayResponse := map[string]interface{}{
		"event":          payload.Event,
		"amount":         payload.Amount.String(),
		"currency":       payload.Currency,
		"payment_method": payload.PaymentMethod,
	}
	if err := intent.MarkSucceeded(gatewayResponse); err != nil {
		return fmt.Errorf("failed to mark intent succeeded: %w", err)
	}
	if err := p.paymentIntentRepo.Update(ctx, intent); err != nil {
		return fmt.Errorf("failed to persist succeeded intent: %w", err)
	}

	referenceID := depositReferencePrefix + intent.GatewayPaymentID()
	depositCmd := dtos.DepositCommand{
		UserID:      intent.UserID().String(),
		Amount:      intent.Amount().DecimalString(),
		Description: "gateway payment " + intent.GatewayPaymentID(),
		ReferenceID: referenceID,
	}
	if _, err := p.deposit.Execute(ctx, depositCmd); err != nil {
		return fmt.Errorf("failed to deposit for succeeded intent: %w", err)
	}

	return nil
}

func (p *Processor) handleFailed(ctx context.Context, payload rawWebhookPayload) error {
	intent, err := p.paymentIntentRepo.FindByGatewayPaymentID(ctx, payload.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to look up payment intent: %w", err)
	}
	if intent == nil {
		return domainErrors.NewBusinessRuleViolation(
			"INTENT_NOT_FOUND",
			"intent-not-found",
			map[string]interface{}{"gateway_payment_id": payload.PaymentID},
		)
	}

	if err := intent.MarkFailed(payload.ErrorMessage); err != nil {
		return fmt.Errorf("failed to mark intent failed: %w", err)
	}
	return p.paymentIntentRepo.Update(ctx, intent)
}

func isInsufficientBalance(err error) bool {
	return errors.Is(err, domainErrors.ErrInsufficientBalance)
}

// backoffDelay computes an exponential backoff: base * 2^retryCount.
func backoffDelay(base time.Duration, retryCount int) time.Duration {
	delay := base
	for i := 0; i < retryCount && i < 10; i++ {
		delay *= 2
	}
	return delay
}

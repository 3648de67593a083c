// Package entities - WebhookEvent is the durable, at-least-once record of a
// single inbound payment gateway webhook delivery. It is inserted before
// being handed to the processing queue (see usecases/webhook.Ingestor), so a
// crash between insert and enqueue never loses the event.
package entities

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/google/uuid"
)

// WebhookEventStatus is the delivery/processing lifecycle of a webhook event.
type WebhookEventStatus string

const (
	WebhookEventStatusPending    WebhookEventStatus = "PENDING"
	WebhookEventStatusProcessing WebhookEventStatus = "PROCESSING"
	WebhookEventStatusProcessed  WebhookEventStatus = "PROCESSED"
	WebhookEventStatusFailed     WebhookEventStatus = "FAILED"
)

// WebhookEvent is a single received gateway webhook.
type WebhookEvent struct {
	id            uuid.UUID
	eventID       string // Gateway-assigned, unique - dedup key
	eventType     string // e.g. "payment.succeeded"
	payload       []byte // Raw bytes as received, for re-verification and audit
	status        WebhookEventStatus
	failureReason string
	retryCount    int
	createdAt     time.Time
	processedAt   *time.Time
}

// NewWebhookEvent creates a new webhook event in PENDING status.
func NewWebhookEvent(eventID, eventType string, payload []byte) (*WebhookEvent, error) {
	if eventID == "" {
		return nil, errors.ValidationError{
			Field:   "eventID",
			Message: "event id is required",
		}
	}
	if eventType == "" {
		return nil, errors.ValidationError{
			Field:   "eventType",
			Message: "event type is required",
		}
	}

	return &WebhookEvent{
		id:        uuid.New(),
		eventID:   eventID,
		eventType: eventType,
		payload:   payload,
		status:    WebhookEventStatusPending,
		createdAt: time.Now(),
	}, nil
}

// ReconstructWebhookEvent reconstructs a WebhookEvent from stored data.
func ReconstructWebhookEvent(
	id uuid.UUID,
	eventID, eventType string,
	payload []byte,
	status WebhookEventStatus,
	failureReason string,
	retryCount int,
	createdAt time.Time,
	processedAt *time.Time,
) *WebhookEvent {
	return &WebhookEvent{
		id:            id,
		eventID:       eventID,
		eventType:     eventType,
		payload:       payload,
		status:        status,
		failureReason: failureReason,
		retryCount:    retryCount,
		createdAt:     createdAt,
		processedAt:   processedAt,
	}
}

func (w *WebhookEvent) ID() uuid.UUID                  { return w.id }
func (w *WebhookEvent) EventID() string                { return w.eventID }
func (w *WebhookEvent) EventType() string              { return w.eventType }
func (w *WebhookEvent) Payload() []byte                { return w.payload }
func (w *WebhookEvent) Status() WebhookEventStatus     { return w.status }
func (w *WebhookEvent) FailureReason() string          { return w.failureReason }
func (w *WebhookEvent) RetryCount() int                { return w.retryCount }
func (w *WebhookEvent) CreatedAt() time.Time            { return w.createdAt }
func (w *WebhookEvent) ProcessedAt() *time.Time         { return w.processedAt }

// StartProcessing transitions PENDING -> PROCESSING.
func (w *WebhookEvent) StartProcessing() error {
	if w.status != WebhookEventStatusPending {
		return errors.NewBusinessRuleViolation(
			"WEBHOOK_EVENT_NOT_PENDING",
			"webhook event is not pending",
			map[string]interface{}{"currentStatus": w.status},
		)
	}
	w.status = WebhookEventStatusProcessing
	return nil
}

// MarkProcessed transitions to PROCESSED, used for both successful
// dispatch and the "unknown event type" forward-compatibility no-op.
func (w *WebhookEvent) MarkProcessed() {
	now := time.Now()
	w.status = WebhookEventStatusProcessed
	w.processedAt = &now
}

// ScheduleRetry increments the retry count and returns to PENDING so the
// periodic scan will pick it up again, unless maxRetries has been reached,
// in which case it is marked terminally FAILED.
func (w *WebhookEvent) ScheduleRetry(reason string, maxRetries int) {
	w.retryCount++
	w.failureReason = reason
	if w.retryCount >= maxRetries {
		w.status = WebhookEventStatusFailed
		return
	}
	w.status = WebhookEventStatusPending
}

// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// SOLID Principles:
// - SRP: Each event type represents one business occurrence
// - OCP: New events can be added without modifying existing code
// - ISP: Event consumers only handle events they care about
//
// Pattern: Domain Events (Observer Pattern foundation)
// - Events are raised by entities when state changes
// - Handlers can react asynchronously
// - Enables loose coupling between domain modules
package events

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
// All events must have an ID, timestamp, and type.
//
// Why interface? (ISP principle)
// - Consumers can work with any event type
// - Easy to add new event types
// - Type-safe event handling with type switches
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication (DRY).
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event Types (constants for type checking)
const (
	EventTypeUserCreated          = "user.created"
	EventTypeUserKYCSubmitted     = "user.kyc.submitted"
	EventTypeUserKYCApproved      = "user.kyc.approved"
	EventTypeUserKYCRejected      = "user.kyc.rejected"
	EventTypeUserKYCExpired       = "user.kyc.expired"
	EventTypeWalletCreated        = "wallet.created"
	EventTypeWalletCredited       = "wallet.credited"
	EventTypeWalletDebited        = "wallet.debited"
	EventTypeTransactionCreated   = "transaction.created"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypePaymentIntentCreated = "payment_intent.created"
	EventTypeWebhookReceived      = "webhook.received"
)

// ===== User Events =====

// UserCreated is raised when a new user is created.
type UserCreated struct {
	BaseEvent
	Email    string
	FullName string
}

func NewUserCreated(userID uuid.UUID, email, fullName string) *UserCreated {
	return &UserCreated{
		BaseEvent: newBaseEvent(EventTypeUserCreated, userID),
		Email:     email,
		FullName:  fullName,
	}
}

// UserKYCSubmitted is raised when a user submits KYC documents for review.
type UserKYCSubmitted struct {
	BaseEvent
	UserID uuid.UUID
}

func NewUserKYCSubmitted(userID uuid.UUID) *UserKYCSubmitted {
	return &UserKYCSubmitted{
		BaseEvent: newBaseEvent(EventTypeUserKYCSubmitted, userID),
		UserID:    userID,
	}
}

// UserKYCApproved is raised when a user's KYC is approved.
type UserKYCApproved struct {
	BaseEvent
	UserID uuid.UUID
}

func NewUserKYCApproved(userID uuid.UUID) *UserKYCApproved {
	return &UserKYCApproved{
		BaseEvent: newBaseEvent(EventTypeUserKYCApproved, userID),
		UserID:    userID,
	}
}

// UserKYCRejected is raised when KYC verification is rejected.
type UserKYCRejected struct {
	BaseEvent
	UserID uuid.UUID
	Reason string
}

func NewUserKYCRejected(userID uuid.UUID, reason string) *UserKYCRejected {
	return &UserKYCRejected{
		BaseEvent: newBaseEvent(EventTypeUserKYCRejected, userID),
		UserID:    userID,
		Reason:    reason,
	}
}

// UserKYCExpired is raised when a previously verified KYC lapses.
type UserKYCExpired struct {
	BaseEvent
	UserID uuid.UUID
}

func NewUserKYCExpired(userID uuid.UUID) *UserKYCExpired {
	return &UserKYCExpired{
		BaseEvent: newBaseEvent(EventTypeUserKYCExpired, userID),
		UserID:    userID,
	}
}

// ===== Wallet Events =====

// WalletCreated is raised when a new wallet is created.
type WalletCreated struct {
	BaseEvent
	UserID   uuid.UUID
	Currency valueobjects.Currency
}

func NewWalletCreated(userID uuid.UUID, currency valueobjects.Currency) *WalletCreated {
	return &WalletCreated{
		BaseEvent: newBaseEvent(EventTypeWalletCreated, userID),
		UserID:    userID,
		Currency:  currency,
	}
}

// WalletCredited is raised when funds are added to a wallet. Wallets are
// addressed by the owning user, not by a separate wallet ID, since this
// deployment is single-currency/one-wallet-per-user.
type WalletCredited struct {
	BaseEvent
	UserID        uuid.UUID
	Amount        valueobjects.Money
	TransactionID uuid.UUID
	BalanceAfter  valueobjects.Money
}

func NewWalletCredited(
	userID uuid.UUID,
	amount valueobjects.Money,
	transactionID uuid.UUID,
	balanceAfter valueobjects.Money,
) *WalletCredited {
	return &WalletCredited{
		BaseEvent:     newBaseEvent(EventTypeWalletCredited, userID),
		UserID:        userID,
		Amount:        amount,
		TransactionID: transactionID,
		BalanceAfter:  balanceAfter,
	}
}

// WalletDebited is raised when funds are removed from a wallet.
type WalletDebited struct {
	BaseEvent
	UserID        uuid.UUID
	Amount        valueobjects.Money
	TransactionID uuid.UUID
	BalanceAfter  valueobjects.Money
}

func NewWalletDebited(
	userID uuid.UUID,
	amount valueobjects.Money,
	transactionID uuid.UUID,
	balanceAfter valueobjects.Money,
) *WalletDebited {
	return &WalletDebited{
		BaseEvent:     newBaseEvent(EventTypeWalletDebited, userID),
		UserID:        userID,
		Amount:        amount,
		TransactionID: transactionID,
		BalanceAfter:  balanceAfter,
	}
}

// ===== Transaction Events =====

// TransactionCreated is raised when a new transaction is created.
type TransactionCreated struct {
	BaseEvent
	TransactionID   uuid.UUID
	ReferenceID     string
	TransactionType string
	Amount          valueobjects.Money
	FromUserID      *uuid.UUID
	ToUserID        *uuid.UUID
}

func NewTransactionCreated(
	transactionID uuid.UUID,
	referenceID string,
	transactionType string,
	amount valueobjects.Money,
	fromUserID, toUserID *uuid.UUID,
) *TransactionCreated {
	return &TransactionCreated{
		BaseEvent:       newBaseEvent(EventTypeTransactionCreated, transactionID),
		TransactionID:   transactionID,
		ReferenceID:     referenceID,
		TransactionType: transactionType,
		Amount:          amount,
		FromUserID:      fromUserID,
		ToUserID:        toUserID,
	}
}

// TransactionCompleted is raised when a transaction completes successfully.
type TransactionCompleted struct {
	BaseEvent
	TransactionID   uuid.UUID
	TransactionType string
	Amount          valueobjects.Money
	CompletedAt     time.Time
}

func NewTransactionCompleted(
	transactionID uuid.UUID,
	transactionType string,
	amount valueobjects.Money,
) *TransactionCompleted {
	return &TransactionCompleted{
		BaseEvent:       newBaseEvent(EventTypeTransactionCompleted, transactionID),
		TransactionID:   transactionID,
		TransactionType: transactionType,
		Amount:          amount,
		CompletedAt:     time.Now(),
	}
}

// TransactionFailed is raised when a transaction fails.
type TransactionFailed struct {
	BaseEvent
	TransactionID   uuid.UUID
	TransactionType string
	Amount          valueobjects.Money
	FailureReason   string
}

func NewTransactionFailed(
	transactionID uuid.UUID,
	transactionType string,
	amount valueobjects.Money,
	failureReason string,
) *TransactionFailed {
	return &TransactionFailed{
		BaseEvent:       newBaseEvent(EventTypeTransactionFailed, transactionID),
		TransactionID:   transactionID,
		TransactionType: transactionType,
		Amount:          amount,
		FailureReason:   failureReason,
	}
}

// ===== Payment / Webhook Events =====

// PaymentIntentCreated is raised when a new payment intent is opened.
type PaymentIntentCreated struct {
	BaseEvent
	PaymentIntentID  uuid.UUID
	GatewayPaymentID string
	UserID           uuid.UUID
	Amount           valueobjects.Money
}

func NewPaymentIntentCreated(paymentIntentID uuid.UUID, gatewayPaymentID string, userID uuid.UUID, amount valueobjects.Money) *PaymentIntentCreated {
	return &PaymentIntentCreated{
		BaseEvent:        newBaseEvent(EventTypePaymentIntentCreated, paymentIntentID),
		PaymentIntentID:  paymentIntentID,
		GatewayPaymentID: gatewayPaymentID,
		UserID:           userID,
		Amount:           amount,
	}
}

// WebhookReceived is raised when an inbound gateway webhook is durably
// recorded, before it is handed off to the processing queue. The
// gateway's own event type ("payment.succeeded", ...) travels as
// GatewayEventType so it never collides with DomainEvent.EventType.
type WebhookReceived struct {
	BaseEvent
	WebhookEventID   uuid.UUID
	GatewayEventType string
}

func NewWebhookReceived(webhookEventID uuid.UUID, gatewayEventType string) *WebhookReceived {
	return &WebhookReceived{
		BaseEvent:        newBaseEvent(EventTypeWebhookReceived, webhookEventID),
		WebhookEventID:   webhookEventID,
		GatewayEventType: gatewayEventType,
	}
}

// EventStore is a simple in-memory store for events during a transaction.
//
// Pattern: Event Sourcing foundation
// - Collect events during entity operations
// - Publish them atomically with state changes
// - Enables eventual consistency and event-driven architecture
type EventStore struct {
	events []DomainEvent
}

// NewEventStore creates a new event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make([]DomainEvent, 0),
	}
}

// Add appends an event to the store.
func (s *EventStore) Add(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetAll returns all collected events.
func (s *EventStore) GetAll() []DomainEvent {
	return s.events
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.events = make([]DomainEvent, 0)
}

// Count returns the number of events in the store.
func (s *EventStore) Count() int {
	return len(s.events)
}

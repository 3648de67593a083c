// Package entities - Transaction represents a completed or attempted money
// movement between at most two users. Transactions do not self-retry:
// a failed transfer is terminal, and the caller re-submits under the same
// reference_id if they want another attempt, and the transfer engine's
// idempotency check returns the earlier record.
package entities

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// TransactionType represents the type of transaction.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeFee        TransactionType = "FEE"
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeRefund, TransactionTypeFee:
		return true
	default:
		return false
	}
}

// TransactionStatus represents the current state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

// IsValid checks if the transaction status is valid.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the status is terminal (no further transitions).
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// Transaction represents a single ledger-level money movement.
//
// Entity Pattern:
// - Has identity (ID + reference_id, the idempotency key)
// - State machine: PENDING -> PROCESSING -> COMPLETED|FAILED|CANCELLED
// - FromUserID/ToUserID are nil for single-sided movements (deposit has
//   no FromUserID, withdrawal has no ToUserID)
type Transaction struct {
	id              uuid.UUID
	referenceID     string // Caller-supplied or generated idempotency key, e.g. "TXN-<16hex>"
	fromUserID      *uuid.UUID
	toUserID        *uuid.UUID
	transactionType TransactionType
	status          TransactionStatus
	amount          valueobjects.Money

	fromBalanceBefore *valueobjects.Money
	fromBalanceAfter  *valueobjects.Money
	toBalanceBefore   *valueobjects.Money
	toBalanceAfter    *valueobjects.Money

	description string
	metadata    map[string]interface{}

	failureReason string
	retryCount    int // Delivery retries of the *triggering* webhook, not of this transaction

	createdAt   time.Time
	updatedAt   time.Time
	completedAt *time.Time
}

const maxReferenceIDLength = 100

// NewTransaction creates a new transaction in PENDING status.
//
// Business Rules:
// - referenceID must be non-empty and <= 100 chars (checked for uniqueness by repository)
// - amount must be positive
// - transaction type must be valid
func NewTransaction(
	referenceID string,
	fromUserID, toUserID *uuid.UUID,
	transactionType TransactionType,
	amount valueobjects.Money,
	description string,
) (*Transaction, error) {
	if referenceID == "" {
		return nil, errors.ValidationError{
			Field:   "referenceID",
			Message: "reference id is required",
		}
	}
	if len(referenceID) > maxReferenceIDLength {
		return nil, errors.ValidationError{
			Field:   "referenceID",
			Message: "reference id exceeds maximum length",
		}
	}

	if !transactionType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}

	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"transaction amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	if transactionType == TransactionTypeTransfer {
		if fromUserID == nil || toUserID == nil {
			return nil, errors.ValidationError{
				Field:   "userID",
				Message: "transfer requires both a source and destination user",
			}
		}
		if *fromUserID == *toUserID {
			return nil, errors.NewBusinessRuleViolation(
				"SELF_TRANSFER",
				"cannot transfer to the same user",
				map[string]interface{}{"userID": fromUserID.String()},
			)
		}
	}

	now := time.Now()
	return &Transaction{
		id:              uuid.New(),
		referenceID:     referenceID,
		fromUserID:      fromUserID,
		toUserID:        toUserID,
		transactionType: transactionType,
		status:          TransactionStatusPending,
		amount:          amount,
		description:     description,
		metadata:        make(map[string]interface{}),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructTransaction reconstructs a Transaction from stored data.
func ReconstructTransaction(
	id uuid.UUID,
	referenceID string,
	fromUserID, toUserID *uuid.UUID,
	transactionType TransactionType,
	status TransactionStatus,
	amount valueobjects.Money,
	fromBalanceBefore, fromBalanceAfter, toBalanceBefore, toBalanceAfter *valueobjects.Money,
	description string,
	metadata map[string]interface{},
	failureReason string,
	retryCount int,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
) *Transaction {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &Transaction{
		id:                id,
		referenceID:       referenceID,
		fromUserID:        fromUserID,
		toUserID:          toUserID,
		transactionType:   transactionType,
		status:            status,
		amount:            amount,
		fromBalanceBefore: fromBalanceBefore,
		fromBalanceAfter:  fromBalanceAfter,
		toBalanceBefore:   toBalanceBefore,
		toBalanceAfter:    toBalanceAfter,
		description:       description,
		metadata:          metadata,
		failureReason:     failureReason,
		retryCount:        retryCount,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
		completedAt:       completedAt,
	}
}

// Getters

func (t *Transaction) ID() uuid.UUID                  { return t.id }
func (t *Transaction) ReferenceID() string             { return t.referenceID }
func (t *Transaction) FromUserID() *uuid.UUID          { return t.fromUserID }
func (t *Transaction) ToUserID() *uuid.UUID            { return t.toUserID }
func (t *Transaction) Type() TransactionType           { return t.transactionType }
func (t *Transaction) Status() TransactionStatus       { return t.status }
func (t *Transaction) Amount() valueobjects.Money      { return t.amount }
func (t *Transaction) Description() string             { return t.description }
func (t *Transaction) Metadata() map[string]interface{} { return t.metadata }
func (t *Transaction) FailureReason() string            { return t.failureReason }
func (t *Transaction) RetryCount() int                  { return t.retryCount }
func (t *Transaction) CreatedAt() time.Time             { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time             { return t.updatedAt }
func (t *Transaction) CompletedAt() *time.Time          { return t.completedAt }

func (t *Transaction) FromBalanceBefore() *valueobjects.Money { return t.fromBalanceBefore }
func (t *Transaction) FromBalanceAfter() *valueobjects.Money  { return t.fromBalanceAfter }
func (t *Transaction) ToBalanceBefore() *valueobjects.Money   { return t.toBalanceBefore }
func (t *Transaction) ToBalanceAfter() *valueobjects.Money    { return t.toBalanceAfter }

// Business Methods

func (t *Transaction) IsPending() bool    { return t.status == TransactionStatusPending }
func (t *Transaction) IsProcessing() bool { return t.status == TransactionStatusProcessing }
func (t *Transaction) IsCompleted() bool  { return t.status == TransactionStatusCompleted }
func (t *Transaction) IsFailed() bool     { return t.status == TransactionStatusFailed }
func (t *Transaction) IsFinal() bool      { return t.status.IsFinal() }

// RecordSourceBalances captures the before/after balance of the source
// wallet, taken while the row lock is held.
func (t *Transaction) RecordSourceBalances(before, after valueobjects.Money) {
	t.fromBalanceBefore = &before
	t.fromBalanceAfter = &after
	t.updatedAt = time.Now()
}

// RecordDestinationBalances captures the before/after balance of the
// destination wallet, taken while the row lock is held.
func (t *Transaction) RecordDestinationBalances(before, after valueobjects.Money) {
	t.toBalanceBefore = &before
	t.toBalanceAfter = &after
	t.updatedAt = time.Now()
}

// AddMetadata adds custom metadata to the transaction.
func (t *Transaction) AddMetadata(key string, value interface{}) error {
	if t.IsFinal() {
		return errors.ErrTransactionAlreadyProcessed
	}

	t.metadata[key] = value
	t.updatedAt = time.Now()
	return nil
}

// State Machine Transitions

// StartProcessing transitions the transaction to PROCESSING status.
func (t *Transaction) StartProcessing() error {
	if !t.IsPending() {
		return errors.ErrTransactionNotPending
	}

	t.status = TransactionStatusProcessing
	t.updatedAt = time.Now()
	return nil
}

// MarkCompleted transitions the transaction to COMPLETED status.
func (t *Transaction) MarkCompleted() error {
	if !t.IsProcessing() {
		return errors.NewBusinessRuleViolation(
			"CANNOT_COMPLETE_NON_PROCESSING_TRANSACTION",
			"only processing transactions can be completed",
			map[string]interface{}{"currentStatus": t.status},
		)
	}

	now := time.Now()
	t.status = TransactionStatusCompleted
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// MarkFailed transitions the transaction to FAILED status with a reason.
// The transfer engine always writes this in a separate statement after
// any rollback of the attempted mutation - never inside the same
// transaction that is being rolled back.
func (t *Transaction) MarkFailed(reason string) error {
	if t.IsFinal() {
		return errors.ErrTransactionAlreadyProcessed
	}

	now := time.Now()
	t.status = TransactionStatusFailed
	t.failureReason = reason
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// Cancel transitions the transaction to CANCELLED status.
func (t *Transaction) Cancel() error {
	if !t.IsPending() {
		return errors.NewBusinessRuleViolation(
			"CANNOT_CANCEL_NON_PENDING_TRANSACTION",
			"only pending transactions can be cancelled",
			map[string]interface{}{"currentStatus": t.status},
		)
	}

	now := time.Now()
	t.status = TransactionStatusCancelled
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

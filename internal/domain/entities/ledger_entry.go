// Package entities - LedgerEntry is the append-only audit record of a single
// wallet's side of a Transaction. One Transaction produces one or two
// LedgerEntry rows (two for a transfer, one for a deposit/withdrawal).
package entities

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// EntryType is the direction of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the entry type is valid.
func (e EntryType) IsValid() bool {
	return e == EntryTypeDebit || e == EntryTypeCredit
}

// LedgerEntry is an immutable record of one wallet's balance movement
// within a transaction. There is no update or delete path - the type
// itself offers no mutator methods, so an append-only ledger is a
// structural guarantee rather than a convention enforced only by the
// repository.
type LedgerEntry struct {
	id            uuid.UUID
	transactionID uuid.UUID
	userID        uuid.UUID
	entryType     EntryType
	amount        valueobjects.Money
	balanceAfter  valueobjects.Money
	createdAt     time.Time
}

// NewLedgerEntry creates a new ledger entry.
func NewLedgerEntry(
	transactionID, userID uuid.UUID,
	entryType EntryType,
	amount, balanceAfter valueobjects.Money,
) (*LedgerEntry, error) {
	if !entryType.IsValid() {
		return nil, errors.ValidationError{
			Field:   "entryType",
			Message: "entry type must be DEBIT or CREDIT",
		}
	}

	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"ledger entry amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	return &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		userID:        userID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     time.Now(),
	}, nil
}

// ReconstructLedgerEntry reconstructs a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, userID uuid.UUID,
	entryType EntryType,
	amount, balanceAfter valueobjects.Money,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		transactionID: transactionID,
		userID:        userID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     createdAt,
	}
}

func (e *LedgerEntry) ID() uuid.UUID                       { return e.id }
func (e *LedgerEntry) TransactionID() uuid.UUID            { return e.transactionID }
func (e *LedgerEntry) UserID() uuid.UUID                   { return e.userID }
func (e *LedgerEntry) EntryType() EntryType                { return e.entryType }
func (e *LedgerEntry) Amount() valueobjects.Money          { return e.amount }
func (e *LedgerEntry) BalanceAfter() valueobjects.Money    { return e.balanceAfter }
func (e *LedgerEntry) CreatedAt() time.Time                { return e.createdAt }

// Package entities - Wallet is the core entity for managing user balances.
//
// This platform carries exactly one wallet per user (1:1, unique on
// user_id). There is no per-wallet status, velocity limit, or pending/
// reserved balance split - those exist in systems with multi-currency or
// multi-wallet users, neither of which this platform supports. Balance
// mutation happens through exactly one path: the repository's ApplyDelta,
// called only by the transfer engine while holding the row lock.
package entities

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// Wallet represents a user's single balance.
//
// Entity Pattern:
// - Has identity (ID)
// - Enforces invariants (balance never negative)
// - Rich behavior (Credit/Debit), though in production the only caller
//   of these mutators is the repository layer applying a locked delta -
//   see ports.WalletRepository.ApplyDelta.
type Wallet struct {
	id        uuid.UUID
	userID    uuid.UUID // 1:1 with User
	balance   valueobjects.Money
	updatedAt time.Time
}

// NewWallet creates a new wallet for a user with a zero balance.
// Called once, atomically alongside user registration - there is no
// separate "create wallet" step in the API surface.
func NewWallet(userID uuid.UUID, currency valueobjects.Currency) (*Wallet, error) {
	if currency.IsZero() {
		return nil, errors.ValidationError{
			Field:   "currency",
			Message: "currency is required",
		}
	}

	return &Wallet{
		id:        uuid.New(),
		userID:    userID,
		balance:   valueobjects.Zero(currency),
		updatedAt: time.Now(),
	}, nil
}

// ReconstructWallet reconstructs a Wallet from stored data.
// Used by repository to hydrate entities from database.
func ReconstructWallet(id, userID uuid.UUID, balance valueobjects.Money, updatedAt time.Time) *Wallet {
	return &Wallet{
		id:        id,
		userID:    userID,
		balance:   balance,
		updatedAt: updatedAt,
	}
}

// Getters

func (w *Wallet) ID() uuid.UUID {
	return w.id
}

func (w *Wallet) UserID() uuid.UUID {
	return w.userID
}

func (w *Wallet) Balance() valueobjects.Money {
	return w.balance
}

func (w *Wallet) Currency() valueobjects.Currency {
	return w.balance.Currency()
}

func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// HasSufficientBalance checks if the wallet has enough balance for amount.
func (w *Wallet) HasSufficientBalance(amount valueobjects.Money) (bool, error) {
	return w.balance.GreaterThanOrEqual(amount)
}

// Credit adds funds to the wallet balance.
// Not safe for concurrent use against the same wallet row outside of a
// transaction holding its lock - see ports.WalletRepository.GetForUpdate.
func (w *Wallet) Credit(amount valueobjects.Money) error {
	if !w.balance.Currency().Equals(amount.Currency()) {
		return errors.NewBusinessRuleViolation(
			"CURRENCY_MISMATCH",
			"amount currency doesn't match wallet currency",
			map[string]interface{}{
				"walletCurrency": w.balance.Currency().Code(),
				"amountCurrency": amount.Currency().Code(),
			},
		)
	}

	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now()
	return nil
}

// Debit subtracts funds from the wallet balance.
// Returns errors.ErrInsufficientBalance if the balance would go negative.
func (w *Wallet) Debit(amount valueobjects.Money) error {
	if !w.balance.Currency().Equals(amount.Currency()) {
		return errors.NewBusinessRuleViolation(
			"CURRENCY_MISMATCH",
			"amount currency doesn't match wallet currency",
			map[string]interface{}{
				"walletCurrency": w.balance.Currency().Code(),
				"amountCurrency": amount.Currency().Code(),
			},
		)
	}

	hasSufficient, err := w.HasSufficientBalance(amount)
	if err != nil {
		return err
	}
	if !hasSufficient {
		return errors.ErrInsufficientBalance
	}

	newBalance, err := w.balance.Subtract(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now()
	return nil
}

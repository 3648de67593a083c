// Package valueobjects - Money is one of the most critical value objects in financial systems.
// It combines amount and currency to prevent common bugs like mixing currencies.
//
// SOLID Principles:
// - SRP: Money knows how to be Money (arithmetic, comparison, validation)
// - OCP: Can extend with new operations without modifying existing code
// - LSP: All Money instances follow the same contract
package valueobjects

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of decimal places this platform settles at.
// Fractional-cent precision is explicitly out of scope.
const moneyScale = 2

// Money represents a monetary amount with its currency.
// Uses shopspring/decimal for exact base-10 arithmetic so values always
// round-trip cleanly at a fixed 2-decimal scale - no float rounding,
// no rational-number precision beyond what the ledger actually stores.
//
// Value Object Pattern:
// - Immutable: All operations return new Money instances
// - Self-validating: Cannot create invalid Money
// - Type-safe: Prevents mixing currencies
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// Common domain errors for Money operations
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrCurrencyMismatch   = errors.New("cannot operate on different currencies")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrInvalidAmount      = errors.New("invalid amount format")
)

// NewMoney creates a Money instance from a string amount.
// The amount is parsed as a decimal (e.g., "100.50") at the platform's
// fixed scale.
//
// Returns error if the amount is negative, cannot be parsed, or carries
// more than two fractional digits - sub-cent amounts are rejected, never
// rounded.
func NewMoney(amountStr string, currency Currency) (Money, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}

	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}

	if !amount.Equal(amount.Round(moneyScale)) {
		return Money{}, fmt.Errorf("%w: more than %d fractional digits: %s", ErrInvalidAmount, moneyScale, amountStr)
	}

	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromInt creates Money from an integer amount of whole units.
func NewMoneyFromInt(amount int64, currency Currency) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}

	return Money{
		amount:   decimal.NewFromInt(amount),
		currency: currency,
	}, nil
}

// NewMoneyFromCents creates Money from the smallest currency unit (cents).
// This is the preferred way to store and transport money - as integer
// cents - since it has no floating-point representation at all.
//
// Example:
//
//	NewMoneyFromCents(10050, USD) // $100.50
func NewMoneyFromCents(cents int64, currency Currency) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}

	return Money{
		amount:   decimal.NewFromInt(cents).Shift(-moneyScale),
		currency: currency,
	}, nil
}

// Zero creates a zero money amount for the given currency.
func Zero(currency Currency) Money {
	return Money{
		amount:   decimal.Zero,
		currency: currency,
	}
}

// Currency returns the currency of this money.
func (m Money) Currency() Currency {
	return m.currency
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// String returns a human-readable representation.
// Example: "100.50 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(moneyScale), m.currency.Code())
}

// DecimalString returns the bare decimal amount at the fixed scale,
// without the currency code. Example: "100.50". This is the wire
// format for every monetary field; currency travels as its own field.
func (m Money) DecimalString() string {
	return m.amount.StringFixed(moneyScale)
}

// MarshalJSON serializes the amount as a bare decimal string, the
// platform's wire format ("100.50"). Currency always travels as its
// own field, so it is not repeated here.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.DecimalString())
}

// Float64 returns the amount as float64.
// WARNING: Use only for display purposes, not for calculations!
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Cents returns the amount in integer cents - the preferred storage and
// wire format.
func (m Money) Cents() int64 {
	return m.amount.Shift(moneyScale).IntPart()
}

// Add returns a new Money with the sum of two amounts.
// IMMUTABLE: Returns new instance, doesn't modify receiver.
//
// Business rule: Cannot add different currencies.
func (m Money) Add(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}

	return Money{amount: m.amount.Add(other.amount).Round(moneyScale), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Returns error if result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}

	diff := m.amount.Sub(other.amount).Round(moneyScale)
	if diff.IsNegative() {
		return Money{}, ErrInsufficientAmount
	}

	return Money{amount: diff, currency: m.currency}, nil
}

// Multiply returns a new Money multiplied by a factor (e.g. a fee rate).
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor).Round(moneyScale), currency: m.currency}
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// GreaterThan checks if this money is greater than another.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual checks if this money is >= another.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// LessThan checks if this money is less than another.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.LessThan(other.amount), nil
}

// Equals checks if two money values are equal (amount and currency).
func (m Money) Equals(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.Equal(other.amount)
}

// Package entities - PaymentIntent tracks a single attempt to bring external
// money onto the platform through the payment gateway, from creation through
// the gateway's webhook confirmation.
package entities

import (
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// PaymentMethod mirrors the gateway's payment method choices. The
// gateway reports it on every webhook and it is carried through for
// reconciliation.
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodNetBanking PaymentMethod = "NET_BANKING"
	PaymentMethodWallet     PaymentMethod = "WALLET"
)

// PaymentIntentStatus is the lifecycle of a payment intent.
type PaymentIntentStatus string

const (
	PaymentIntentStatusPending    PaymentIntentStatus = "PENDING"
	PaymentIntentStatusProcessing PaymentIntentStatus = "PROCESSING"
	PaymentIntentStatusSucceeded  PaymentIntentStatus = "SUCCEEDED"
	PaymentIntentStatusFailed     PaymentIntentStatus = "FAILED"
	PaymentIntentStatusCancelled  PaymentIntentStatus = "CANCELLED"
)

// PaymentIntent represents one payment gateway checkout attempt.
type PaymentIntent struct {
	id               uuid.UUID
	gatewayPaymentID string // "PAY-<16hex>", unique
	userID           uuid.UUID
	amount           valueobjects.Money
	paymentMethod    PaymentMethod
	status           PaymentIntentStatus
	description      string
	metadata         map[string]interface{}
	gatewayResponse  map[string]interface{}
	failureReason    string
	createdAt        time.Time
	updatedAt        time.Time
	succeededAt      *time.Time
}

// NewPaymentIntent creates a new payment intent in PENDING status.
func NewPaymentIntent(
	gatewayPaymentID string,
	userID uuid.UUID,
	amount valueobjects.Money,
	paymentMethod PaymentMethod,
	description string,
) (*PaymentIntent, error) {
	if gatewayPaymentID == "" {
		return nil, errors.ValidationError{
			Field:   "gatewayPaymentID",
			Message: "gateway payment id is required",
		}
	}

	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"payment intent amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	now := time.Now()
	return &PaymentIntent{
		id:               uuid.New(),
		gatewayPaymentID: gatewayPaymentID,
		userID:           userID,
		amount:           amount,
		paymentMethod:    paymentMethod,
		status:           PaymentIntentStatusPending,
		description:      description,
		metadata:         make(map[string]interface{}),
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructPaymentIntent reconstructs a PaymentIntent from stored data.
func ReconstructPaymentIntent(
	id uuid.UUID,
	gatewayPaymentID string,
	userID uuid.UUID,
	amount valueobjects.Money,
	paymentMethod PaymentMethod,
	status PaymentIntentStatus,
	description string,
	metadata, gatewayResponse map[string]interface{},
	failureReason string,
	createdAt, updatedAt time.Time,
	succeededAt *time.Time,
) *PaymentIntent {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &PaymentIntent{
		id:               id,
		gatewayPaymentID: gatewayPaymentID,
		userID:           userID,
		amount:           amount,
		paymentMethod:    paymentMethod,
		status:           status,
		description:      description,
		metadata:         metadata,
		gatewayResponse:  gatewayResponse,
		failureReason:    failureReason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		succeededAt:      succeededAt,
	}
}

func (p *PaymentIntent) ID() uuid.UUID                        { return p.id }
func (p *PaymentIntent) GatewayPaymentID() string              { return p.gatewayPaymentID }
func (p *PaymentIntent) UserID() uuid.UUID                     { return p.userID }
func (p *PaymentIntent) Amount() valueobjects.Money            { return p.amount }
func (p *PaymentIntent) PaymentMethod() PaymentMethod          { return p.paymentMethod }
func (p *PaymentIntent) Status() PaymentIntentStatus           { return p.status }
func (p *PaymentIntent) Description() string                  { return p.description }
func (p *PaymentIntent) Metadata() map[string]interface{}      { return p.metadata }
func (p *PaymentIntent) GatewayResponse() map[string]interface{} { return p.gatewayResponse }
func (p *PaymentIntent) FailureReason() string                 { return p.failureReason }
func (p *PaymentIntent) CreatedAt() time.Time                  { return p.createdAt }
func (p *PaymentIntent) UpdatedAt() time.Time                  { return p.updatedAt }
func (p *PaymentIntent) SucceededAt() *time.Time               { return p.succeededAt }

// MarkSucceeded records the gateway's successful confirmation.
func (p *PaymentIntent) MarkSucceeded(gatewayResponse map[string]interface{}) error {
	if p.status == PaymentIntentStatusSucceeded {
		return nil // idempotent: re-delivered webhook, no-op
	}
	if p.status != PaymentIntentStatusPending && p.status != PaymentIntentStatusProcessing {
		return errors.NewBusinessRuleViolation(
			"PAYMENT_INTENT_NOT_PENDING",
			"only a pending or processing payment intent can succeed",
			map[string]interface{}{"currentStatus": p.status},
		)
	}

	now := time.Now()
	p.status = PaymentIntentStatusSucceeded
	p.gatewayResponse = gatewayResponse
	p.succeededAt = &now
	p.updatedAt = now
	return nil
}

// MarkFailed records the gateway's failure notification. No wallet
// mutation ever happens on this path.
func (p *PaymentIntent) MarkFailed(reason string) error {
	if p.status == PaymentIntentStatusFailed {
		return nil
	}
	p.status = PaymentIntentStatusFailed
	p.failureReason = reason
	p.updatedAt = time.Now()
	return nil
}

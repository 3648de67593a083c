// Package dtos - Payment intent DTOs.
package dtos

import "time"

// CreatePaymentIntentCommand opens a new gateway-side payment intent.
type CreatePaymentIntentCommand struct {
	UserID        string `json:"user_id" validate:"required,uuid"`
	Amount        string `json:"amount" validate:"required"`
	CurrencyCode  string `json:"currency_code" validate:"required,len=3"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CARD UPI NET_BANKING WALLET"`
	Description   string `json:"description"`
}

// GetPaymentIntentQuery looks an intent up by its internal ID.
type GetPaymentIntentQuery struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required,uuid"`
}

// PaymentIntentDTO is the API representation of a payment intent.
type PaymentIntentDTO struct {
	ID               string     `json:"id"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	UserID           string     `json:"user_id"`
	Amount           string     `json:"amount"`
	CurrencyCode     string     `json:"currency_code"`
	PaymentMethod    string     `json:"payment_method"`
	Status           string     `json:"status"`
	Description      string     `json:"description"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	SucceededAt      *time.Time `json:"succeeded_at,omitempty"`
}

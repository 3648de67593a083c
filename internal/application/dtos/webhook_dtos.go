// Package dtos - inbound gateway webhook payload shape.
package dtos

// WebhookPayload is the JSON body the payment gateway posts to the
// webhook endpoint. payment_id doubles as both the payment intent's
// gateway_payment_id and the webhook event's dedup key (event_id).
type WebhookPayload struct {
	Event         string `json:"event"`
	PaymentID     string `json:"payment_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	UserEmail     string `json:"user_email"`
	PaymentMethod string `json:"payment_method"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Package payment holds the Payment Intent store's use cases. Intent
// transitions past PENDING are driven exclusively by the webhook
// processor (internal/application/usecases/webhook) - nothing in this
// package ever marks an intent SUCCEEDED or FAILED.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// CreateIntentUseCase opens a new gateway-side payment intent.
type CreateIntentUseCase struct {
	paymentIntentRepo ports.PaymentIntentRepository
	eventPublisher    ports.EventPublisher
}

// NewCreateIntentUseCase creates a new use case.
func NewCreateIntentUseCase(paymentIntentRepo ports.PaymentIntentRepository, eventPublisher ports.EventPublisher) *CreateIntentUseCase {
	return &CreateIntentUseCase{paymentIntentRepo: paymentIntentRepo, eventPublisher: eventPublisher}
}

// Execute creates a PENDING payment intent and assigns it a unique
// gateway_payment_id of the form "PAY-<16hex>".
func (uc *CreateIntentUseCase) Execute(ctx context.Context, cmd dtos.CreatePaymentIntentCommand) (*dtos.PaymentIntentDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	currency, err := valueobjects.NewCurrency(cmd.CurrencyCode)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "currency_code", Message: "unsupported currency"}
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, currency)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "amount", Message: "invalid amount"}
	}

	gatewayPaymentID := generateGatewayPaymentID()

	intent, err := entities.NewPaymentIntent(
		gatewayPaymentID,
		userID,
		amount,
		entities.PaymentMethod(cmd.PaymentMethod),
		cmd.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent entity: %w", err)
	}

	if err := uc.paymentIntentRepo.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist payment intent: %w", err)
	}

	event := events.NewPaymentIntentCreated(intent.ID(), intent.GatewayPaymentID(), userID, amount)
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish PaymentIntentCreated: %w", err)
	}

	dto := dtos.ToPaymentIntentDTO(intent)
	return &dto, nil
}

const gatewayPaymentIDPrefix = "PAY"

func generateGatewayPaymentID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return gatewayPaymentIDPrefix + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

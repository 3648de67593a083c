// Package postgres - PaymentIntentRepository implementation.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.PaymentIntentRepository = (*PaymentIntentRepository)(nil)

// PaymentIntentRepository implements ports.PaymentIntentRepository.
type PaymentIntentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentIntentRepository creates a new PaymentIntentRepository.
func NewPaymentIntentRepository(pool *pgxpool.Pool) *PaymentIntentRepository {
	return &PaymentIntentRepository{pool: pool}
}

func (r *PaymentIntentRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts a new payment intent.
func (r *PaymentIntentRepository) Create(ctx context.Context, intent *entities.PaymentIntent) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(intent.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	gatewayResponseJSON, err := json.Marshal(intent.GatewayResponse())
	if err != nil {
		return fmt.Errorf("failed to marshal gateway response: %w", err)
	}

	query := `
		INSERT INTO payment_intents (
			id, gateway_payment_id, user_id, amount, currency, payment_method, status,
			description, metadata, gateway_response, failure_reason,
			created_at, updated_at, succeeded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = q.Exec(ctx, query,
		intent.ID(),
		intent.GatewayPaymentID(),
		intent.UserID(),
		intent.Amount().Cents(),
		intent.Amount().Currency().Code(),
		string(intent.PaymentMethod()),
		string(intent.Status()),
		intent.Description(),
		metadataJSON,
		gatewayResponseJSON,
		intent.FailureReason(),
		intent.CreatedAt(),
		intent.UpdatedAt(),
		intent.SucceededAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "payment_intents_gateway_payment_id_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"GATEWAY_PAYMENT_ID_COLLISION",
				"gateway payment id already exists",
				map[string]interface{}{"gateway_payment_id": intent.GatewayPaymentID()},
			)
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError(domainErrors.CodeNotFound, "user not found", err)
		}
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	return nil
}

// Update persists changes to an existing payment intent.
func (r *PaymentIntentRepository) Update(ctx context.Context, intent *entities.PaymentIntent) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(intent.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	gatewayResponseJSON, err := json.Marshal(intent.GatewayResponse())
	if err != nil {
		return fmt.Errorf("failed to marshal gateway response: %w", err)
	}

	query := `
		UPDATE payment_intents SET
			status = $2, description = $3, metadata = $4, gateway_response = $5,
			failure_reason = $6, updated_at = $7, succeeded_at = $8
		WHERE id = $1
	`

	_, err = q.Exec(ctx, query,
		intent.ID(),
		string(intent.Status()),
		intent.Description(),
		metadataJSON,
		gatewayResponseJSON,
		intent.FailureReason(),
		intent.UpdatedAt(),
		intent.SucceededAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}

	return nil
}

const paymentIntentColumns = `
	id, gateway_payment_id, user_id, amount, currency, payment_method, status,
	description, metadata, gateway_response, failure_reason,
	created_at, updated_at, succeeded_at
`

// FindByID loads a payment intent by ID.
func (r *PaymentIntentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + paymentIntentColumns + " FROM payment_intents WHERE id = $1"
	return r.scanPaymentIntent(q.QueryRow(ctx, query, id))
}

// FindByGatewayPaymentID loads a payment intent by its gateway id.
// Returns nil, nil if not found - a miss during webhook processing
// (intent-not-found) is a distinct, expected failure mode, not an
// infrastructure error.
func (r *PaymentIntentRepository) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entities.PaymentIntent, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + paymentIntentColumns + " FROM payment_intents WHERE gateway_payment_id = $1"

	intent, err := r.scanPaymentIntent(q.QueryRow(ctx, query, gatewayPaymentID))
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return intent, nil
}

func (r *PaymentIntentRepository) scanPaymentIntent(row pgx.Row) (*entities.PaymentIntent, error) {
	var (
		id, userID                     uuid.UUID
		gatewayPaymentID               string
		amountCents                    int64
		currencyCode                   string
		paymentMethodStr, statusStr    string
		description                    string
		metadataJSON, gatewayRespJSON  []byte
		failureReason                  string
		createdAt, updatedAt           time.Time
		succeededAt                    *time.Time
	)

	err := row.Scan(
		&id, &gatewayPaymentID, &userID, &amountCents, &currencyCode,
		&paymentMethodStr, &statusStr,
		&description, &metadataJSON, &gatewayRespJSON, &failureReason,
		&createdAt, &updatedAt, &succeededAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan payment intent: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	amount, err := valueobjects.NewMoneyFromCents(amountCents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert amount: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	var gatewayResponse map[string]interface{}
	if len(gatewayRespJSON) > 0 {
		if err := json.Unmarshal(gatewayRespJSON, &gatewayResponse); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
		}
	}

	return entities.ReconstructPaymentIntent(
		id, gatewayPaymentID, userID, amount,
		entities.PaymentMethod(paymentMethodStr), entities.PaymentIntentStatus(statusStr),
		description, metadata, gatewayResponse, failureReason,
		createdAt, updatedAt, succeededAt,
	), nil
}

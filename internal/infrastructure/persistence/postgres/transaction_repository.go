// Package postgres - TransactionRepository implementation with idempotency support.
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
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements ports.TransactionRepository.
//
// Key points:
// - Idempotency via the unique reference_id
// - Metadata stored as JSONB
// - Amount stored as BIGINT (cents)
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// getQuerier returns the querier from the context, or the pool.
func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save persists the transaction: INSERT for new rows, UPDATE for
// existing ones.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(tx.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (
			id, reference_id, from_user_id, to_user_id, transaction_type, status,
			amount, currency,
			from_balance_before, from_balance_after, to_balance_before, to_balance_after,
			description, metadata, failure_reason, retry_count,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			from_balance_before = EXCLUDED.from_balance_before,
			from_balance_after = EXCLUDED.from_balance_after,
			to_balance_before = EXCLUDED.to_balance_before,
			to_balance_after = EXCLUDED.to_balance_after,
			description = EXCLUDED.description,
			metadata = EXCLUDED.metadata,
			failure_reason = EXCLUDED.failure_reason,
			retry_count = EXCLUDED.retry_count,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = q.Exec(ctx, query,
		tx.ID(),
		tx.ReferenceID(),
		tx.FromUserID(),
		tx.ToUserID(),
		string(tx.Type()),
		string(tx.Status()),
		tx.Amount().Cents(),
		tx.Amount().Currency().Code(),
		centsOrNil(tx.FromBalanceBefore()),
		centsOrNil(tx.FromBalanceAfter()),
		centsOrNil(tx.ToBalanceBefore()),
		centsOrNil(tx.ToBalanceAfter()),
		tx.Description(),
		metadataJSON,
		tx.FailureReason(),
		tx.RetryCount(),
		tx.CreatedAt(),
		tx.UpdatedAt(),
		tx.CompletedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "transactions_reference_id_unique") {
			return domainErrors.ErrDuplicateTransaction
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError(domainErrors.CodeNotFound, "user not found", err)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// centsOrNil converts a nullable Money to a nullable cents value for scanning.
func centsOrNil(m *valueobjects.Money) *int64 {
	if m == nil {
		return nil
	}
	cents := m.Cents()
	return &cents
}

const transactionColumns = `
	id, reference_id, from_user_id, to_user_id, transaction_type, status,
	amount, currency,
	from_balance_before, from_balance_after, to_balance_before, to_balance_after,
	description, metadata, failure_reason, retry_count,
	created_at, updated_at, completed_at
`

// FindByID loads a transaction by ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1"
	return r.scanTransaction(q.QueryRow(ctx, query, id))
}

// FindByReferenceID finds a transaction by its idempotency key.
// This is what prevents duplicates; absence is not an error.
func (r *TransactionRepository) FindByReferenceID(ctx context.Context, referenceID string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + transactionColumns + " FROM transactions WHERE reference_id = $1"

	tx, err := r.scanTransaction(q.QueryRow(ctx, query, referenceID))
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// FindByUserID returns a user's transactions (either side), paginated.
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + transactionColumns + `
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions by user: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// List returns transactions with filters and pagination.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := "SELECT " + transactionColumns + " FROM transactions WHERE 1=1"

	args := []interface{}{}
	argNum := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND (from_user_id = $%d OR to_user_id = $%d)", argNum, argNum)
		args = append(args, *filter.UserID)
		argNum++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND transaction_type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// scanTransaction scans one row into a Transaction entity.
func (r *TransactionRepository) scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id                         uuid.UUID
		referenceID                string
		fromUserID, toUserID       *uuid.UUID
		txTypeStr, statusStr       string
		amountCents                int64
		currencyCode               string
		fromBefore, fromAfter      *int64
		toBefore, toAfter          *int64
		description                string
		metadataJSON               []byte
		failureReason              string
		retryCount                 int
		createdAt, updatedAt       time.Time
		completedAt                *time.Time
	)

	err := row.Scan(
		&id, &referenceID, &fromUserID, &toUserID, &txTypeStr, &statusStr,
		&amountCents, &currencyCode,
		&fromBefore, &fromAfter, &toBefore, &toAfter,
		&description, &metadataJSON, &failureReason, &retryCount,
		&createdAt, &updatedAt, &completedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	return buildTransaction(
		id, referenceID, fromUserID, toUserID, txTypeStr, statusStr,
		amountCents, currencyCode,
		fromBefore, fromAfter, toBefore, toAfter,
		description, metadataJSON, failureReason, retryCount,
		createdAt, updatedAt, completedAt,
	)
}

// scanTransactions scans multiple rows.
func (r *TransactionRepository) scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var transactions []*entities.Transaction

	for rows.Next() {
		var (
			id                         uuid.UUID
			referenceID                string
			fromUserID, toUserID       *uuid.UUID
			txTypeStr, statusStr       string
			amountCents                int64
			currencyCode               string
			fromBefore, fromAfter      *int64
			toBefore, toAfter          *int64
			description                string
			metadataJSON               []byte
			failureReason              string
			retryCount                 int
			createdAt, updatedAt       time.Time
			completedAt                *time.Time
		)

		err := rows.Scan(
			&id, &referenceID, &fromUserID, &toUserID, &txTypeStr, &statusStr,
			&amountCents, &currencyCode,
			&fromBefore, &fromAfter, &toBefore, &toAfter,
			&description, &metadataJSON, &failureReason, &retryCount,
			&createdAt, &updatedAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		tx, err := buildTransaction(
			id, referenceID, fromUserID, toUserID, txTypeStr, statusStr,
			amountCents, currencyCode,
			fromBefore, fromAfter, toBefore, toAfter,
			description, metadataJSON, failureReason, retryCount,
			createdAt, updatedAt, completedAt,
		)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// buildTransaction reconstructs a Transaction entity from scanned columns,
// shared by the single-row and multi-row scan paths.
func buildTransaction(
	id uuid.UUID,
	referenceID string,
	fromUserID, toUserID *uuid.UUID,
	txTypeStr, statusStr string,
	amountCents int64,
	currencyCode string,
	fromBeforeCents, fromAfterCents, toBeforeCents, toAfterCents *int64,
	description string,
	metadataJSON []byte,
	failureReason string,
	retryCount int,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
) (*entities.Transaction, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	amount, err := valueobjects.NewMoneyFromCents(amountCents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert amount: %w", err)
	}

	fromBalanceBefore, err := moneyOrNil(fromBeforeCents, currency)
	if err != nil {
		return nil, err
	}
	fromBalanceAfter, err := moneyOrNil(fromAfterCents, currency)
	if err != nil {
		return nil, err
	}
	toBalanceBefore, err := moneyOrNil(toBeforeCents, currency)
	if err != nil {
		return nil, err
	}
	toBalanceAfter, err := moneyOrNil(toAfterCents, currency)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return entities.ReconstructTransaction(
		id, referenceID, fromUserID, toUserID,
		entities.TransactionType(txTypeStr), entities.TransactionStatus(statusStr),
		amount,
		fromBalanceBefore, fromBalanceAfter, toBalanceBefore, toBalanceAfter,
		description, metadata, failureReason, retryCount,
		createdAt, updatedAt, completedAt,
	), nil
}

// moneyOrNil converts a nullable cents column back to a nullable Money pointer.
func moneyOrNil(cents *int64, currency valueobjects.Currency) (*valueobjects.Money, error) {
	if cents == nil {
		return nil, nil
	}
	m, err := valueobjects.NewMoneyFromCents(*cents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert balance: %w", err)
	}
	return &m, nil
}

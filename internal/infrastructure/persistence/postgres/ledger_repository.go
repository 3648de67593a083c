// Package postgres - LedgerRepository implementation. The ledger is
// append-only: there is no Update or Delete, mirroring the port's
// type-level guarantee.
package postgres

import (
	"context"
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
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements ports.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Append inserts a single ledger entry. There is no ON CONFLICT clause:
// a collision on id would be a programmer error, not a retryable race.
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transaction_ledger (
			id, transaction_id, user_id, entry_type, amount, currency, balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		entry.ID(),
		entry.TransactionID(),
		entry.UserID(),
		string(entry.EntryType()),
		entry.Amount().Cents(),
		entry.Amount().Currency().Code(),
		entry.BalanceAfter().Cents(),
		entry.CreatedAt(),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError(domainErrors.CodeNotFound, "transaction not found", err)
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

const ledgerEntryColumns = `id, transaction_id, user_id, entry_type, amount, currency, balance_after, created_at`

// FindByUserID returns a user's ledger entries, newest first.
func (r *LedgerRepository) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + ledgerEntryColumns + `
		FROM transaction_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries by user: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// FindByTransactionID returns the one or two entries a transaction produced.
func (r *LedgerRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + ledgerEntryColumns + `
		FROM transaction_ledger
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries by transaction: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

func scanLedgerEntries(rows pgx.Rows) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry

	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	return entries, nil
}

func scanLedgerEntry(scanner interface{ Scan(dest ...any) error }) (*entities.LedgerEntry, error) {
	var (
		id, transactionID, userID uuid.UUID
		entryTypeStr              string
		amountCents               int64
		currencyCode              string
		balanceAfterCents         int64
		createdAt                 time.Time
	)

	err := scanner.Scan(&id, &transactionID, &userID, &entryTypeStr, &amountCents, &currencyCode, &balanceAfterCents, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	amount, err := valueobjects.NewMoneyFromCents(amountCents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert amount: %w", err)
	}

	balanceAfter, err := valueobjects.NewMoneyFromCents(balanceAfterCents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert balance_after: %w", err)
	}

	return entities.ReconstructLedgerEntry(id, transactionID, userID, entities.EntryType(entryTypeStr), amount, balanceAfter, createdAt), nil
}

// Package postgres - WalletRepository implementation with pessimistic,
// row-level locking. The DB is the single source of concurrency truth:
// GetForUpdate issues SELECT ... FOR UPDATE and ApplyDelta is the only
// call in the codebase allowed to mutate a balance.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository implements ports.WalletRepository.
//
// Balance is stored as BIGINT cents, one row per user (single-currency
// deployment - one wallet per user, no wallet_type/status axis).
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier returns the querier from the context, or the pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save persists the wallet (create or update). Upsert on id.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (id, user_id, currency, balance, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.Currency().Code(),
		wallet.Balance().Cents(),
		wallet.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "wallets_user_id_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"WALLET_ALREADY_EXISTS",
				"wallet already exists for this user",
				map[string]interface{}{"user_id": wallet.UserID().String()},
			)
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError(domainErrors.CodeNotFound, "user not found", err)
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	return nil
}

// FindByID loads a wallet by ID.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)
	query := `SELECT id, user_id, currency, balance, updated_at FROM wallets WHERE id = $1`
	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// FindByUserID loads the user's single wallet.
func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)
	query := `SELECT id, user_id, currency, balance, updated_at FROM wallets WHERE user_id = $1`
	return r.scanWallet(q.QueryRow(ctx, query, userID))
}

// GetForUpdate loads a wallet and locks its row for the duration of the
// caller's transaction. Must be called with a context carrying an
// active UnitOfWork transaction - calling it outside one still issues
// the lock against an implicit autocommit "transaction" of one
// statement, which defeats the purpose, so callers outside a
// UnitOfWork get an explicit error instead of a silently useless lock.
func (r *WalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	tx := txFrom(ctx)
	if tx == nil {
		return nil, domainErrors.NewDomainError(
			domainErrors.CodeInternal,
			"GetForUpdate called outside a UnitOfWork transaction",
			nil,
		)
	}

	query := `SELECT id, user_id, currency, balance, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.scanWallet(tx.QueryRow(ctx, query, userID))
}

// ApplyDelta is the only wallet-mutating call in the codebase. Must be
// called while holding the row lock acquired by GetForUpdate in the
// same transaction.
func (r *WalletRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (valueobjects.Money, error) {
	tx := txFrom(ctx)
	if tx == nil {
		return valueobjects.Money{}, domainErrors.NewDomainError(
			domainErrors.CodeInternal,
			"ApplyDelta called outside a UnitOfWork transaction",
			nil,
		)
	}

	deltaCents := delta.Shift(2).IntPart()

	query := `
		UPDATE wallets SET balance = balance + $2, updated_at = $3
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING currency, balance
	`

	var currencyCode string
	var balanceCents int64
	err := tx.QueryRow(ctx, query, userID, deltaCents, time.Now()).Scan(&currencyCode, &balanceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the wallet doesn't exist, or the condition
			// balance + delta >= 0 failed - in practice the latter,
			// since the caller already holds the row lock from
			// GetForUpdate and knows the wallet exists.
			return valueobjects.Money{}, domainErrors.ErrInsufficientBalance
		}
		return valueobjects.Money{}, fmt.Errorf("failed to apply wallet delta: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return valueobjects.Money{}, fmt.Errorf("invalid currency in database: %w", err)
	}
	return valueobjects.NewMoneyFromCents(balanceCents, currency)
}

// ExistsByUserID checks whether the user's wallet exists.
func (r *WalletRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	q := r.getQuerier(ctx)
	query := `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	return exists, nil
}

// scanWallet scans one row into a Wallet entity.
func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, userID     uuid.UUID
		currencyCode   string
		balanceCents   int64
		updatedAt      time.Time
	)

	err := row.Scan(&id, &userID, &currencyCode, &balanceCents, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	balance, err := valueobjects.NewMoneyFromCents(balanceCents, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert balance: %w", err)
	}

	return entities.ReconstructWallet(id, userID, balance, updatedAt), nil
}

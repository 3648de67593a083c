package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// txCtxKey is the transaction key in the context. The Unit of Work
// stores the pgx.Tx here; repositories retrieve it via txFrom.
type txCtxKey struct{}

// withTx returns a context carrying the transaction.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// txFrom extracts the transaction from the context, nil when absent.
func txFrom(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txCtxKey{}).(pgx.Tx)
	return tx
}

// inTx reports whether we are already inside a transaction.
func inTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// PostgreSQL error classes the domain logic depends on.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgNotNullViolation     = "23502"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// pgError unwraps err to *pgconn.PgError, nil when it is not a
// Postgres error.
func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// isUniqueViolation reports a UNIQUE constraint violation. When a
// constraint name is given it is checked too: repositories need to
// tell transactions_reference_id_unique (an idempotent replay) apart
// from any other unique index.
func isUniqueViolation(err error, constraintName string) bool {
	pgErr := pgError(err)
	if pgErr == nil || pgErr.Code != pgUniqueViolation {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(pgErr.ConstraintName, constraintName)
}

func isForeignKeyViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgForeignKeyViolation
}

func isNotNullViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgNotNullViolation
}

func isCheckViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgCheckViolation
}

// isSerializationFailure reports a deadlock or serialization
// conflict; both mean "retry the whole transaction".
func isSerializationFailure(err error) bool {
	pgErr := pgError(err)
	if pgErr == nil {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// isRetryableError: serialization failures and class 08 errors
// (connection exception) are retryable; nothing else is.
func isRetryableError(err error) bool {
	if isSerializationFailure(err) {
		return true
	}
	if pgErr := pgError(err); pgErr != nil {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}

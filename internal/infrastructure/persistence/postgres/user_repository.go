// Package postgres - UserRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
)

// Compile-time check: UserRepository implements ports.UserRepository
var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository on PostgreSQL.
//
// Thread-safe via the connection pool. Transaction-aware: it picks
// up a transaction from the context automatically when one exists.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// querier abstracts query execution, so both the pool and a
// transaction can serve.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getQuerier returns the querier from the context (transaction) or
// the pool.
func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save persists the user (INSERT or UPDATE). Upsert on id.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (
			id, email, full_name, active, kyc_status,
			kyc_submitted_at, kyc_verified_at, kyc_expires_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			active = EXCLUDED.active,
			kyc_status = EXCLUDED.kyc_status,
			kyc_submitted_at = EXCLUDED.kyc_submitted_at,
			kyc_verified_at = EXCLUDED.kyc_verified_at,
			kyc_expires_at = EXCLUDED.kyc_expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		user.ID(),
		user.Email(),
		user.FullName(),
		user.Active(),
		string(user.KYCStatus()),
		user.KYCSubmittedAt(),
		user.KYCVerifiedAt(),
		user.KYCExpiresAt(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)

	if err != nil {
		// Duplicate email (UNIQUE constraint violation)
		if isUniqueViolation(err, "users_email_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"EMAIL_ALREADY_EXISTS",
				fmt.Sprintf("user with email %s already exists", user.Email()),
				map[string]interface{}{"email": user.Email()},
			)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// scanUser scans a row into a User entity.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*entities.User, error) {
	var (
		userID                                      uuid.UUID
		email                                       string
		fullName                                    string
		active                                      bool
		kycStatus                                   string
		kycSubmittedAt, kycVerifiedAt, kycExpiresAt *time.Time
		createdAt, updatedAt                        time.Time
	)

	err := scanner.Scan(
		&userID,
		&email,
		&fullName,
		&active,
		&kycStatus,
		&kycSubmittedAt,
		&kycVerifiedAt,
		&kycExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructUser(
		userID, email, fullName, active,
		entities.KYCStatus(kycStatus),
		kycSubmittedAt, kycVerifiedAt, kycExpiresAt,
		createdAt, updatedAt,
	), nil
}

const userColumns = `id, email, full_name, active, kyc_status, kyc_submitted_at, kyc_verified_at, kyc_expires_at, created_at, updated_at`

// FindByID loads a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	return user, nil
}

// FindByEmail loads a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// ExistsByEmail checks whether a user with the email exists,
// without loading the full row.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := r.getQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := q.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// List returns a paginated list of users.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// FindVerifiedExpiring returns VERIFIED users whose kyc_expires_at has
// passed olderThan, for the scheduled KYC-expiry scan.
func (r *UserRepository) FindVerifiedExpiring(ctx context.Context, olderThan time.Time, limit int) ([]*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE kyc_status = $1 AND kyc_expires_at IS NOT NULL AND kyc_expires_at < $2
		ORDER BY kyc_expires_at ASC
		LIMIT $3
	`

	rows, err := q.Query(ctx, query, string(entities.KYCStatusVerified), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring verified users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

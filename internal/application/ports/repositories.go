// Package ports defines the interfaces (ports) for external dependencies.
// These interfaces are implemented in the Infrastructure Layer.
//
// SOLID Principles:
// - DIP: Application depends on abstractions, not concrete implementations
// - ISP: Each interface focuses on a single entity
// - SRP: Each repository is responsible only for persistence of its entity
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paybridge/ledgercore/internal/domain/entities"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// UserRepository is the contract for storing users.
type UserRepository interface {
	// Save persists a user (create or update), upserting on ID.
	Save(ctx context.Context, user *entities.User) error

	// FindByID loads a user by ID. Returns ErrEntityNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail loads a user by email. Email is unique system-wide.
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// ExistsByEmail checks existence without loading the full entity.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns users with pagination.
	List(ctx context.Context, offset, limit int) ([]*entities.User, error)

	// FindVerifiedExpiring returns VERIFIED users whose kyc_expires_at
	// has passed olderThan, for the scheduled KYC-expiry scan.
	FindVerifiedExpiring(ctx context.Context, olderThan time.Time, limit int) ([]*entities.User, error)
}

// WalletRepository is the contract for storing wallets.
//
// ApplyDelta is the only wallet-mutating call in the codebase and must
// only be invoked while holding the row lock obtained by GetForUpdate,
// inside a ports.UnitOfWork transaction.
type WalletRepository interface {
	// Save persists a wallet (create or update).
	Save(ctx context.Context, wallet *entities.Wallet) error

	// FindByID loads a wallet by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByUserID loads the wallet belonging to a user. A user has
	// exactly one wallet in this single-currency deployment.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// GetForUpdate issues SELECT ... FROM wallets WHERE user_id = $1
	// FOR UPDATE. Only valid inside a transaction started via
	// UnitOfWork - callers outside one get an error from the
	// implementation.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// ApplyDelta adds delta (negative for a debit, positive for a
	// credit) to the wallet's balance and returns the resulting
	// balance. Money itself cannot hold a negative amount, so the
	// signed delta is a decimal.Decimal rather than a Money. Returns
	// errors.ErrInsufficientBalance if the delta would take the
	// balance negative.
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (valueobjects.Money, error)

	// ExistsByUserID checks existence without loading the full entity.
	ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error)
}

// LedgerRepository is the contract for the append-only transaction
// ledger. There is no Update or Delete method - append-only is a
// type-level guarantee of the interface, not just a convention.
type LedgerRepository interface {
	// Append inserts a single ledger entry.
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// FindByUserID returns a user's ledger entries, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error)

	// FindByTransactionID returns the one or two entries a transaction produced.
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)
}

// TransactionRepository is the contract for storing transactions.
type TransactionRepository interface {
	// Save persists a transaction (create or update).
	Save(ctx context.Context, tx *entities.Transaction) error

	// FindByID loads a transaction by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByReferenceID finds a transaction by its caller-supplied or
	// generated reference id. Returns nil, nil if not found - this is
	// the idempotency lookup used by the transfer engine, a miss is
	// the expected common case, not an error.
	FindByReferenceID(ctx context.Context, referenceID string) (*entities.Transaction, error)

	// FindByUserID returns a user's transactions (either side), paginated.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.Transaction, error)

	// List returns transactions with filtering and pagination.
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, error)
}

// TransactionFilter describes filter criteria for transactions.
type TransactionFilter struct {
	UserID *uuid.UUID
	Type   *entities.TransactionType
	Status *entities.TransactionStatus
}

// PaymentIntentRepository is the contract for storing payment intents.
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *entities.PaymentIntent) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error)
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entities.PaymentIntent, error)
	Update(ctx context.Context, intent *entities.PaymentIntent) error
}

// WebhookEventRepository is the contract for storing inbound webhook
// deliveries.
type WebhookEventRepository interface {
	// Create inserts a new webhook event. Must be called before the
	// event is handed to the WebhookQueue, so a crash between insert
	// and enqueue never loses the event.
	Create(ctx context.Context, event *entities.WebhookEvent) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.WebhookEvent, error)

	// FindByEventID finds a webhook event by the gateway's event id,
	// the dedup key. Returns nil, nil if not found.
	FindByEventID(ctx context.Context, eventID string) (*entities.WebhookEvent, error)

	Update(ctx context.Context, event *entities.WebhookEvent) error

	// FindRetryable returns PENDING events whose retry is due,
	// for the periodic retry scan.
	FindRetryable(ctx context.Context, limit int) ([]*entities.WebhookEvent, error)

	// PurgeProcessedBefore deletes PROCESSED events older than
	// olderThan and returns the number of rows removed. FAILED rows
	// are never touched by this method.
	PurgeProcessedBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// IdempotencyCache is the fast tier of the two-tier idempotency check
// described in the transfer engine: a cache miss or an unreachable
// cache both fall through to the repository's unique-index lookup,
// never block a transfer. Implementations must treat errors as misses.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (transactionID uuid.UUID, ok bool)
	Set(ctx context.Context, key string, transactionID uuid.UUID, ttl time.Duration)
}

// WebhookQueue decouples webhook ingestion from processing.
type WebhookQueue interface {
	// Enqueue schedules a webhook event for processing, optionally
	// after delay (used for exponential-backoff retries; zero means
	// "as soon as possible").
	Enqueue(ctx context.Context, eventID uuid.UUID, delay time.Duration) error

	// Subscribe registers a handler invoked for each enqueued event id.
	Subscribe(ctx context.Context, handler func(ctx context.Context, eventID uuid.UUID) error) error
}

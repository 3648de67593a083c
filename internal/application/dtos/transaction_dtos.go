// Package dtos - Transaction and ledger DTOs for the transfer engine.
package dtos

import "time"

// ============================================
// Commands (write operations)
// ============================================

// TransferCommand moves funds from one user's wallet to another's.
type TransferCommand struct {
	FromUserID     string                 `json:"from_user_id" validate:"required,uuid"`
	ToUserID       string                 `json:"to_user_id" validate:"required,uuid"`
	Amount         string                 `json:"amount" validate:"required"`
	Description    string                 `json:"description" validate:"required"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// DepositCommand credits a single user's wallet. Only ever invoked by
// the webhook processor - there is no public HTTP deposit endpoint.
type DepositCommand struct {
	UserID      string                 `json:"user_id" validate:"required,uuid"`
	Amount      string                 `json:"amount" validate:"required"`
	Description string                 `json:"description" validate:"required"`
	ReferenceID string                 `json:"reference_id" validate:"required"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ============================================
// Queries (read operations)
// ============================================

// GetTransactionQuery looks up a transaction by ID.
type GetTransactionQuery struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
}

// GetByReferenceIDQuery looks a transaction up by its idempotency key.
type GetByReferenceIDQuery struct {
	ReferenceID string `json:"reference_id" validate:"required"`
}

// ListTransactionsQuery lists transactions with filters.
type ListTransactionsQuery struct {
	UserID *string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	Type   *string `json:"type,omitempty" validate:"omitempty,oneof=TRANSFER DEPOSIT WITHDRAWAL REFUND FEE"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED CANCELLED"`
	Offset int     `json:"offset" validate:"min=0"`
	Limit  int     `json:"limit" validate:"min=1,max=100"`
}

// ============================================
// Response DTOs
// ============================================

// TransactionDTO is the API representation of a transaction.
type TransactionDTO struct {
	ID                string     `json:"id"`
	ReferenceID       string     `json:"reference_id"`
	FromUserID        *string    `json:"from_user_id,omitempty"`
	ToUserID          *string    `json:"to_user_id,omitempty"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Amount            string     `json:"amount"`
	CurrencyCode      string     `json:"currency_code"`
	FromBalanceBefore *string    `json:"from_balance_before,omitempty"`
	FromBalanceAfter  *string    `json:"from_balance_after,omitempty"`
	ToBalanceBefore   *string    `json:"to_balance_before,omitempty"`
	ToBalanceAfter    *string    `json:"to_balance_after,omitempty"`
	Description       string     `json:"description"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	RetryCount        int        `json:"retry_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// TransactionListDTO is the transaction list result.
type TransactionListDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	TotalCount   int              `json:"total_count"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
}

// LedgerEntryDTO is the API representation of one ledger entry.
type LedgerEntryDTO struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	EntryType     string    `json:"entry_type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

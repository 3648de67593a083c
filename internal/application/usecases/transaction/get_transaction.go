// Package transaction - read-side use cases over the transaction ledger.
// Unlike ledger.TransferUseCase, these never touch the UnitOfWork - they
// are plain repository reads.
package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/errors"
)

// GetTransactionUseCase loads a single transaction by ID. Ownership
// (the caller can only see their own transactions) is enforced by the
// HTTP handler, not here - this use case is a plain lookup.
type GetTransactionUseCase struct {
	transactionRepo ports.TransactionRepository
}

// NewGetTransactionUseCase creates a new use case.
func NewGetTransactionUseCase(transactionRepo ports.TransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute returns a transaction by ID.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	id, err := uuid.Parse(query.TransactionID)
	if err != nil {
		return nil, errors.ValidationError{Field: "transaction_id", Message: "invalid UUID"}
	}

	tx, err := uc.transactionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewDomainError(errors.CodeNotFound, "transaction not found", err)
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	dto := dtos.ToTransactionDTO(tx)
	return &dto, nil
}

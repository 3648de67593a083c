package transaction

import (
	"fmt"

	"context"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	"github.com/paybridge/ledgercore/internal/domain/errors"
)

// ListTransactionsUseCase returns a filtered, paginated view over the
// transaction table - a user's own history, optionally narrowed by
// type/status.
type ListTransactionsUseCase struct {
	transactionRepo ports.TransactionRepository
}

// NewListTransactionsUseCase creates a new use case.
func NewListTransactionsUseCase(transactionRepo ports.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute returns transactions with filters and pagination.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error) {
	filter := ports.TransactionFilter{}

	if query.UserID != nil {
		userID, err := uuid.Parse(*query.UserID)
		if err != nil {
			return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
		}
		filter.UserID = &userID
	}

	if query.Type != nil {
		t := entities.TransactionType(*query.Type)
		if !t.IsValid() {
			return nil, errors.ValidationError{Field: "type", Message: "invalid transaction type"}
		}
		filter.Type = &t
	}

	if query.Status != nil {
		s := entities.TransactionStatus(*query.Status)
		if !s.IsValid() {
			return nil, errors.ValidationError{Field: "status", Message: "invalid transaction status"}
		}
		filter.Status = &s
	}

	transactions, err := uc.transactionRepo.List(ctx, filter, query.Offset, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dtos.TransactionListDTO{
		Transactions: dtos.ToTransactionDTOList(transactions),
		TotalCount:   len(transactions),
		Offset:       query.Offset,
		Limit:        query.Limit,
	}, nil
}

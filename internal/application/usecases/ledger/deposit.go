package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// DepositUseCase credits a single user's wallet. It has no public HTTP
// surface - the webhook processor is the only caller, invoked once a
// payment.succeeded event has been verified, and supplies a
// caller-generated reference_id of the form "DEPOSIT-<gateway_payment_id>"
// so redelivery of the same webhook never double-credits.
//
// Unlike a transfer, a deposit carries no KYC gate: the gateway has
// already captured the money, so the credit lands regardless of the
// user's verification state. The gate applies when funds move OUT.
type DepositUseCase struct {
	walletRepo     ports.WalletRepository
	txRepo         ports.TransactionRepository
	ledgerRepo     ports.LedgerRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewDepositUseCase creates a new use case.
func NewDepositUseCase(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *DepositUseCase {
	return &DepositUseCase{
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute credits cmd.UserID's wallet by cmd.Amount, idempotent on
// cmd.ReferenceID.
func (uc *DepositUseCase) Execute(ctx context.Context, cmd dtos.DepositCommand) (*dtos.TransactionDTO, error) {
	ctx, span := tracer.Start(ctx, "DepositUseCase.Execute")
	defer span.End()

	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	if existing, err := uc.txRepo.FindByReferenceID(ctx, cmd.ReferenceID); err == nil && existing != nil {
		dto := dtos.ToTransactionDTO(existing)
		return &dto, nil
	}

	wallet, err := uc.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrWalletNotFound) {
			return nil, domainErrors.NewDomainError(domainErrors.CodeNotFound, "wallet not found", err)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, wallet.Currency())
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "amount", Message: "invalid amount"}
	}

	tx, err := entities.NewTransaction(cmd.ReferenceID, nil, &userID, entities.TransactionTypeDeposit, amount, cmd.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction entity: %w", err)
	}
	if err := tx.StartProcessing(); err != nil {
		return nil, fmt.Errorf("failed to start processing: %w", err)
	}

	var result *entities.Transaction
	execErr := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.txRepo.Save(txCtx, tx); err != nil {
			if errors.Is(err, domainErrors.ErrDuplicateTransaction) {
				existing, findErr := uc.txRepo.FindByReferenceID(txCtx, cmd.ReferenceID)
				if findErr != nil {
					return fmt.Errorf("failed to re-query duplicate transaction: %w", findErr)
				}
				result = existing
				return nil
			}
			return fmt.Errorf("failed to persist transaction header: %w", err)
		}

		lockedWallet, err := uc.walletRepo.GetForUpdate(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		toBefore := lockedWallet.Balance()
		toAfterMoney, err := uc.walletRepo.ApplyDelta(txCtx, userID, amount.Amount())
		if err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}

		creditEntry, err := entities.NewLedgerEntry(tx.ID(), userID, entities.EntryTypeCredit, amount, toAfterMoney)
		if err != nil {
			return fmt.Errorf("failed to build credit ledger entry: %w", err)
		}
		if err := uc.ledgerRepo.Append(txCtx, creditEntry); err != nil {
			return fmt.Errorf("failed to append credit ledger entry: %w", err)
		}

		tx.RecordDestinationBalances(toBefore, toAfterMoney)
		if err := tx.MarkCompleted(); err != nil {
			return fmt.Errorf("failed to mark transaction completed: %w", err)
		}
		if err := uc.txRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to persist completed transaction: %w", err)
		}

		completionEvents := []events.DomainEvent{
			events.NewTransactionCreated(tx.ID(), tx.ReferenceID(), string(tx.Type()), amount, nil, &userID),
			events.NewTransactionCompleted(tx.ID(), string(tx.Type()), amount),
			events.NewWalletCredited(userID, amount, tx.ID(), toAfterMoney),
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, completionEvents); err != nil {
			return fmt.Errorf("failed to publish deposit completion events: %w", err)
		}

		result = tx
		return nil
	})

	if execErr != nil {
		return nil, execErr
	}

	dto := dtos.ToTransactionDTO(result)
	return &dto, nil
}

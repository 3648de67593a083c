package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/paybridge/ledgercore/internal/pkg/tracing"
)

var tracer = tracing.Tracer("ledgercore/ledger")

const referencePrefixTransfer = "TXN"

// insufficientBalanceMarker is returned from inside the uow.Execute
// closure to force a rollback of the PROCESSING row without looking
// like an infrastructure failure to the caller.
type insufficientBalanceMarker struct {
	reason string
}

func (e *insufficientBalanceMarker) Error() string { return e.reason }

// TransferUseCase moves funds between two users' wallets.
//
// This is the single highest-stakes piece of the system: preconditions
// are checked before any row lock is taken, wallets are locked in a
// deterministic order to avoid deadlocks with a concurrent reverse
// transfer, and a failed attempt is recorded in a transaction separate
// from the one that was rolled back.
type TransferUseCase struct {
	userRepo         ports.UserRepository
	walletRepo       ports.WalletRepository
	txRepo           ports.TransactionRepository
	ledgerRepo       ports.LedgerRepository
	idempotencyCache ports.IdempotencyCache
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork

	minAmount      decimal.Decimal
	maxAmount      decimal.Decimal
	idempotencyTTL time.Duration
}

// NewTransferUseCase creates a new use case.
func NewTransferUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerRepository,
	idempotencyCache ports.IdempotencyCache,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	minAmount, maxAmount decimal.Decimal,
	idempotencyTTL time.Duration,
) *TransferUseCase {
	return &TransferUseCase{
		userRepo:         userRepo,
		walletRepo:       walletRepo,
		txRepo:           txRepo,
		ledgerRepo:       ledgerRepo,
		idempotencyCache: idempotencyCache,
		eventPublisher:   eventPublisher,
		uow:              uow,
		minAmount:        minAmount,
		maxAmount:        maxAmount,
		idempotencyTTL:   idempotencyTTL,
	}
}

// Execute runs a single transfer attempt to completion.
func (uc *TransferUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransactionDTO, error) {
	ctx, span := tracer.Start(ctx, "TransferUseCase.Execute")
	defer span.End()

	fromUserID, err := uuid.Parse(cmd.FromUserID)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "from_user_id", Message: "invalid UUID"}
	}
	toUserID, err := uuid.Parse(cmd.ToUserID)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "to_user_id", Message: "invalid UUID"}
	}

	if fromUserID == toUserID {
		return nil, domainErrors.NewDomainError(domainErrors.CodeInvalidTransaction, "cannot transfer to the same user", domainErrors.ErrSelfTransfer)
	}

	// Preconditions are checked before any row is locked.
	fromUser, err := uc.userRepo.FindByID(ctx, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}
	toUser, err := uc.userRepo.FindByID(ctx, toUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if !fromUser.CanTransact() {
		return nil, domainErrors.NewDomainError(domainErrors.CodeInvalidTransaction, "sender is not eligible to transact", domainErrors.ErrUserCannotTransact)
	}
	if !toUser.CanTransact() {
		return nil, domainErrors.NewDomainError(domainErrors.CodeInvalidTransaction, "recipient is not eligible to transact", domainErrors.ErrUserCannotTransact)
	}

	fromWallet, err := uc.walletRepo.FindByUserID(ctx, fromUserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrWalletNotFound) {
			return nil, domainErrors.NewDomainError(domainErrors.CodeNotFound, "sender wallet not found", err)
		}
		return nil, fmt.Errorf("failed to load sender wallet: %w", err)
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, fromWallet.Currency())
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "amount", Message: "invalid amount"}
	}
	if amount.Amount().LessThan(uc.minAmount) || amount.Amount().GreaterThan(uc.maxAmount) {
		return nil, domainErrors.NewDomainError(
			domainErrors.CodeInvalidTransaction,
			fmt.Sprintf("amount must be between %s and %s", uc.minAmount.String(), uc.maxAmount.String()),
			nil,
		)
	}

	referenceID := cmd.IdempotencyKey
	if referenceID == "" {
		referenceID = generateReferenceID(referencePrefixTransfer)
	}

	// Idempotency check, cache as a hint with the repository as authority.
	if existing, ok := uc.lookupExisting(ctx, referenceID); ok {
		dto := dtos.ToTransactionDTO(existing)
		return &dto, nil
	}

	tx, err := entities.NewTransaction(referenceID, &fromUserID, &toUserID, entities.TransactionTypeTransfer, amount, cmd.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction entity: %w", err)
	}
	if err := tx.StartProcessing(); err != nil {
		return nil, fmt.Errorf("failed to start processing: %w", err)
	}

	var result *entities.Transaction
	var insufficientReason string

	execErr := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.txRepo.Save(txCtx, tx); err != nil {
			if domainErrors.IsNotFound(err) {
				return err
			}
			if errors.Is(err, domainErrors.ErrDuplicateTransaction) {
				existing, findErr := uc.txRepo.FindByReferenceID(txCtx, referenceID)
				if findErr != nil {
					return fmt.Errorf("failed to re-query duplicate transaction: %w", findErr)
				}
				result = existing
				return nil
			}
			return fmt.Errorf("failed to persist transaction header: %w", err)
		}

		firstUserID, secondUserID := lockOrder(fromUserID, toUserID)
		lockedFirst, err := uc.walletRepo.GetForUpdate(txCtx, firstUserID)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}
		lockedSecond, err := uc.walletRepo.GetForUpdate(txCtx, secondUserID)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		var lockedFromWallet, lockedToWallet *entities.Wallet
		if firstUserID == fromUserID {
			lockedFromWallet, lockedToWallet = lockedFirst, lockedSecond
		} else {
			lockedFromWallet, lockedToWallet = lockedSecond, lockedFirst
		}

		// Re-check eligibility now that the locks are held - KYC/active
		// state is never cached, and may have changed since the
		// precondition check above.
		freshFromUser, err := uc.userRepo.FindByID(txCtx, fromUserID)
		if err != nil {
			return fmt.Errorf("failed to reload sender: %w", err)
		}
		freshToUser, err := uc.userRepo.FindByID(txCtx, toUserID)
		if err != nil {
			return fmt.Errorf("failed to reload recipient: %w", err)
		}
		if !freshFromUser.CanTransact() || !freshToUser.CanTransact() {
			return domainErrors.NewDomainError(domainErrors.CodeInvalidTransaction, "counterparty is no longer eligible to transact", domainErrors.ErrUserCannotTransact)
		}

		fromBefore := lockedFromWallet.Balance()
		toBefore := lockedToWallet.Balance()

		sufficient, err := lockedFromWallet.HasSufficientBalance(amount)
		if err != nil {
			return fmt.Errorf("failed to evaluate balance: %w", err)
		}
		if !sufficient {
			insufficientReason = fmt.Sprintf("insufficient balance: have %s, need %s", fromBefore.String(), amount.String())
			return &insufficientBalanceMarker{reason: insufficientReason}
		}

		fromAfterMoney, err := uc.walletRepo.ApplyDelta(txCtx, fromUserID, amount.Amount().Neg())
		if err != nil {
			return fmt.Errorf("failed to debit sender wallet: %w", err)
		}
		toAfterMoney, err := uc.walletRepo.ApplyDelta(txCtx, toUserID, amount.Amount())
		if err != nil {
			return fmt.Errorf("failed to credit recipient wallet: %w", err)
		}

		debitEntry, err := entities.NewLedgerEntry(tx.ID(), fromUserID, entities.EntryTypeDebit, amount, fromAfterMoney)
		if err != nil {
			return fmt.Errorf("failed to build debit ledger entry: %w", err)
		}
		if err := uc.ledgerRepo.Append(txCtx, debitEntry); err != nil {
			return fmt.Errorf("failed to append debit ledger entry: %w", err)
		}

		creditEntry, err := entities.NewLedgerEntry(tx.ID(), toUserID, entities.EntryTypeCredit, amount, toAfterMoney)
		if err != nil {
			return fmt.Errorf("failed to build credit ledger entry: %w", err)
		}
		if err := uc.ledgerRepo.Append(txCtx, creditEntry); err != nil {
			return fmt.Errorf("failed to append credit ledger entry: %w", err)
		}

		tx.RecordSourceBalances(fromBefore, fromAfterMoney)
		tx.RecordDestinationBalances(toBefore, toAfterMoney)
		if err := tx.MarkCompleted(); err != nil {
			return fmt.Errorf("failed to mark transaction completed: %w", err)
		}
		if err := uc.txRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to persist completed transaction: %w", err)
		}

		completionEvents := []events.DomainEvent{
			events.NewTransactionCreated(tx.ID(), tx.ReferenceID(), string(tx.Type()), amount, &fromUserID, &toUserID),
			events.NewTransactionCompleted(tx.ID(), string(tx.Type()), amount),
			events.NewWalletDebited(fromUserID, amount, tx.ID(), fromAfterMoney),
			events.NewWalletCredited(toUserID, amount, tx.ID(), toAfterMoney),
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, completionEvents); err != nil {
			return fmt.Errorf("failed to publish transfer completion events: %w", err)
		}

		result = tx
		return nil
	})

	if execErr != nil {
		var marker *insufficientBalanceMarker
		if asInsufficientBalance(execErr, &marker) {
			return uc.recordFailure(ctx, referenceID, &fromUserID, &toUserID, amount, cmd.Description, marker.reason)
		}
		return nil, execErr
	}

	uc.idempotencyCache.Set(ctx, referenceID, result.ID(), uc.idempotencyTTL)

	dto := dtos.ToTransactionDTO(result)
	return &dto, nil
}

// lookupExisting checks the fast-tier cache, falling through to the
// repository's unique index on any miss or cache error.
func (uc *TransferUseCase) lookupExisting(ctx context.Context, referenceID string) (*entities.Transaction, bool) {
	if txID, ok := uc.idempotencyCache.Get(ctx, referenceID); ok {
		if tx, err := uc.txRepo.FindByID(ctx, txID); err == nil && tx != nil {
			return tx, true
		}
	}

	tx, err := uc.txRepo.FindByReferenceID(ctx, referenceID)
	if err != nil || tx == nil {
		return nil, false
	}
	return tx, true
}

// recordFailure persists the FAILED transaction in a statement separate
// from the rolled-back attempt, per the transfer engine's failure policy.
func (uc *TransferUseCase) recordFailure(
	ctx context.Context,
	referenceID string,
	fromUserID, toUserID *uuid.UUID,
	amount valueobjects.Money,
	description, reason string,
) (*dtos.TransactionDTO, error) {
	failed, err := entities.NewTransaction(referenceID, fromUserID, toUserID, entities.TransactionTypeTransfer, amount, description)
	if err != nil {
		return nil, fmt.Errorf("failed to build failure record: %w", err)
	}
	if err := failed.MarkFailed(reason); err != nil {
		return nil, fmt.Errorf("failed to mark failure record failed: %w", err)
	}
	if err := uc.txRepo.Save(ctx, failed); err != nil {
		return nil, fmt.Errorf("failed to persist failed transaction: %w", err)
	}

	failedEvent := events.NewTransactionFailed(failed.ID(), string(failed.Type()), amount, reason)
	_ = uc.eventPublisher.Publish(ctx, failedEvent)

	return nil, domainErrors.NewDomainError(domainErrors.CodeInsufficientBalance, reason, domainErrors.ErrInsufficientBalance)
}

func asInsufficientBalance(err error, target **insufficientBalanceMarker) bool {
	return errors.As(err, target)
}

// lockOrder returns the two user IDs in ascending lexicographic order,
// so two transfers moving money in opposite directions always acquire
// their wallet locks in the same order.
func lockOrder(a, b uuid.UUID) (first, second uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

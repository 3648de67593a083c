// Package user - user registration and read use cases.
package user

import (
	"context"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// CreateUserUseCase registers a user and opens their wallet in the
// same DB transaction: there is no separate "create wallet" step in
// the API, and no window where a User exists without a Wallet.
type CreateUserUseCase struct {
	userRepo       ports.UserRepository
	walletRepo     ports.WalletRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCreateUserUseCase creates the registration use case.
func NewCreateUserUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute registers the user. A duplicate email yields a
// BusinessRuleViolation, invalid input a ValidationError.
func (uc *CreateUserUseCase) Execute(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error) {
	var result *dtos.UserCreatedDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// Email uniqueness; the users.email unique index remains the
		// last line of defense under a race.
		exists, err := uc.userRepo.ExistsByEmail(txCtx, cmd.Email)
		if err != nil {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if exists {
			return errors.NewBusinessRuleViolation(
				"EMAIL_ALREADY_EXISTS",
				fmt.Sprintf("user with email %s already exists", cmd.Email),
				map[string]interface{}{"email": cmd.Email},
			)
		}

		user, err := entities.NewUser(cmd.Email, cmd.FullName)
		if err != nil {
			return fmt.Errorf("failed to create user entity: %w", err)
		}

		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		// The wallet opens right here, in the same transaction.
		currency, err := valueobjects.NewCurrency(cmd.CurrencyCode)
		if err != nil {
			return errors.ValidationError{Field: "currency_code", Message: "unsupported currency"}
		}

		wallet, err := entities.NewWallet(user.ID(), currency)
		if err != nil {
			return fmt.Errorf("failed to create wallet entity: %w", err)
		}

		if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}

		registrationEvents := []events.DomainEvent{
			events.NewUserCreated(user.ID(), user.Email(), user.FullName()),
			events.NewWalletCreated(wallet.UserID(), wallet.Currency()),
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, registrationEvents); err != nil {
			return fmt.Errorf("failed to publish registration events: %w", err)
		}

		result = &dtos.UserCreatedDTO{
			User:    dtos.ToUserDTO(user),
			Wallet:  dtos.ToWalletDTO(wallet),
			Message: "User registered and wallet opened. Please complete KYC verification before transacting.",
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

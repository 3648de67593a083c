package kyc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
)

// ExpireUseCase moves a user's KYC from VERIFIED to EXPIRED. Invoked by
// the scheduled maintenance job, not directly over HTTP.
type ExpireUseCase struct {
	userRepo       ports.UserRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewExpireUseCase creates a new use case.
func NewExpireUseCase(userRepo ports.UserRepository, eventPublisher ports.EventPublisher, uow ports.UnitOfWork) *ExpireUseCase {
	return &ExpireUseCase{userRepo: userRepo, eventPublisher: eventPublisher, uow: uow}
}

// Execute expires cmd.UserID's KYC.
func (uc *ExpireUseCase) Execute(ctx context.Context, cmd dtos.ExpireKYCCommand) (*dtos.UserDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, domainErrors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	var result *dtos.UserDTO
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		user, err := uc.userRepo.FindByID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if err := user.Expire(); err != nil {
			return err
		}
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if err := uc.eventPublisher.Publish(txCtx, events.NewUserKYCExpired(userID)); err != nil {
			return fmt.Errorf("failed to publish UserKYCExpired: %w", err)
		}
		dto := dtos.ToUserDTO(user)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

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

// ResubmitUseCase moves a user's KYC from EXPIRED back to IN_REVIEW so
// they can be re-verified. REJECTED is terminal and has no resubmit
// path.
type ResubmitUseCase struct {
	userRepo       ports.UserRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewResubmitUseCase creates a new use case.
func NewResubmitUseCase(userRepo ports.UserRepository, eventPublisher ports.EventPublisher, uow ports.UnitOfWork) *ResubmitUseCase {
	return &ResubmitUseCase{userRepo: userRepo, eventPublisher: eventPublisher, uow: uow}
}

// Execute resubmits cmd.UserID's KYC for review.
func (uc *ResubmitUseCase) Execute(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error) {
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
		if err := user.Resubmit(); err != nil {
			return err
		}
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if err := uc.eventPublisher.Publish(txCtx, events.NewUserKYCSubmitted(userID)); err != nil {
			return fmt.Errorf("failed to publish UserKYCSubmitted: %w", err)
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

// Package kyc holds the use cases driving a user's KYC state machine:
// PENDING -> IN_REVIEW -> VERIFIED -> EXPIRED, with a terminal
// REJECTED branch off IN_REVIEW and a Resubmit path from EXPIRED back
// to IN_REVIEW. can_transact is evaluated fresh on every transfer call
// (see the transfer engine), never cached here.
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

// SubmitUseCase moves a user's own KYC from PENDING to IN_REVIEW.
type SubmitUseCase struct {
	userRepo       ports.UserRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewSubmitUseCase creates a new use case.
func NewSubmitUseCase(userRepo ports.UserRepository, eventPublisher ports.EventPublisher, uow ports.UnitOfWork) *SubmitUseCase {
	return &SubmitUseCase{userRepo: userRepo, eventPublisher: eventPublisher, uow: uow}
}

// Execute submits cmd.UserID's KYC for review.
func (uc *SubmitUseCase) Execute(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error) {
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
		if err := user.Submit(); err != nil {
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

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

// RejectUseCase moves a user's KYC from IN_REVIEW to REJECTED. Admin-privileged, like ApproveUseCase.
type RejectUseCase struct {
	userRepo       ports.UserRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewRejectUseCase creates a new use case.
func NewRejectUseCase(userRepo ports.UserRepository, eventPublisher ports.EventPublisher, uow ports.UnitOfWork) *RejectUseCase {
	return &RejectUseCase{userRepo: userRepo, eventPublisher: eventPublisher, uow: uow}
}

// Execute rejects cmd.UserID's KYC with cmd.Reason. isAdmin must be
// true or the call is rejected as UNAUTHORIZED.
func (uc *RejectUseCase) Execute(ctx context.Context, cmd dtos.RejectKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
	if !isAdmin {
		return nil, domainErrors.NewDomainError(domainErrors.CodeUnauthorized, "admin privilege required to reject KYC", nil)
	}

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
		if err := user.Reject(cmd.Reason); err != nil {
			return err
		}
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if err := uc.eventPublisher.Publish(txCtx, events.NewUserKYCRejected(userID, cmd.Reason)); err != nil {
			return fmt.Errorf("failed to publish UserKYCRejected: %w", err)
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

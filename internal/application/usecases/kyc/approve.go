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

// ApproveUseCase moves a user's KYC from IN_REVIEW to VERIFIED. This is
// an admin-privileged action - callers must hold the out-of-band
// privilege flag checked by isAdmin, enforced here rather than trusted
// to the HTTP layer alone.
type ApproveUseCase struct {
	userRepo       ports.UserRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewApproveUseCase creates a new use case.
func NewApproveUseCase(userRepo ports.UserRepository, eventPublisher ports.EventPublisher, uow ports.UnitOfWork) *ApproveUseCase {
	return &ApproveUseCase{userRepo: userRepo, eventPublisher: eventPublisher, uow: uow}
}

// Execute approves cmd.UserID's KYC. isAdmin must be true or the call
// is rejected as UNAUTHORIZED.
func (uc *ApproveUseCase) Execute(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
	if !isAdmin {
		return nil, domainErrors.NewDomainError(domainErrors.CodeUnauthorized, "admin privilege required to approve KYC", nil)
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
		if err := user.Approve(); err != nil {
			return err
		}
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if err := uc.eventPublisher.Publish(txCtx, events.NewUserKYCApproved(userID)); err != nil {
			return fmt.Errorf("failed to publish UserKYCApproved: %w", err)
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

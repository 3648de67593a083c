// Package user - GetUser use case.
package user

import (
	"context"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/google/uuid"
)

// GetUserUseCase looks up a user by ID.
type GetUserUseCase struct {
	userRepo ports.UserRepository
}

// NewGetUserUseCase creates a new use case.
func NewGetUserUseCase(userRepo ports.UserRepository) *GetUserUseCase {
	return &GetUserUseCase{
		userRepo: userRepo,
	}
}

// Execute returns the user with the given ID.
func (uc *GetUserUseCase) Execute(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewDomainError(errors.CodeNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	result := dtos.ToUserDTO(user)
	return &result, nil
}

// Package user - ListUsers use case.
package user

import (
	"context"
	"fmt"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/ports"
)

// ListUsersUseCase lists users with pagination.
type ListUsersUseCase struct {
	userRepo ports.UserRepository
}

// NewListUsersUseCase creates a new use case.
func NewListUsersUseCase(userRepo ports.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{
		userRepo: userRepo,
	}
}

// Execute returns a paginated list of users.
func (uc *ListUsersUseCase) Execute(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error) {
	users, err := uc.userRepo.List(ctx, query.Offset, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &dtos.UserListDTO{
		Users:      dtos.ToUserDTOList(users),
		TotalCount: len(users),
		Offset:     query.Offset,
		Limit:      query.Limit,
	}, nil
}

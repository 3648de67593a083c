// Package dtos - Data Transfer Objects between use cases and
// adapters.
//
// Entities never leave the application layer: DTOs pin the external
// representation (monetary amounts as decimal strings, identifiers as
// UUID strings) and can evolve independently of the domain.
package dtos

import "time"

// ============================================
// Commands (state-changing)
// ============================================

// CreateUserCommand registers a new user. A wallet is created for the
// user atomically in the same use case - there is no separate
// "create wallet" step in the API surface.
type CreateUserCommand struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required,min=2,max=100"`
	CurrencyCode string `json:"currency_code" validate:"required,len=3"`
}

// ============================================
// Queries (read-only)
// ============================================

// GetUserQuery looks up a user by ID.
type GetUserQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ListUsersQuery lists users with pagination.
type ListUsersQuery struct {
	Offset int `json:"offset" validate:"min=0"`
	Limit  int `json:"limit" validate:"min=1,max=100"`
}

// ============================================
// Response DTOs
// ============================================

// UserDTO is the API representation of a user.
type UserDTO struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Active         bool       `json:"active"`
	KYCStatus      string     `json:"kyc_status"`
	KYCSubmittedAt *time.Time `json:"kyc_submitted_at,omitempty"`
	KYCVerifiedAt  *time.Time `json:"kyc_verified_at,omitempty"`
	KYCExpiresAt   *time.Time `json:"kyc_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserListDTO is the user list result.
type UserListDTO struct {
	Users      []UserDTO `json:"users"`
	TotalCount int       `json:"total_count"`
	Offset     int       `json:"offset"`
	Limit      int       `json:"limit"`
}

// UserCreatedDTO is the registration result, including the
// wallet opened for them in the same transaction.
type UserCreatedDTO struct {
	User    UserDTO   `json:"user"`
	Wallet  WalletDTO `json:"wallet"`
	Message string    `json:"message,omitempty"`
}

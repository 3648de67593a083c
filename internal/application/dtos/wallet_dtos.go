// Package dtos - Wallet DTOs. There is no separate wallet-creation or
// mutation surface here - a wallet is opened once alongside user
// registration and is mutated only by the ledger engine.
package dtos

import "time"

// GetWalletQuery looks up the caller's single wallet by user id.
type GetWalletQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ListWalletsQuery lists wallets with pagination.
type ListWalletsQuery struct {
	Offset int `json:"offset" validate:"min=0"`
	Limit  int `json:"limit" validate:"min=1,max=100"`
}

// WalletDTO is the API representation of a wallet.
type WalletDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CurrencyCode string    `json:"currency_code"`
	Balance      string    `json:"balance"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletListDTO is the wallet list result.
type WalletListDTO struct {
	Wallets    []WalletDTO `json:"wallets"`
	TotalCount int         `json:"total_count"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

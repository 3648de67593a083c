// Package dtos - mappers converting domain entities to DTOs.
//
// Keeps the domain representation separate from the API
// representation.
package dtos

import (
	"github.com/paybridge/ledgercore/internal/domain/entities"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

// ============================================
// User Mappers
// ============================================

// ToUserDTO converts a User entity to its DTO.
func ToUserDTO(user *entities.User) UserDTO {
	return UserDTO{
		ID:             user.ID().String(),
		Email:          user.Email(),
		FullName:       user.FullName(),
		Active:         user.Active(),
		KYCStatus:      string(user.KYCStatus()),
		KYCSubmittedAt: user.KYCSubmittedAt(),
		KYCVerifiedAt:  user.KYCVerifiedAt(),
		KYCExpiresAt:   user.KYCExpiresAt(),
		CreatedAt:      user.CreatedAt(),
		UpdatedAt:      user.UpdatedAt(),
	}
}

// ToUserDTOList converts a list of users.
func ToUserDTOList(users []*entities.User) []UserDTO {
	result := make([]UserDTO, len(users))
	for i, user := range users {
		result[i] = ToUserDTO(user)
	}
	return result
}

// ============================================
// Wallet Mappers
// ============================================

// ToWalletDTO converts a Wallet entity to its DTO.
func ToWalletDTO(wallet *entities.Wallet) WalletDTO {
	return WalletDTO{
		ID:           wallet.ID().String(),
		UserID:       wallet.UserID().String(),
		CurrencyCode: wallet.Currency().Code(),
		Balance:      wallet.Balance().DecimalString(),
		UpdatedAt:    wallet.UpdatedAt(),
	}
}

// ToWalletDTOList converts a list of wallets.
func ToWalletDTOList(wallets []*entities.Wallet) []WalletDTO {
	result := make([]WalletDTO, len(wallets))
	for i, wallet := range wallets {
		result[i] = ToWalletDTO(wallet)
	}
	return result
}

// ============================================
// Transaction Mappers
// ============================================

// ToTransactionDTO converts a Transaction entity to its DTO.
func ToTransactionDTO(tx *entities.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID().String(),
		ReferenceID:   tx.ReferenceID(),
		Type:          string(tx.Type()),
		Status:        string(tx.Status()),
		Amount:        tx.Amount().DecimalString(),
		CurrencyCode:  tx.Amount().Currency().Code(),
		Description:   tx.Description(),
		Metadata:      tx.Metadata(),
		FailureReason: tx.FailureReason(),
		RetryCount:    tx.RetryCount(),
		CreatedAt:     tx.CreatedAt(),
		UpdatedAt:     tx.UpdatedAt(),
		CompletedAt:   tx.CompletedAt(),
	}

	if fromUserID := tx.FromUserID(); fromUserID != nil {
		s := fromUserID.String()
		dto.FromUserID = &s
	}
	if toUserID := tx.ToUserID(); toUserID != nil {
		s := toUserID.String()
		dto.ToUserID = &s
	}

	dto.FromBalanceBefore = moneyPtrToStringPtr(tx.FromBalanceBefore())
	dto.FromBalanceAfter = moneyPtrToStringPtr(tx.FromBalanceAfter())
	dto.ToBalanceBefore = moneyPtrToStringPtr(tx.ToBalanceBefore())
	dto.ToBalanceAfter = moneyPtrToStringPtr(tx.ToBalanceAfter())

	return dto
}

// ToTransactionDTOList converts a list of transactions.
func ToTransactionDTOList(transactions []*entities.Transaction) []TransactionDTO {
	result := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		result[i] = ToTransactionDTO(tx)
	}
	return result
}

// MapTransactionToDTO is a pointer-returning variant of ToTransactionDTO.
func MapTransactionToDTO(tx *entities.Transaction) *TransactionDTO {
	dto := ToTransactionDTO(tx)
	return &dto
}

// ============================================
// Ledger entry mappers
// ============================================

// ToLedgerEntryDTO converts a LedgerEntry entity to its DTO.
func ToLedgerEntryDTO(entry *entities.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:            entry.ID().String(),
		TransactionID: entry.TransactionID().String(),
		UserID:        entry.UserID().String(),
		EntryType:     string(entry.EntryType()),
		Amount:        entry.Amount().DecimalString(),
		BalanceAfter:  entry.BalanceAfter().DecimalString(),
		CreatedAt:     entry.CreatedAt(),
	}
}

// ============================================
// Payment Intent Mappers
// ============================================

// ToPaymentIntentDTO converts a PaymentIntent entity to its DTO.
func ToPaymentIntentDTO(intent *entities.PaymentIntent) PaymentIntentDTO {
	return PaymentIntentDTO{
		ID:               intent.ID().String(),
		GatewayPaymentID: intent.GatewayPaymentID(),
		UserID:           intent.UserID().String(),
		Amount:           intent.Amount().DecimalString(),
		CurrencyCode:     intent.Amount().Currency().Code(),
		PaymentMethod:    string(intent.PaymentMethod()),
		Status:           string(intent.Status()),
		Description:      intent.Description(),
		FailureReason:    intent.FailureReason(),
		CreatedAt:        intent.CreatedAt(),
		UpdatedAt:        intent.UpdatedAt(),
		SucceededAt:      intent.SucceededAt(),
	}
}

// ============================================
// Helper functions
// ============================================

func moneyPtrToStringPtr(m *valueobjects.Money) *string {
	if m == nil {
		return nil
	}
	s := m.DecimalString()
	return &s
}

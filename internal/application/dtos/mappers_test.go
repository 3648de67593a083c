package dtos_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
)

func usd(t *testing.T, amount string) valueobjects.Money {
	t.Helper()
	m, err := valueobjects.NewMoney(amount, valueobjects.USD)
	require.NoError(t, err)
	return m
}

func TestToUserDTO(t *testing.T) {
	user, err := entities.NewUser("alice@example.com", "Alice")
	require.NoError(t, err)
	require.NoError(t, user.Submit())

	dto := dtos.ToUserDTO(user)

	assert.Equal(t, user.ID().String(), dto.ID)
	assert.Equal(t, "alice@example.com", dto.Email)
	assert.Equal(t, "Alice", dto.FullName)
	assert.True(t, dto.Active)
	assert.Equal(t, "IN_REVIEW", dto.KYCStatus)
	require.NotNil(t, dto.KYCSubmittedAt)
	assert.Nil(t, dto.KYCVerifiedAt)
}

func TestToUserDTOList(t *testing.T) {
	a, err := entities.NewUser("a@example.com", "A User")
	require.NoError(t, err)
	b, err := entities.NewUser("b@example.com", "B User")
	require.NoError(t, err)

	list := dtos.ToUserDTOList([]*entities.User{a, b})

	require.Len(t, list, 2)
	assert.Equal(t, "a@example.com", list[0].Email)
	assert.Equal(t, "b@example.com", list[1].Email)

	assert.Empty(t, dtos.ToUserDTOList(nil))
}

func TestToWalletDTO(t *testing.T) {
	wallet, err := entities.NewWallet(uuid.New(), valueobjects.USD)
	require.NoError(t, err)
	require.NoError(t, wallet.Credit(usd(t, "70.00")))

	dto := dtos.ToWalletDTO(wallet)

	assert.Equal(t, wallet.ID().String(), dto.ID)
	assert.Equal(t, wallet.UserID().String(), dto.UserID)
	assert.Equal(t, "USD", dto.CurrencyCode)
	// Monetary values travel as decimal strings.
	assert.Equal(t, "70.00", dto.Balance)
}

func TestToTransactionDTO_Transfer(t *testing.T) {
	from := uuid.New()
	to := uuid.New()

	tx, err := entities.NewTransaction(
		"TXN-0011223344556677",
		&from, &to,
		entities.TransactionTypeTransfer,
		usd(t, "30.00"),
		"lunch split",
	)
	require.NoError(t, err)
	require.NoError(t, tx.StartProcessing())
	tx.RecordSourceBalances(usd(t, "100.00"), usd(t, "70.00"))
	tx.RecordDestinationBalances(usd(t, "0.00"), usd(t, "30.00"))
	require.NoError(t, tx.MarkCompleted())

	dto := dtos.ToTransactionDTO(tx)

	assert.Equal(t, "TXN-0011223344556677", dto.ReferenceID)
	assert.Equal(t, "TRANSFER", dto.Type)
	assert.Equal(t, "COMPLETED", dto.Status)
	assert.Equal(t, "30.00", dto.Amount)
	assert.Equal(t, "USD", dto.CurrencyCode)

	require.NotNil(t, dto.FromUserID)
	require.NotNil(t, dto.ToUserID)
	assert.Equal(t, from.String(), *dto.FromUserID)
	assert.Equal(t, to.String(), *dto.ToUserID)

	require.NotNil(t, dto.FromBalanceBefore)
	assert.Equal(t, "100.00", *dto.FromBalanceBefore)
	require.NotNil(t, dto.FromBalanceAfter)
	assert.Equal(t, "70.00", *dto.FromBalanceAfter)
	require.NotNil(t, dto.ToBalanceAfter)
	assert.Equal(t, "30.00", *dto.ToBalanceAfter)

	require.NotNil(t, dto.CompletedAt)
}

func TestToTransactionDTO_DepositHasNoSender(t *testing.T) {
	to := uuid.New()

	tx, err := entities.NewTransaction(
		"DEPOSIT-PAY-0123456789ABCDEF",
		nil, &to,
		entities.TransactionTypeDeposit,
		usd(t, "40.00"),
		"gateway deposit",
	)
	require.NoError(t, err)

	dto := dtos.ToTransactionDTO(tx)

	assert.Nil(t, dto.FromUserID)
	require.NotNil(t, dto.ToUserID)
	assert.Nil(t, dto.FromBalanceBefore)
	assert.Nil(t, dto.CompletedAt)
	assert.Equal(t, "PENDING", dto.Status)
}

func TestMapTransactionToDTO(t *testing.T) {
	to := uuid.New()
	tx, err := entities.NewTransaction(
		"TXN-FFEEDDCCBBAA9988",
		nil, &to,
		entities.TransactionTypeDeposit,
		usd(t, "5.00"),
		"",
	)
	require.NoError(t, err)

	ptr := dtos.MapTransactionToDTO(tx)
	require.NotNil(t, ptr)
	assert.Equal(t, tx.ID().String(), ptr.ID)
}

func TestToLedgerEntryDTO(t *testing.T) {
	txID := uuid.New()
	userID := uuid.New()

	entry, err := entities.NewLedgerEntry(txID, userID, entities.EntryTypeDebit, usd(t, "30.00"), usd(t, "70.00"))
	require.NoError(t, err)

	dto := dtos.ToLedgerEntryDTO(entry)

	assert.Equal(t, txID.String(), dto.TransactionID)
	assert.Equal(t, userID.String(), dto.UserID)
	assert.Equal(t, "DEBIT", dto.EntryType)
	assert.Equal(t, "30.00", dto.Amount)
	assert.Equal(t, "70.00", dto.BalanceAfter)
}

func TestToPaymentIntentDTO(t *testing.T) {
	userID := uuid.New()

	intent, err := entities.NewPaymentIntent(
		"PAY-0123456789ABCDEF",
		userID,
		usd(t, "40.00"),
		entities.PaymentMethodCard,
		"top-up",
	)
	require.NoError(t, err)

	dto := dtos.ToPaymentIntentDTO(intent)

	assert.Equal(t, "PAY-0123456789ABCDEF", dto.GatewayPaymentID)
	assert.Equal(t, userID.String(), dto.UserID)
	assert.Equal(t, "40.00", dto.Amount)
	assert.Equal(t, "USD", dto.CurrencyCode)
	assert.Equal(t, "CARD", dto.PaymentMethod)
	assert.Equal(t, "PENDING", dto.Status)
	assert.Nil(t, dto.SucceededAt)
}

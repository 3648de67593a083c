// Registration tests: function-field port mocks, no real database.
// The main property checked here is that the user and the wallet are
// created as one operation, and that no event is published on any
// failure.
package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/usecases/user"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
	"github.com/paybridge/ledgercore/internal/domain/valueobjects"
	"github.com/shopspring/decimal"
)

// ============================================
// Mock Implementations (Test Doubles)
// ============================================

// MockUserRepository is a mock UserRepository for tests.
type MockUserRepository struct {
	SaveFunc                 func(ctx context.Context, user *entities.User) error
	FindByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByEmailFunc          func(ctx context.Context, email string) (*entities.User, error)
	ExistsByEmailFunc        func(ctx context.Context, email string) (bool, error)
	ListFunc                 func(ctx context.Context, offset, limit int) ([]*entities.User, error)
	FindVerifiedExpiringFunc func(ctx context.Context, olderThan time.Time, limit int) ([]*entities.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, user *entities.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	return nil, nil
}

func (m *MockUserRepository) FindVerifiedExpiring(ctx context.Context, olderThan time.Time, limit int) ([]*entities.User, error) {
	if m.FindVerifiedExpiringFunc != nil {
		return m.FindVerifiedExpiringFunc(ctx, olderThan, limit)
	}
	return nil, nil
}

// MockWalletRepository - minimal mock covering what CreateUserUseCase needs.
type MockWalletRepository struct {
	SaveFunc func(ctx context.Context, wallet *entities.Wallet) error
}

func (m *MockWalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, wallet)
	}
	return nil
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *MockWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (valueobjects.Money, error) {
	return valueobjects.Money{}, nil
}

func (m *MockWalletRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	return false, nil
}

// MockEventPublisher is a mock event publisher.
type MockEventPublisher struct {
	PublishFunc      func(ctx context.Context, event events.DomainEvent) error
	PublishBatchFunc func(ctx context.Context, events []events.DomainEvent) error
	PublishedEvents  []events.DomainEvent // recorded for assertions
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.PublishedEvents = append(m.PublishedEvents, event)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, events []events.DomainEvent) error {
	m.PublishedEvents = append(m.PublishedEvents, events...)
	if m.PublishBatchFunc != nil {
		return m.PublishBatchFunc(ctx, events)
	}
	return nil
}

// MockUnitOfWork is a mock unit of work.
type MockUnitOfWork struct {
	ExecuteFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, fn)
	}
	// Default: run the function without a real transaction
	return fn(ctx)
}

// ============================================
// Tests
// ============================================

func newTestUseCase(userRepo *MockUserRepository, walletRepo *MockWalletRepository, eventPublisher *MockEventPublisher, uow *MockUnitOfWork) *user.CreateUserUseCase {
	return user.NewCreateUserUseCase(userRepo, walletRepo, eventPublisher, uow)
}

func validCmd() dtos.CreateUserCommand {
	return dtos.CreateUserCommand{
		Email:        "test@example.com",
		FullName:     "John Doe",
		CurrencyCode: "USD",
	}
}

// TestCreateUserUseCase_Success covers creating the user and wallet together.
func TestCreateUserUseCase_Success(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	result, err := useCase.Execute(context.Background(), validCmd())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	if result.User.Email != "test@example.com" {
		t.Errorf("Expected email test@example.com, got %s", result.User.Email)
	}
	if result.User.KYCStatus != string(entities.KYCStatusPending) {
		t.Errorf("Expected KYC status PENDING, got %s", result.User.KYCStatus)
	}
	if result.Wallet.CurrencyCode != "USD" {
		t.Errorf("Expected wallet currency USD, got %s", result.Wallet.CurrencyCode)
	}

	if len(eventPublisher.PublishedEvents) != 2 {
		t.Fatalf("Expected 2 events published (user + wallet), got %d", len(eventPublisher.PublishedEvents))
	}
	if eventPublisher.PublishedEvents[0].EventType() != events.EventTypeUserCreated {
		t.Errorf("Expected first event UserCreated, got %s", eventPublisher.PublishedEvents[0].EventType())
	}
	if eventPublisher.PublishedEvents[1].EventType() != events.EventTypeWalletCreated {
		t.Errorf("Expected second event WalletCreated, got %s", eventPublisher.PublishedEvents[1].EventType())
	}
}

// TestCreateUserUseCase_EmailAlreadyExists covers the duplicate email error.
func TestCreateUserUseCase_EmailAlreadyExists(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	result, err := useCase.Execute(context.Background(), validCmd())

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
	if !domainErrors.IsBusinessRuleViolation(err) {
		t.Errorf("Expected BusinessRuleViolation error, got %T", err)
	}
	if len(eventPublisher.PublishedEvents) != 0 {
		t.Errorf("Expected 0 events published, got %d", len(eventPublisher.PublishedEvents))
	}
}

// TestCreateUserUseCase_RepositoryError covers repository error handling.
func TestCreateUserUseCase_RepositoryError(t *testing.T) {
	expectedError := errors.New("database connection failed")

	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, expectedError
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	result, err := useCase.Execute(context.Background(), validCmd())

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
	if len(eventPublisher.PublishedEvents) != 0 {
		t.Errorf("Expected 0 events published, got %d", len(eventPublisher.PublishedEvents))
	}
}

// TestCreateUserUseCase_InvalidEmail covers email validation.
func TestCreateUserUseCase_InvalidEmail(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	cmd := validCmd()
	cmd.Email = "invalid-email"

	result, err := useCase.Execute(context.Background(), cmd)

	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
	if !errors.Is(err, domainErrors.ErrInvalidEmail) {
		t.Errorf("Expected ErrInvalidEmail, got %v", err)
	}
}

// TestCreateUserUseCase_InvalidCurrency tests rejection of an unsupported currency code.
func TestCreateUserUseCase_InvalidCurrency(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	cmd := validCmd()
	cmd.CurrencyCode = "XXX"

	result, err := useCase.Execute(context.Background(), cmd)

	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
}

// TestCreateUserUseCase_EmailNormalization tests email is normalized.
func TestCreateUserUseCase_EmailNormalization(t *testing.T) {
	var savedEmail string

	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
		SaveFunc: func(ctx context.Context, user *entities.User) error {
			savedEmail = user.Email()
			return nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	cmd := validCmd()
	cmd.Email = "Test@EXAMPLE.COM"

	result, err := useCase.Execute(context.Background(), cmd)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.User.Email != "test@example.com" {
		t.Errorf("Expected normalized email test@example.com, got %s", result.User.Email)
	}
	if savedEmail != "test@example.com" {
		t.Errorf("Expected saved email test@example.com, got %s", savedEmail)
	}
}

// TestCreateUserUseCase_UserIDIsGenerated tests that user gets a unique ID.
func TestCreateUserUseCase_UserIDIsGenerated(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	result, err := useCase.Execute(context.Background(), validCmd())

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.User.ID == "" {
		t.Error("Expected user ID to be generated")
	}
	if _, err := uuid.Parse(result.User.ID); err != nil {
		t.Errorf("Expected valid UUID, got %s: %v", result.User.ID, err)
	}
	if result.Wallet.UserID != result.User.ID {
		t.Errorf("Expected wallet.UserID to match user.ID, got %s != %s", result.Wallet.UserID, result.User.ID)
	}
}

// TestCreateUserUseCase_ContextCancellation tests context cancellation handling.
func TestCreateUserUseCase_ContextCancellation(t *testing.T) {
	userRepo := &MockUserRepository{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			default:
				return false, nil
			}
		},
	}
	walletRepo := &MockWalletRepository{}
	eventPublisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{}

	useCase := newTestUseCase(userRepo, walletRepo, eventPublisher, uow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := useCase.Execute(ctx, validCmd())

	if err == nil {
		t.Fatal("Expected context cancellation error, got nil")
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
}

// Package kyc_test exercises the KYC state machine use cases:
// Submit, Approve, Reject, Expire, Resubmit.
package kyc_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/application/dtos"
	"github.com/paybridge/ledgercore/internal/application/usecases/kyc"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/paybridge/ledgercore/internal/domain/events"
)

// ============================================
// Mocks
// ============================================

type mockUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newMockUserRepo(users ...*entities.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[uuid.UUID]*entities.User)}
	for _, u := range users {
		m.users[u.ID()] = u
	}
	return m
}

func (m *mockUserRepo) Save(ctx context.Context, user *entities.User) error {
	m.users[user.ID()] = user
	return nil
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return u, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return nil, domainErrors.ErrEntityNotFound
}
func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindVerifiedExpiring(ctx context.Context, olderThan time.Time, limit int) ([]*entities.User, error) {
	return nil, nil
}

type mockEventPublisher struct {
	published []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.published = append(m.published, event)
	return nil
}
func (m *mockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	m.published = append(m.published, evts...)
	return nil
}

type mockUnitOfWork struct{}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func pendingUser(t *testing.T) *entities.User {
	t.Helper()
	u, err := entities.NewUser("kyc"+uuid.NewString()[:8]+"@example.com", "KYC Test User")
	if err != nil {
		t.Fatalf("failed to build user: %v", err)
	}
	return u
}

func inReviewUser(t *testing.T) *entities.User {
	t.Helper()
	u := pendingUser(t)
	if err := u.Submit(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	return u
}

func verifiedUser(t *testing.T) *entities.User {
	t.Helper()
	u := inReviewUser(t)
	if err := u.Approve(); err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	return u
}

// ============================================
// Submit
// ============================================

func TestSubmitUseCase_Success(t *testing.T) {
	u := pendingUser(t)
	userRepo := newMockUserRepo(u)
	publisher := &mockEventPublisher{}

	uc := kyc.NewSubmitUseCase(userRepo, publisher, &mockUnitOfWork{})
	result, err := uc.Execute(context.Background(), dtos.SubmitKYCCommand{UserID: u.ID().String()})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.KYCStatus != string(entities.KYCStatusInReview) {
		t.Errorf("expected IN_REVIEW, got %s", result.KYCStatus)
	}
	if len(publisher.published) != 1 {
		t.Errorf("expected 1 event, got %d", len(publisher.published))
	}
}

func TestSubmitUseCase_AlreadyInReview(t *testing.T) {
	u := inReviewUser(t)
	uc := kyc.NewSubmitUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.SubmitKYCCommand{UserID: u.ID().String()})
	if err == nil {
		t.Fatal("expected error submitting from IN_REVIEW, got nil")
	}
	if !domainErrors.IsBusinessRuleViolation(err) {
		t.Errorf("expected a business rule violation, got %T", err)
	}
}

func TestSubmitUseCase_InvalidUserID(t *testing.T) {
	uc := kyc.NewSubmitUseCase(newMockUserRepo(), &mockEventPublisher{}, &mockUnitOfWork{})
	_, err := uc.Execute(context.Background(), dtos.SubmitKYCCommand{UserID: "not-a-uuid"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

// ============================================
// Approve
// ============================================

func TestApproveUseCase_Success(t *testing.T) {
	u := inReviewUser(t)
	userRepo := newMockUserRepo(u)
	publisher := &mockEventPublisher{}

	uc := kyc.NewApproveUseCase(userRepo, publisher, &mockUnitOfWork{})
	result, err := uc.Execute(context.Background(), dtos.ApproveKYCCommand{UserID: u.ID().String()}, true)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.KYCStatus != string(entities.KYCStatusVerified) {
		t.Errorf("expected VERIFIED, got %s", result.KYCStatus)
	}
	if result.KYCExpiresAt == nil {
		t.Error("expected kyc_expires_at to be set on approval")
	}
}

func TestApproveUseCase_RequiresAdmin(t *testing.T) {
	u := inReviewUser(t)
	uc := kyc.NewApproveUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.ApproveKYCCommand{UserID: u.ID().String()}, false)
	if err == nil {
		t.Fatal("expected unauthorized error, got nil")
	}
	var domainErr *domainErrors.DomainError
	if !asDomainError(err, &domainErr) {
		t.Errorf("expected a *DomainError, got %T", err)
	} else if domainErr.Code != domainErrors.CodeUnauthorized {
		t.Errorf("expected code %s, got %s", domainErrors.CodeUnauthorized, domainErr.Code)
	}
}

func TestApproveUseCase_WrongState(t *testing.T) {
	u := pendingUser(t)
	uc := kyc.NewApproveUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.ApproveKYCCommand{UserID: u.ID().String()}, true)
	if err == nil {
		t.Fatal("expected error approving from PENDING, got nil")
	}
}

// ============================================
// Reject
// ============================================

func TestRejectUseCase_Success(t *testing.T) {
	u := inReviewUser(t)
	uc := kyc.NewRejectUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	result, err := uc.Execute(context.Background(), dtos.RejectKYCCommand{UserID: u.ID().String(), Reason: "document mismatch"}, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.KYCStatus != string(entities.KYCStatusRejected) {
		t.Errorf("expected REJECTED, got %s", result.KYCStatus)
	}
}

func TestRejectUseCase_RequiresAdmin(t *testing.T) {
	u := inReviewUser(t)
	uc := kyc.NewRejectUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.RejectKYCCommand{UserID: u.ID().String(), Reason: "no"}, false)
	if err == nil {
		t.Fatal("expected unauthorized error, got nil")
	}
}

// ============================================
// Expire
// ============================================

func TestExpireUseCase_Success(t *testing.T) {
	u := verifiedUser(t)
	uc := kyc.NewExpireUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	result, err := uc.Execute(context.Background(), dtos.ExpireKYCCommand{UserID: u.ID().String()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.KYCStatus != string(entities.KYCStatusExpired) {
		t.Errorf("expected EXPIRED, got %s", result.KYCStatus)
	}
}

func TestExpireUseCase_WrongState(t *testing.T) {
	u := pendingUser(t)
	uc := kyc.NewExpireUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.ExpireKYCCommand{UserID: u.ID().String()})
	if err == nil {
		t.Fatal("expected error expiring a non-VERIFIED user, got nil")
	}
}

// ============================================
// Resubmit
// ============================================

func TestResubmitUseCase_FromExpired(t *testing.T) {
	u := verifiedUser(t)
	if err := u.Expire(); err != nil {
		t.Fatalf("failed to expire: %v", err)
	}

	uc := kyc.NewResubmitUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})
	result, err := uc.Execute(context.Background(), dtos.ResubmitKYCCommand{UserID: u.ID().String()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.KYCStatus != string(entities.KYCStatusInReview) {
		t.Errorf("expected IN_REVIEW, got %s", result.KYCStatus)
	}
}

func TestResubmitUseCase_FromRejected_Terminal(t *testing.T) {
	u := inReviewUser(t)
	if err := u.Reject("bad docs"); err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	uc := kyc.NewResubmitUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})
	_, err := uc.Execute(context.Background(), dtos.ResubmitKYCCommand{UserID: u.ID().String()})
	if err == nil {
		t.Fatal("expected error resubmitting from REJECTED, got nil")
	}
}

func TestResubmitUseCase_FromVerified(t *testing.T) {
	u := verifiedUser(t)
	uc := kyc.NewResubmitUseCase(newMockUserRepo(u), &mockEventPublisher{}, &mockUnitOfWork{})

	_, err := uc.Execute(context.Background(), dtos.ResubmitKYCCommand{UserID: u.ID().String()})
	if err == nil {
		t.Fatal("expected error resubmitting from VERIFIED, got nil")
	}
}

func asDomainError(err error, target **domainErrors.DomainError) bool {
	de, ok := err.(*domainErrors.DomainError)
	if ok {
		*target = de
	}
	return ok
}

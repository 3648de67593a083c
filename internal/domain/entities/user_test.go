// Package entities_test demonstrates testing domain entities.
// Focus on business rules, state transitions, and invariants.
package entities_test

import (
	"testing"

	"github.com/paybridge/ledgercore/internal/domain/entities"
)

// TestNewUser_Success tests successful user creation.
func TestNewUser_Success(t *testing.T) {
	user, err := entities.NewUser("test@example.com", "John Doe")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.Email() != "test@example.com" {
		t.Errorf("Email = %v, want test@example.com", user.Email())
	}

	if user.FullName() != "John Doe" {
		t.Errorf("FullName = %v, want John Doe", user.FullName())
	}

	if !user.Active() {
		t.Error("New users should be active")
	}

	if user.KYCStatus() != entities.KYCStatusPending {
		t.Errorf("KYCStatus = %v, want PENDING", user.KYCStatus())
	}

	if user.ID().String() == "" {
		t.Error("User ID should not be empty")
	}

	if user.CanTransact() {
		t.Error("A brand-new user should not be able to transact")
	}
}

// TestNewUser_InvalidEmail tests email validation.
func TestNewUser_InvalidEmail(t *testing.T) {
	invalidEmails := []string{
		"",
		"not-an-email",
		"missing@domain",
		"@example.com",
		"user@",
		"user space@example.com",
	}

	for _, email := range invalidEmails {
		t.Run(email, func(t *testing.T) {
			_, err := entities.NewUser(email, "John Doe")
			if err == nil {
				t.Errorf("Expected error for invalid email %q", email)
			}
		})
	}
}

// TestNewUser_EmptyFullName tests that full name is required.
func TestNewUser_EmptyFullName(t *testing.T) {
	_, err := entities.NewUser("test@example.com", "")
	if err == nil {
		t.Error("Expected error for empty full name")
	}
}

// TestUser_KYCWorkflow tests the full PENDING -> IN_REVIEW -> VERIFIED path.
func TestUser_KYCWorkflow(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")

	t.Run("Submit", func(t *testing.T) {
		if err := user.Submit(); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if user.KYCStatus() != entities.KYCStatusInReview {
			t.Errorf("KYCStatus = %v, want IN_REVIEW", user.KYCStatus())
		}
		if user.KYCSubmittedAt() == nil {
			t.Error("KYCSubmittedAt should be set")
		}
	})

	t.Run("Cannot submit twice", func(t *testing.T) {
		if err := user.Submit(); err == nil {
			t.Error("Expected error resubmitting from IN_REVIEW via Submit")
		}
	})

	t.Run("Approve", func(t *testing.T) {
		if err := user.Approve(); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if user.KYCStatus() != entities.KYCStatusVerified {
			t.Errorf("KYCStatus = %v, want VERIFIED", user.KYCStatus())
		}
		if user.KYCVerifiedAt() == nil {
			t.Error("KYCVerifiedAt should be set")
		}
		if !user.CanTransact() {
			t.Error("Verified active user should be able to transact")
		}
	})
}

// TestUser_KYCRejection tests that REJECTED is terminal.
func TestUser_KYCRejection(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")
	_ = user.Submit()

	if err := user.Reject("document mismatch"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if user.KYCStatus() != entities.KYCStatusRejected {
		t.Errorf("KYCStatus = %v, want REJECTED", user.KYCStatus())
	}

	if err := user.Resubmit(); err == nil {
		t.Fatal("Resubmit() after rejection should fail, REJECTED is terminal")
	}
	if user.KYCStatus() != entities.KYCStatusRejected {
		t.Errorf("KYCStatus = %v, want REJECTED", user.KYCStatus())
	}
}

// TestUser_KYCExpiry tests VERIFIED -> EXPIRED -> (resubmit) IN_REVIEW.
func TestUser_KYCExpiry(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")
	_ = user.Submit()
	_ = user.Approve()

	if err := user.Expire(); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if user.KYCStatus() != entities.KYCStatusExpired {
		t.Errorf("KYCStatus = %v, want EXPIRED", user.KYCStatus())
	}
	if user.CanTransact() {
		t.Error("Expired user should not be able to transact")
	}

	if err := user.Resubmit(); err != nil {
		t.Fatalf("Resubmit() after expiry error = %v", err)
	}
	if user.KYCStatus() != entities.KYCStatusInReview {
		t.Errorf("KYCStatus = %v, want IN_REVIEW", user.KYCStatus())
	}
	if user.KYCVerifiedAt() != nil {
		t.Error("Resubmit should clear the prior verified-at timestamp")
	}
}

// TestUser_IllegalTransitions tests transitions rejected from the wrong state.
func TestUser_IllegalTransitions(t *testing.T) {
	t.Run("Approve from PENDING fails", func(t *testing.T) {
		user, _ := entities.NewUser("test@example.com", "John Doe")
		if err := user.Approve(); err == nil {
			t.Error("Approve() from PENDING should fail")
		}
	})

	t.Run("Reject from PENDING fails", func(t *testing.T) {
		user, _ := entities.NewUser("test@example.com", "John Doe")
		if err := user.Reject("no"); err == nil {
			t.Error("Reject() from PENDING should fail")
		}
	})

	t.Run("Expire from non-VERIFIED fails", func(t *testing.T) {
		user, _ := entities.NewUser("test@example.com", "John Doe")
		if err := user.Expire(); err == nil {
			t.Error("Expire() from PENDING should fail")
		}
	})

	t.Run("Resubmit from PENDING fails", func(t *testing.T) {
		user, _ := entities.NewUser("test@example.com", "John Doe")
		if err := user.Resubmit(); err == nil {
			t.Error("Resubmit() from PENDING should fail")
		}
	})
}

// TestUser_CanTransact tests the transact gate across states.
func TestUser_CanTransact(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		status entities.KYCStatus
		want   bool
	}{
		{"pending, active", true, entities.KYCStatusPending, false},
		{"in review, active", true, entities.KYCStatusInReview, false},
		{"verified, active", true, entities.KYCStatusVerified, true},
		{"verified, inactive", false, entities.KYCStatusVerified, false},
		{"rejected, active", true, entities.KYCStatusRejected, false},
		{"expired, active", true, entities.KYCStatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, _ := entities.NewUser("test@example.com", "John Doe")
			user = entities.ReconstructUser(
				user.ID(), user.Email(), user.FullName(),
				tt.active, tt.status,
				nil, nil, nil,
				user.CreatedAt(), user.UpdatedAt(),
			)
			if got := user.CanTransact(); got != tt.want {
				t.Errorf("CanTransact() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestUser_Deactivate tests account deactivation overrides KYC state.
func TestUser_Deactivate(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")
	_ = user.Submit()
	_ = user.Approve()

	if !user.CanTransact() {
		t.Fatal("expected CanTransact before deactivation")
	}

	user.Deactivate()
	if user.Active() {
		t.Error("Active() should be false after Deactivate")
	}
	if user.CanTransact() {
		t.Error("CanTransact() should be false once deactivated, regardless of KYC state")
	}

	user.Reactivate()
	if !user.CanTransact() {
		t.Error("CanTransact() should be true again after Reactivate")
	}
}

// TestUser_UpdateEmail tests email update with validation.
func TestUser_UpdateEmail(t *testing.T) {
	user, _ := entities.NewUser("old@example.com", "John Doe")

	t.Run("Valid email update", func(t *testing.T) {
		err := user.UpdateEmail("new@example.com")
		if err != nil {
			t.Fatalf("UpdateEmail() error = %v", err)
		}

		if user.Email() != "new@example.com" {
			t.Errorf("Email not updated: got %v, want new@example.com", user.Email())
		}
	})

	t.Run("Invalid email rejected", func(t *testing.T) {
		err := user.UpdateEmail("invalid-email")
		if err == nil {
			t.Error("Expected error for invalid email")
		}

		if user.Email() != "new@example.com" {
			t.Error("Email should not change on validation error")
		}
	})
}

// TestUser_UpdateFullName tests name update.
func TestUser_UpdateFullName(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")

	err := user.UpdateFullName("Jane Smith")
	if err != nil {
		t.Fatalf("UpdateFullName() error = %v", err)
	}

	if user.FullName() != "Jane Smith" {
		t.Errorf("FullName = %v, want Jane Smith", user.FullName())
	}
}

// TestUser_UpdateFullName_Empty tests that name cannot be empty.
func TestUser_UpdateFullName_Empty(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")

	err := user.UpdateFullName("")
	if err == nil {
		t.Error("Expected error for empty full name")
	}

	if user.FullName() != "John Doe" {
		t.Error("Name should not change on validation error")
	}
}

// TestNewUser_EmailNormalization tests email is normalized (lowercase, trimmed).
func TestNewUser_EmailNormalization(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Test@Example.COM", expected: "test@example.com"},
		{input: "  user@domain.com  ", expected: "user@domain.com"},
		{input: "CAPS@EXAMPLE.COM", expected: "caps@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			user, err := entities.NewUser(tt.input, "John Doe")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if user.Email() != tt.expected {
				t.Errorf("Email = %v, want %v", user.Email(), tt.expected)
			}
		})
	}
}

// TestUser_CreatedAt tests creation timestamp is set.
func TestUser_CreatedAt(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")

	if user.CreatedAt().IsZero() {
		t.Error("CreatedAt should be set")
	}
}

// TestReconstructUser tests reconstruction from persistence.
func TestReconstructUser(t *testing.T) {
	user, _ := entities.NewUser("test@example.com", "John Doe")
	_ = user.Submit()
	_ = user.Approve()

	reconstructed := entities.ReconstructUser(
		user.ID(),
		user.Email(),
		user.FullName(),
		user.Active(),
		user.KYCStatus(),
		user.KYCSubmittedAt(),
		user.KYCVerifiedAt(),
		user.KYCExpiresAt(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)

	if reconstructed.ID() != user.ID() {
		t.Error("ID mismatch after reconstruction")
	}
	if reconstructed.Email() != user.Email() {
		t.Error("Email mismatch after reconstruction")
	}
	if reconstructed.KYCStatus() != entities.KYCStatusVerified {
		t.Error("KYC status mismatch after reconstruction")
	}
}

// TestKYCStatus_IsValid tests KYC status validation.
func TestKYCStatus_IsValid(t *testing.T) {
	tests := []struct {
		status entities.KYCStatus
		valid  bool
	}{
		{entities.KYCStatusPending, true},
		{entities.KYCStatusInReview, true},
		{entities.KYCStatusVerified, true},
		{entities.KYCStatusRejected, true},
		{entities.KYCStatusExpired, true},
		{entities.KYCStatus("INVALID"), false},
		{entities.KYCStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

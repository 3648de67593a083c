// Package entities contains domain entities with identity and lifecycle.
// Entities are mutable and compared by their ID, not by their attributes.
//
// SOLID Principles:
// - SRP: User entity manages user-related business rules
// - OCP: Can add new methods without modifying existing code
// - DIP: Doesn't depend on infrastructure (no DB, no HTTP)
package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/google/uuid"
)

// KYCStatus represents the Know Your Customer verification status.
type KYCStatus string

const (
	KYCStatusPending   KYCStatus = "PENDING"    // Not yet submitted
	KYCStatusInReview  KYCStatus = "IN_REVIEW"  // Submitted, awaiting a decision
	KYCStatusVerified  KYCStatus = "VERIFIED"   // Approved, can transact
	KYCStatusRejected  KYCStatus = "REJECTED"   // Denied
	KYCStatusExpired   KYCStatus = "EXPIRED"    // Was verified, has since lapsed
)

// kycValidityPeriod is how long a VERIFIED status remains valid before
// the maintenance scheduler expires it, forcing resubmission.
const kycValidityPeriod = 365 * 24 * time.Hour

// IsValid checks if the KYC status is valid.
func (s KYCStatus) IsValid() bool {
	switch s {
	case KYCStatusPending, KYCStatusInReview, KYCStatusVerified, KYCStatusRejected, KYCStatusExpired:
		return true
	default:
		return false
	}
}

// User represents a user of the platform.
// This is an Entity (has identity via ID, has lifecycle).
type User struct {
	id             uuid.UUID // Identity - never changes
	email          string
	fullName       string
	active         bool
	kycStatus      KYCStatus
	kycSubmittedAt *time.Time
	kycVerifiedAt  *time.Time
	kycExpiresAt   *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// Email validation regex (simplified - real systems use more complex validation)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NewUser creates a new User with validation.
//
// Business Rules:
// - Email must be valid format and unique (uniqueness checked by repository)
// - Full name is required
// - New users start ACTIVE with KYC PENDING and cannot transact until verified
func NewUser(email, fullName string) (*User, error) {
	id := uuid.New()

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, errors.ErrInvalidEmail
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, errors.ValidationError{
			Field:   "fullName",
			Message: "full name is required",
		}
	}

	now := time.Now()
	return &User{
		id:        id,
		email:     email,
		fullName:  fullName,
		active:    true,
		kycStatus: KYCStatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUser reconstructs a User from stored data (e.g., from database).
// No validation - assumes data is already valid.
func ReconstructUser(
	id uuid.UUID,
	email, fullName string,
	active bool,
	kycStatus KYCStatus,
	kycSubmittedAt, kycVerifiedAt, kycExpiresAt *time.Time,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:             id,
		email:          email,
		fullName:       fullName,
		active:         active,
		kycStatus:      kycStatus,
		kycSubmittedAt: kycSubmittedAt,
		kycVerifiedAt:  kycVerifiedAt,
		kycExpiresAt:   kycExpiresAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Getters

func (u *User) ID() uuid.UUID {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) FullName() string {
	return u.fullName
}

func (u *User) Active() bool {
	return u.active
}

func (u *User) KYCStatus() KYCStatus {
	return u.kycStatus
}

func (u *User) KYCSubmittedAt() *time.Time {
	return u.kycSubmittedAt
}

func (u *User) KYCVerifiedAt() *time.Time {
	return u.kycVerifiedAt
}

func (u *User) KYCExpiresAt() *time.Time {
	return u.kycExpiresAt
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// UpdateEmail changes the user's email with validation.
func (u *User) UpdateEmail(newEmail string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if !emailRegex.MatchString(newEmail) {
		return errors.ErrInvalidEmail
	}

	u.email = newEmail
	u.updatedAt = time.Now()
	return nil
}

// UpdateFullName changes the user's full name.
func (u *User) UpdateFullName(newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.ValidationError{
			Field:   "fullName",
			Message: "full name cannot be empty",
		}
	}

	u.fullName = newName
	u.updatedAt = time.Now()
	return nil
}

// Deactivate disables the user's account. An inactive account cannot
// transact regardless of KYC status.
func (u *User) Deactivate() {
	u.active = false
	u.updatedAt = time.Now()
}

// Reactivate re-enables a deactivated account.
func (u *User) Reactivate() {
	u.active = true
	u.updatedAt = time.Now()
}

// Submit moves KYC from PENDING to IN_REVIEW, marking the submission time.
func (u *User) Submit() error {
	if u.kycStatus != KYCStatusPending {
		return errors.NewBusinessRuleViolation(
			"KYC_NOT_PENDING",
			"KYC can only be submitted from PENDING",
			map[string]interface{}{"currentStatus": u.kycStatus},
		)
	}

	now := time.Now()
	u.kycStatus = KYCStatusInReview
	u.kycSubmittedAt = &now
	u.updatedAt = now
	return nil
}

// Approve moves KYC from IN_REVIEW to VERIFIED, marking the verification time.
func (u *User) Approve() error {
	if u.kycStatus != KYCStatusInReview {
		return errors.NewBusinessRuleViolation(
			"KYC_NOT_IN_REVIEW",
			"KYC can only be approved from IN_REVIEW",
			map[string]interface{}{"currentStatus": u.kycStatus},
		)
	}

	now := time.Now()
	expires := now.Add(kycValidityPeriod)
	u.kycStatus = KYCStatusVerified
	u.kycVerifiedAt = &now
	u.kycExpiresAt = &expires
	u.updatedAt = now
	return nil
}

// Reject moves KYC from IN_REVIEW to REJECTED.
func (u *User) Reject(reason string) error {
	if u.kycStatus != KYCStatusInReview {
		return errors.NewBusinessRuleViolation(
			"KYC_NOT_IN_REVIEW",
			"KYC can only be rejected from IN_REVIEW",
			map[string]interface{}{"currentStatus": u.kycStatus},
		)
	}

	u.kycStatus = KYCStatusRejected
	u.updatedAt = time.Now()
	return nil
}

// Expire moves KYC from VERIFIED to EXPIRED.
func (u *User) Expire() error {
	if u.kycStatus != KYCStatusVerified {
		return errors.NewBusinessRuleViolation(
			"KYC_NOT_VERIFIED",
			"only a VERIFIED KYC status can expire",
			map[string]interface{}{"currentStatus": u.kycStatus},
		)
	}

	u.kycStatus = KYCStatusExpired
	u.updatedAt = time.Now()
	return nil
}

// Resubmit moves KYC from EXPIRED back to IN_REVIEW, clearing the
// prior verification timestamp. REJECTED is terminal - there is no
// resubmit path out of it.
func (u *User) Resubmit() error {
	if u.kycStatus != KYCStatusExpired {
		return errors.NewBusinessRuleViolation(
			"KYC_NOT_RESUBMITTABLE",
			"KYC can only be resubmitted from EXPIRED",
			map[string]interface{}{"currentStatus": u.kycStatus},
		)
	}

	now := time.Now()
	u.kycStatus = KYCStatusInReview
	u.kycSubmittedAt = &now
	u.kycVerifiedAt = nil
	u.updatedAt = now
	return nil
}

// CanTransact evaluates, fresh on every call, whether this user is allowed
// to move money. Never cached - mirrors an unmemoized property, since KYC
// and active-flag state can change between two calls within the same
// request.
func (u *User) CanTransact() bool {
	return u.active && u.kycStatus == KYCStatusVerified
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
	"github.com/paybridge/ledgercore/internal/application/dtos"
	domainerrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Mock Use Cases
// ============================================

type MockSubmitKYCUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error)
}

func (m *MockSubmitKYCUseCase) Execute(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

type MockApproveKYCUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error)
}

func (m *MockApproveKYCUseCase) Execute(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd, isAdmin)
	}
	return nil, errors.New("not implemented")
}

type MockRejectKYCUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.RejectKYCCommand, isAdmin bool) (*dtos.UserDTO, error)
}

func (m *MockRejectKYCUseCase) Execute(ctx context.Context, cmd dtos.RejectKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd, isAdmin)
	}
	return nil, errors.New("not implemented")
}

type MockResubmitKYCUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error)
}

func (m *MockResubmitKYCUseCase) Execute(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

// adminAs injects admin-role claims the way the auth middleware would.
func adminAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AuthUserIDKey, userID.String())
		c.Set(middleware.AuthUserEmailKey, "admin@example.com")
		c.Set(middleware.AuthIsAdminKey, true)
		c.Next()
	}
}

// ============================================
// Test Submit Handler
// ============================================

func TestKYCHandler_Submit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		mock := &MockSubmitKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error) {
				assert.Equal(t, userID.String(), cmd.UserID)
				return &dtos.UserDTO{ID: userID.String(), KYCStatus: "IN_REVIEW"}, nil
			},
		}

		handler := NewKYCHandler(mock, nil, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/submit", authAs(userID), handler.Submit)

		req := httptest.NewRequest(http.MethodPost, "/kyc/submit", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		handler := NewKYCHandler(&MockSubmitKYCUseCase{}, nil, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/submit", handler.Submit)

		req := httptest.NewRequest(http.MethodPost, "/kyc/submit", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AlreadyInReview", func(t *testing.T) {
		userID := uuid.New()
		mock := &MockSubmitKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error) {
				return nil, domainerrors.NewBusinessRuleViolation("KYC_NOT_PENDING", "KYC already submitted", nil)
			},
		}

		handler := NewKYCHandler(mock, nil, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/submit", authAs(userID), handler.Submit)

		req := httptest.NewRequest(http.MethodPost, "/kyc/submit", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

// ============================================
// Test Approve Handler
// ============================================

func TestKYCHandler_Approve(t *testing.T) {
	t.Run("Success_AsAdmin", func(t *testing.T) {
		targetID := uuid.New()
		mock := &MockApproveKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
				assert.True(t, isAdmin)
				assert.Equal(t, targetID.String(), cmd.UserID)
				return &dtos.UserDTO{ID: targetID.String(), KYCStatus: "VERIFIED"}, nil
			},
		}

		handler := NewKYCHandler(nil, mock, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/:id/approve", adminAs(uuid.New()), handler.Approve)

		req := httptest.NewRequest(http.MethodPost, "/kyc/"+targetID.String()+"/approve", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NonAdminRejectedByUseCase", func(t *testing.T) {
		targetID := uuid.New()
		mock := &MockApproveKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
				require.False(t, isAdmin)
				return nil, domainerrors.NewDomainError(domainerrors.CodeUnauthorized, "admin privilege required", nil)
			},
		}

		handler := NewKYCHandler(nil, mock, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/:id/approve", authAs(uuid.New()), handler.Approve)

		req := httptest.NewRequest(http.MethodPost, "/kyc/"+targetID.String()+"/approve", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		handler := NewKYCHandler(nil, &MockApproveKYCUseCase{}, nil, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/:id/approve", adminAs(uuid.New()), handler.Approve)

		req := httptest.NewRequest(http.MethodPost, "/kyc/not-a-uuid/approve", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// ============================================
// Test Reject Handler
// ============================================

func TestKYCHandler_Reject(t *testing.T) {
	t.Run("Success_AsAdmin", func(t *testing.T) {
		targetID := uuid.New()
		mock := &MockRejectKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.RejectKYCCommand, isAdmin bool) (*dtos.UserDTO, error) {
				assert.True(t, isAdmin)
				assert.Equal(t, "documents unreadable", cmd.Reason)
				return &dtos.UserDTO{ID: targetID.String(), KYCStatus: "REJECTED"}, nil
			},
		}

		handler := NewKYCHandler(nil, nil, mock, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/:id/reject", adminAs(uuid.New()), handler.Reject)

		body, _ := json.Marshal(RejectKYCRequest{Reason: "documents unreadable"})
		req := httptest.NewRequest(http.MethodPost, "/kyc/"+targetID.String()+"/reject", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingReason", func(t *testing.T) {
		handler := NewKYCHandler(nil, nil, &MockRejectKYCUseCase{}, nil)
		router := setupWalletTestRouter()
		router.POST("/kyc/:id/reject", adminAs(uuid.New()), handler.Reject)

		req := httptest.NewRequest(http.MethodPost, "/kyc/"+uuid.New().String()+"/reject", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// ============================================
// Test Resubmit Handler
// ============================================

func TestKYCHandler_Resubmit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		mock := &MockResubmitKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error) {
				assert.Equal(t, userID.String(), cmd.UserID)
				return &dtos.UserDTO{ID: userID.String(), KYCStatus: "IN_REVIEW"}, nil
			},
		}

		handler := NewKYCHandler(nil, nil, nil, mock)
		router := setupWalletTestRouter()
		router.POST("/kyc/resubmit", authAs(userID), handler.Resubmit)

		req := httptest.NewRequest(http.MethodPost, "/kyc/resubmit", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NotExpired", func(t *testing.T) {
		userID := uuid.New()
		mock := &MockResubmitKYCUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error) {
				return nil, domainerrors.NewBusinessRuleViolation("KYC_NOT_RESUBMITTABLE", "KYC can only be resubmitted from EXPIRED", nil)
			},
		}

		handler := NewKYCHandler(nil, nil, nil, mock)
		router := setupWalletTestRouter()
		router.POST("/kyc/resubmit", authAs(userID), handler.Resubmit)

		req := httptest.NewRequest(http.MethodPost, "/kyc/resubmit", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

// ============================================
// Test RegisterRoutes
// ============================================

func TestKYCHandler_RegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api/v1")
	adminGroup := router.Group("/api/v1/admin")

	handler := NewKYCHandler(
		&MockSubmitKYCUseCase{},
		&MockApproveKYCUseCase{},
		&MockRejectKYCUseCase{},
		&MockResubmitKYCUseCase{},
	)
	handler.RegisterRoutes(apiGroup)
	handler.RegisterAdminRoutes(adminGroup)

	assert.Len(t, router.Routes(), 4)
}

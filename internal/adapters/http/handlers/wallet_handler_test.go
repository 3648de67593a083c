package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

type MockGetWalletUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error)
}

func (m *MockGetWalletUseCase) Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

// ============================================
// Test Setup
// ============================================

func setupWalletTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Set("request_id", "test-request-123")
		c.Next()
	})

	return router
}

// authAs injects auth claims the way the auth middleware would.
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AuthUserIDKey, userID.String())
		c.Set(middleware.AuthUserEmailKey, "test@example.com")
		c.Set(middleware.AuthIsAdminKey, false)
		c.Next()
	}
}

// ============================================
// Test GetWallet Handler
// ============================================

func TestWalletHandler_GetWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		mockUseCase := &MockGetWalletUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
				assert.Equal(t, userID.String(), query.UserID)
				return &dtos.WalletDTO{
					ID:           uuid.New().String(),
					UserID:       userID.String(),
					CurrencyCode: "USD",
					Balance:      "100.50",
					UpdatedAt:    time.Now(),
				}, nil
			},
		}

		handler := NewWalletHandler(mockUseCase)
		router := setupWalletTestRouter()
		router.GET("/users/:user_id/wallet", handler.GetWallet)

		req := httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/wallet", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data, ok := response["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "100.50", data["balance"])
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		handler := NewWalletHandler(&MockGetWalletUseCase{})
		router := setupWalletTestRouter()
		router.GET("/users/:user_id/wallet", handler.GetWallet)

		req := httptest.NewRequest(http.MethodGet, "/users/not-a-uuid/wallet", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockUseCase := &MockGetWalletUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
				return nil, domainerrors.NewDomainError(domainerrors.CodeNotFound, "wallet not found", domainerrors.ErrWalletNotFound)
			},
		}

		handler := NewWalletHandler(mockUseCase)
		router := setupWalletTestRouter()
		router.GET("/users/:user_id/wallet", handler.GetWallet)

		req := httptest.NewRequest(http.MethodGet, "/users/"+uuid.New().String()+"/wallet", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// ============================================
// Test GetMyWallet Handler
// ============================================

func TestWalletHandler_GetMyWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		mockUseCase := &MockGetWalletUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
				assert.Equal(t, userID.String(), query.UserID)
				return &dtos.WalletDTO{
					ID:           uuid.New().String(),
					UserID:       userID.String(),
					CurrencyCode: "USD",
					Balance:      "0.00",
				}, nil
			},
		}

		handler := NewWalletHandler(mockUseCase)
		router := setupWalletTestRouter()
		router.GET("/wallets/me", authAs(userID), handler.GetMyWallet)

		req := httptest.NewRequest(http.MethodGet, "/wallets/me", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		handler := NewWalletHandler(&MockGetWalletUseCase{})
		router := setupWalletTestRouter()
		router.GET("/wallets/me", handler.GetMyWallet)

		req := httptest.NewRequest(http.MethodGet, "/wallets/me", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// ============================================
// Test RegisterRoutes
// ============================================

func TestWalletHandler_RegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api/v1")

	handler := NewWalletHandler(&MockGetWalletUseCase{})
	handler.RegisterRoutes(apiGroup)

	routes := router.Routes()
	require.Len(t, routes, 2)
}

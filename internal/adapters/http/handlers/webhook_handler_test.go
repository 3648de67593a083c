package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/paybridge/ledgercore/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// ============================================
// Mock Use Cases
// ============================================

type MockIngestWebhookUseCase struct {
	IngestFn func(ctx context.Context, rawPayload []byte, signatureHex string) error

	gotPayload   []byte
	gotSignature string
}

func (m *MockIngestWebhookUseCase) Ingest(ctx context.Context, rawPayload []byte, signatureHex string) error {
	m.gotPayload = rawPayload
	m.gotSignature = signatureHex
	if m.IngestFn != nil {
		return m.IngestFn(ctx, rawPayload, signatureHex)
	}
	return nil
}

// ============================================
// Test Ingest Handler
// ============================================

func TestWebhookHandler_Ingest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mock := &MockIngestWebhookUseCase{}
		handler := NewWebhookHandler(mock)
		router := setupWalletTestRouter()
		router.POST("/webhooks/gateway", handler.Ingest)

		body := []byte(`{"event":"payment.succeeded","payment_id":"gw_1","amount":"40.00"}`)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, "deadbeef")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		// The handler must pass through the exact raw bytes, not a re-marshal
		assert.Equal(t, body, mock.gotPayload)
		assert.Equal(t, "deadbeef", mock.gotSignature)
	})

	t.Run("MissingSignatureHeader", func(t *testing.T) {
		mock := &MockIngestWebhookUseCase{}
		handler := NewWebhookHandler(mock)
		router := setupWalletTestRouter()
		router.POST("/webhooks/gateway", handler.Ingest)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, mock.gotPayload)
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		mock := &MockIngestWebhookUseCase{
			IngestFn: func(ctx context.Context, rawPayload []byte, signatureHex string) error {
				return domainerrors.NewDomainError(domainerrors.CodeUnauthorized, "invalid webhook signature", domainerrors.ErrInvalidWebhookSignature)
			},
		}
		handler := NewWebhookHandler(mock)
		router := setupWalletTestRouter()
		router.POST("/webhooks/gateway", handler.Ingest)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, "wrong")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("MissingEventID", func(t *testing.T) {
		mock := &MockIngestWebhookUseCase{
			IngestFn: func(ctx context.Context, rawPayload []byte, signatureHex string) error {
				return domainerrors.ValidationError{Field: "payment_id", Message: "payment_id (event_id) is required"}
			},
		}
		handler := NewWebhookHandler(mock)
		router := setupWalletTestRouter()
		router.POST("/webhooks/gateway", handler.Ingest)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBufferString(`{"event":"payment.succeeded"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, "deadbeef")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// ============================================
// Test RegisterRoutes
// ============================================

func TestWebhookHandler_RegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api/v1")

	handler := NewWebhookHandler(&MockIngestWebhookUseCase{})
	handler.RegisterRoutes(apiGroup)

	assert.Len(t, router.Routes(), 1)
}

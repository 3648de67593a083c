// Package handlers - Inbound payment gateway webhook HTTP handler.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
)

// SignatureHeader is the header carrying the HMAC-SHA256 signature of
// the raw request body, hex-encoded.
const SignatureHeader = "X-Webhook-Signature"

// ============================================
// Use Case Interfaces
// ============================================

// IngestWebhookUseCase verifies, deduplicates, and durably records an
// inbound gateway webhook before handing it off for asynchronous
// processing.
type IngestWebhookUseCase interface {
	Ingest(ctx context.Context, rawPayload []byte, signatureHex string) error
}

// ============================================
// Webhook Handler
// ============================================

// WebhookHandler handles HTTP callbacks from the payment gateway.
type WebhookHandler struct {
	ingest IngestWebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(ingest IngestWebhookUseCase) *WebhookHandler {
	return &WebhookHandler{ingest: ingest}
}

// ============================================
// HTTP Handlers
// ============================================

// Ingest accepts a webhook delivery from the payment gateway.
//
// @Summary Ingest a payment gateway webhook
// @Description Verify, deduplicate, and durably record an inbound gateway webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature of the raw body, hex-encoded"
// @Success 202 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse "Invalid signature"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/webhooks/gateway [post]
func (h *WebhookHandler) Ingest(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.BadRequestResponse(c, "failed to read request body")
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: SignatureHeader, Message: "signature header is required", Code: "required"},
		})
		return
	}

	if err := h.ingest.Ingest(c.Request.Context(), rawBody, signature); err != nil {
		middleware.RecordWebhookIngest("rejected")
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordWebhookIngest("accepted")
	common.Success(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

// RegisterRoutes registers the WebhookHandler routes.
//
// Routes:
// - POST /webhooks/gateway - Ingest a payment gateway webhook
func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/gateway", h.Ingest)
	}
}

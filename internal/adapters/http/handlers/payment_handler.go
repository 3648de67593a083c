// Package handlers - Payment Intent HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
	"github.com/paybridge/ledgercore/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateIntentUseCase opens a new gateway-side payment intent for the
// authenticated user. Intent transitions past PENDING are driven
// exclusively by the webhook pipeline, never by this handler.
type CreateIntentUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreatePaymentIntentCommand) (*dtos.PaymentIntentDTO, error)
}

// ============================================
// Payment Handler
// ============================================

// PaymentHandler handles HTTP requests for payment intents.
type PaymentHandler struct {
	createIntent CreateIntentUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(createIntent CreateIntentUseCase) *PaymentHandler {
	return &PaymentHandler{createIntent: createIntent}
}

// ============================================
// Request DTOs
// ============================================

// CreateIntentRequest is the payment intent creation request body.
//
// @Description Create payment intent request body
type CreateIntentRequest struct {
	Amount        string `json:"amount" binding:"required,money_amount"`
	CurrencyCode  string `json:"currency_code" binding:"required,len=3,currency_code"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateIntent opens a new payment intent for the authenticated user.
//
// @Summary Create a payment intent
// @Description Open a new gateway payment intent for the authenticated user
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateIntentRequest true "Intent data"
// @Success 201 {object} common.APIResponse{data=dtos.PaymentIntentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/payments/intents [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req CreateIntentRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.CreatePaymentIntentCommand{
		UserID:        userID.String(),
		Amount:        req.Amount,
		CurrencyCode:  req.CurrencyCode,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	}

	result, err := h.createIntent.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// RegisterRoutes registers the PaymentHandler routes.
//
// Routes:
// - POST /payments/intents - Create a payment intent
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("/intents", h.CreateIntent)
	}
}

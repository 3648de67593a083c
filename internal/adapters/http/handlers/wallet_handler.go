// Package handlers - Wallet HTTP handlers.
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

// GetWalletUseCase looks up a user's wallet. There is one
// wallet per user, opened at registration time - there is no create,
// credit, or debit endpoint; balances only move through the transfer
// engine and the webhook-driven deposit path.
type GetWalletUseCase interface {
	Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler handles HTTP requests for wallets.
type WalletHandler struct {
	getWallet GetWalletUseCase
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(getWallet GetWalletUseCase) *WalletHandler {
	return &WalletHandler{
		getWallet: getWallet,
	}
}

// ============================================
// Request DTOs
// ============================================

// WalletUserIDParam is the owning user's ID path parameter.
type WalletUserIDParam struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetWallet returns a user's wallet by user ID.
//
// @Summary Get a user's wallet
// @Description Get wallet details (balance, currency) for a given user
// @Tags Wallets
// @Accept json
// @Produce json
// @Param user_id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/users/{user_id}/wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	var params WalletUserIDParam
	if !BindURI(c, &params) {
		return
	}

	if _, err := uuid.Parse(params.UserID); err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "user_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	query := dtos.GetWalletQuery{UserID: params.UserID}

	result, err := h.getWallet.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetMyWallet returns the authenticated user's wallet.
//
// @Summary Get my wallet
// @Description Get the authenticated user's own wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/me [get]
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	query := dtos.GetWalletQuery{UserID: userID.String()}

	result, err := h.getWallet.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the WalletHandler routes.
//
// Routes:
// - GET /wallets/me          - Get my wallet (authenticated)
// - GET /users/:user_id/wallet - Get wallet by owner
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/wallets/me", h.GetMyWallet)
	router.GET("/users/:user_id/wallet", h.GetWallet)
}

// Package handlers - KYC HTTP handlers.
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

// SubmitKYCUseCase moves a user's own KYC from PENDING to IN_REVIEW.
type SubmitKYCUseCase interface {
	Execute(ctx context.Context, cmd dtos.SubmitKYCCommand) (*dtos.UserDTO, error)
}

// ApproveKYCUseCase moves a user's KYC from IN_REVIEW to VERIFIED.
// isAdmin is enforced inside the use case, not just at this boundary.
type ApproveKYCUseCase interface {
	Execute(ctx context.Context, cmd dtos.ApproveKYCCommand, isAdmin bool) (*dtos.UserDTO, error)
}

// RejectKYCUseCase moves a user's KYC from IN_REVIEW to REJECTED.
type RejectKYCUseCase interface {
	Execute(ctx context.Context, cmd dtos.RejectKYCCommand, isAdmin bool) (*dtos.UserDTO, error)
}

// ResubmitKYCUseCase moves an EXPIRED user's KYC back to IN_REVIEW.
type ResubmitKYCUseCase interface {
	Execute(ctx context.Context, cmd dtos.ResubmitKYCCommand) (*dtos.UserDTO, error)
}

// ============================================
// KYC Handler
// ============================================

// KYCHandler handles HTTP requests for user verification.
type KYCHandler struct {
	submit   SubmitKYCUseCase
	approve  ApproveKYCUseCase
	reject   RejectKYCUseCase
	resubmit ResubmitKYCUseCase
}

// NewKYCHandler creates a new KYCHandler.
func NewKYCHandler(
	submit SubmitKYCUseCase,
	approve ApproveKYCUseCase,
	reject RejectKYCUseCase,
	resubmit ResubmitKYCUseCase,
) *KYCHandler {
	return &KYCHandler{
		submit:   submit,
		approve:  approve,
		reject:   reject,
		resubmit: resubmit,
	}
}

// ============================================
// Request DTOs
// ============================================

// RejectKYCRequest is the KYC rejection request body.
//
// @Description Reject KYC request body
type RejectKYCRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ============================================
// HTTP Handlers
// ============================================

// Submit sends the user's KYC for review.
//
// @Summary Submit KYC for review
// @Description Move the authenticated user's own KYC from PENDING to IN_REVIEW
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/kyc/submit [post]
func (h *KYCHandler) Submit(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	cmd := dtos.SubmitKYCCommand{UserID: userID.String()}

	result, err := h.submit.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Approve approves a user's KYC (admin only).
//
// @Summary Approve KYC
// @Description Move a user's KYC from IN_REVIEW to VERIFIED. Requires admin role.
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/admin/kyc/{id}/approve [post]
func (h *KYCHandler) Approve(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	isAdmin := middleware.IsAdmin(c)
	cmd := dtos.ApproveKYCCommand{UserID: params.ID}

	result, err := h.approve.Execute(c.Request.Context(), cmd, isAdmin)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Reject rejects a user's KYC (admin only).
//
// @Summary Reject KYC
// @Description Move a user's KYC from IN_REVIEW to REJECTED. Requires admin role.
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Param request body RejectKYCRequest true "Rejection reason"
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/admin/kyc/{id}/reject [post]
func (h *KYCHandler) Reject(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	var req RejectKYCRequest
	if !BindJSON(c, &req) {
		return
	}

	isAdmin := middleware.IsAdmin(c)
	cmd := dtos.RejectKYCCommand{UserID: params.ID, Reason: req.Reason}

	result, err := h.reject.Execute(c.Request.Context(), cmd, isAdmin)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Resubmit moves the user's KYC back into review after it expired.
//
// @Summary Resubmit KYC
// @Description Move the authenticated user's own EXPIRED KYC back to IN_REVIEW
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/kyc/resubmit [post]
func (h *KYCHandler) Resubmit(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	cmd := dtos.ResubmitKYCCommand{UserID: userID.String()}

	result, err := h.resubmit.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the self-service KYC routes (authenticated
// user acting on their own KYC state).
//
// Routes:
// - POST /kyc/submit   - Submit KYC for review
// - POST /kyc/resubmit - Resubmit after expiry
func (h *KYCHandler) RegisterRoutes(router *gin.RouterGroup) {
	kyc := router.Group("/kyc")
	{
		kyc.POST("/submit", h.Submit)
		kyc.POST("/resubmit", h.Resubmit)
	}
}

// RegisterAdminRoutes registers the admin-only KYC routes.
//
// Routes:
// - POST /admin/kyc/:id/approve - Approve a user's KYC
// - POST /admin/kyc/:id/reject  - Reject a user's KYC
func (h *KYCHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	kyc := router.Group("/kyc")
	{
		kyc.POST("/:id/approve", h.Approve)
		kyc.POST("/:id/reject", h.Reject)
	}
}

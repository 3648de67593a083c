// Package handlers - Transaction HTTP handlers.
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

// TransferUseCase moves funds between two users' wallets atomically,
// idempotent on cmd.IdempotencyKey.
type TransferUseCase interface {
	Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransactionDTO, error)
}

// GetTransactionUseCase looks up a single transaction.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
}

// ListTransactionsUseCase lists transactions with filters.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error)
}

// ============================================
// Transaction Handler
// ============================================

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	transfer         TransferUseCase
	getTransaction   GetTransactionUseCase
	listTransactions ListTransactionsUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transfer TransferUseCase,
	getTransaction GetTransactionUseCase,
	listTransactions ListTransactionsUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		transfer:         transfer,
		getTransaction:   getTransaction,
		listTransactions: listTransactions,
	}
}

// ============================================
// Request DTOs
// ============================================

// TransferRequest is the transfer request body.
//
// @Description Transfer request body
type TransferRequest struct {
	ToUserID       string                 `json:"to_user_id" binding:"required,uuid"`
	Amount         string                 `json:"amount" binding:"required,money_amount"`
	Description    string                 `json:"description" binding:"omitempty,max=500"`
	IdempotencyKey string                 `json:"idempotency_key" binding:"required,uuid"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// TransactionIDParam is the transaction ID path parameter.
type TransactionIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListTransactionsParams are the list filter parameters.
type ListTransactionsParams struct {
	Type   string `form:"type" binding:"omitempty,oneof=TRANSFER DEPOSIT"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
}

// ============================================
// HTTP Handlers
// ============================================

// Transfer moves funds from the authenticated user to another user.
//
// @Summary Transfer funds
// @Description Transfer funds from the authenticated user's wallet to another user's wallet
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer data"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 400 {object} common.APIResponse "Invalid request or transaction rejected (e.g. KYC not verified)"
// @Failure 401 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "User not found"
// @Failure 422 {object} common.APIResponse "Insufficient balance"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions/transfer [post]
func (h *TransactionHandler) Transfer(c *gin.Context) {
	fromUserID := middleware.GetAuthUserID(c)
	if fromUserID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req TransferRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.TransferCommand{
		FromUserID:     fromUserID.String(),
		ToUserID:       req.ToUserID,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
	}

	result, err := h.transfer.Execute(c.Request.Context(), cmd)
	if err != nil {
		middleware.RecordTransaction("TRANSFER", "FAILED")
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordTransaction("TRANSFER", result.Status)
	common.Success(c, http.StatusOK, result)
}

// GetTransaction returns a transaction by ID, but only when it
// belongs to the authenticated user.
//
// @Summary Get transaction by ID
// @Description Get transaction details by UUID
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	authUserID := middleware.GetAuthUserID(c)
	if authUserID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetTransactionQuery{TransactionID: params.ID}

	result, err := h.getTransaction.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	if !transactionBelongsToUser(result, authUserID) {
		common.ForbiddenResponse(c, "Transaction does not belong to the authenticated user")
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListTransactions returns the authenticated user's transactions.
//
// @Summary List my transactions
// @Description Get paginated list of the authenticated user's transactions
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Param type query string false "Filter by type" Enums(TRANSFER, DEPOSIT)
// @Param status query string false "Filter by status" Enums(PENDING, PROCESSING, COMPLETED, FAILED)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	authUserID := middleware.GetAuthUserID(c)
	if authUserID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	pagination := ParsePagination(c)

	var filters ListTransactionsParams
	if !BindQuery(c, &filters) {
		return
	}

	userIDStr := authUserID.String()
	query := dtos.ListTransactionsQuery{
		UserID: &userIDStr,
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	}
	if filters.Type != "" {
		query.Type = &filters.Type
	}
	if filters.Status != "" {
		query.Status = &filters.Status
	}

	result, err := h.listTransactions.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	meta := BuildMeta(pagination, result.TotalCount)
	common.SuccessWithMeta(c, http.StatusOK, result, meta)
}

func transactionBelongsToUser(tx *dtos.TransactionDTO, userID uuid.UUID) bool {
	userIDStr := userID.String()
	if tx.FromUserID != nil && *tx.FromUserID == userIDStr {
		return true
	}
	if tx.ToUserID != nil && *tx.ToUserID == userIDStr {
		return true
	}
	return false
}

// RegisterRoutes registers the TransactionHandler routes.
//
// Routes:
// - POST /transactions/transfer - Transfer funds
// - GET  /transactions          - List my transactions
// - GET  /transactions/:id      - Get transaction by ID
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/transactions")
	{
		transactions.POST("/transfer", h.Transfer)
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
	}
}

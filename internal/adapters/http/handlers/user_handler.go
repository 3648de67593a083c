// Package handlers - User HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
	"github.com/paybridge/ledgercore/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateUserUseCase registers a user and opens a wallet in the chosen
// currency as a single atomic operation - there is no separate
// wallet-creation endpoint.
type CreateUserUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error)
}

// GetUserUseCase looks up a single user (query).
type GetUserUseCase interface {
	Execute(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error)
}

// ListUsersUseCase lists users with pagination.
type ListUsersUseCase interface {
	Execute(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error)
}

// ============================================
// User Handler
// ============================================

// UserHandler handles HTTP requests for users.
//
// Pattern: Adapter (Hexagonal Architecture)
type UserHandler struct {
	createUser CreateUserUseCase
	getUser    GetUserUseCase
	listUsers  ListUsersUseCase
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	createUser CreateUserUseCase,
	getUser GetUserUseCase,
	listUsers ListUsersUseCase,
) *UserHandler {
	return &UserHandler{
		createUser: createUser,
		getUser:    getUser,
		listUsers:  listUsers,
	}
}

// ============================================
// Request DTOs (HTTP layer)
// ============================================

// CreateUserRequest is the user registration request body.
//
// @Description Create user request body
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	FullName     string `json:"full_name" binding:"required,min=2,max=100"`
	CurrencyCode string `json:"currency_code" binding:"required,len=3,currency_code"`
}

// UserIDParam is the user ID path parameter.
type UserIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateUser registers a new user and opens their wallet.
//
// @Summary Register a new user
// @Description Register a new user and open a wallet in the chosen currency
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} common.APIResponse{data=dtos.UserCreatedDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.CreateUserCommand{
		Email:        req.Email,
		FullName:     req.FullName,
		CurrencyCode: req.CurrencyCode,
	}

	result, err := h.createUser.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetUser returns a user by ID.
//
// @Summary Get user by ID
// @Description Get user details by UUID
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	if _, err := uuid.Parse(params.ID); err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	query := dtos.GetUserQuery{UserID: params.ID}

	result, err := h.getUser.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListUsers returns a paginated list of users.
//
// @Summary List users
// @Description Get paginated list of users
// @Tags Users
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.UserListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	pagination := ParsePagination(c)

	query := dtos.ListUsersQuery{
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	}

	result, err := h.listUsers.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	meta := BuildMeta(pagination, result.TotalCount)
	common.SuccessWithMeta(c, http.StatusOK, result, meta)
}

// RegisterRoutes registers the UserHandler routes.
//
// Routes:
// - GET    /users      - List users (admin)
// - GET    /users/:id  - Get user by ID
//
// User registration (POST /users) is mounted separately on the public
// group by the router - it has no auth requirement.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
	}
}

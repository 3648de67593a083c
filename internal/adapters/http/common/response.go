// Package common holds the HTTP layer's response format and the
// translation of domain errors to status codes.
//
// It is a separate package so handlers and middleware do not import
// each other in a cycle.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/paybridge/ledgercore/internal/domain/errors"
)

// APIResponse is the envelope shared by every API response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta carries pagination for list responses.
type APIMeta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// APIError is the error body.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
}

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Adapter-level error codes. Domain codes (INVALID_TRANSACTION,
// INSUFFICIENT_BALANCE, ...) pass through from DomainError.Code;
// these cover failures of the HTTP layer itself.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	ErrCodeConcurrency  = "CONCURRENCY_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// requestIDContextKey matches the key the RequestID middleware uses
// to store the ID in the gin context.
const requestIDContextKey = "request_id"

// GetRequestID returns the current request's ID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

func envelope(c *gin.Context, status int, resp APIResponse) {
	resp.RequestID = GetRequestID(c)
	resp.Timestamp = time.Now().UTC()
	c.JSON(status, resp)
}

// Success sends a successful response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	envelope(c, statusCode, APIResponse{Success: true, Data: data})
}

// SuccessWithMeta sends a successful response with pagination.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *APIMeta) {
	envelope(c, statusCode, APIResponse{Success: true, Data: data, Meta: meta})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	envelope(c, statusCode, APIResponse{Success: false, Error: apiError})
}

// ValidationErrorResponse sends a 400 with per-field errors.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse - 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
		Details: map[string]interface{}{"resource": resource},
	})
}

// BadRequestResponse - 400.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{Code: ErrCodeBadRequest, Message: message})
}

// UnauthorizedResponse - 401.
func UnauthorizedResponse(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, &APIError{Code: ErrCodeUnauthorized, Message: message})
}

// ForbiddenResponse - 403.
func ForbiddenResponse(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, &APIError{Code: ErrCodeForbidden, Message: message})
}

// InternalErrorResponse sends a 500 with a neutral message.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{Code: ErrCodeInternal, Message: message})
}

// HandleDomainError is the single place a domain error becomes an
// HTTP status. Use cases return typed errors and know nothing about
// status codes.
func HandleDomainError(c *gin.Context, err error) {
	// Per-field validation errors.
	var valErr domainerrors.ValidationError
	if errors.As(err, &valErr) {
		ValidationErrorResponse(c, []FieldError{
			{Field: valErr.Field, Message: valErr.Message, Code: "invalid"},
		})
		return
	}
	var valErrs domainerrors.ValidationErrors
	if errors.As(err, &valErrs) {
		fields := make([]FieldError, 0, len(valErrs))
		for _, v := range valErrs {
			fields = append(fields, FieldError{Field: v.Field, Message: v.Message, Code: "invalid"})
		}
		ValidationErrorResponse(c, fields)
		return
	}

	// Business rule violations map to 422.
	var brv *domainerrors.BusinessRuleViolation
	if errors.As(err, &brv) {
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeBusinessRule,
			Message: brv.Message,
			Details: map[string]interface{}{"rule": brv.Rule, "context": brv.Context},
		})
		return
	}

	// A lost race maps to 409; the client may retry.
	var ce *domainerrors.ConcurrencyError
	if errors.As(err, &ce) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConcurrency,
			Message: "Resource was modified by another request, please retry",
			Details: map[string]interface{}{"retryable": true},
		})
		return
	}

	// Typed domain error: the code passes through unchanged, the
	// status comes from the taxonomy; a wrapped not-found cause is a
	// 404 whatever the code.
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		status := statusForCode(domainErr.Code)
		if domainerrors.IsNotFound(err) {
			status = http.StatusNotFound
		}
		Error(c, status, &APIError{
			Code:    domainErr.Code,
			Message: domainErr.Message,
		})
		return
	}

	if domainerrors.IsNotFound(err) {
		NotFoundResponse(c, "Resource")
		return
	}

	InternalErrorResponse(c, "An unexpected error occurred")
}

// statusForCode maps the domain code taxonomy to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	case domainerrors.CodeInvalidTransaction:
		return http.StatusBadRequest
	case domainerrors.CodeUnauthorized:
		return http.StatusForbidden
	case domainerrors.CodeConflict, domainerrors.CodeDuplicateTransaction:
		return http.StatusConflict
	case domainerrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

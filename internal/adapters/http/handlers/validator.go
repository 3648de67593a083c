// Package handlers contains the REST API HTTP handlers.
//
// A handler binds the request into a Command/Query DTO, calls the use
// case, and translates the result into an HTTP response. No business
// logic lives here.
package handlers

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
)

var setupOnce sync.Once

// Domain vocabularies backing the custom binding tags.
var (
	// moneyPattern: decimal string with at most two fractional
	// digits. Sub-cent amounts are rejected, not rounded.
	moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

	kycStatuses = map[string]struct{}{
		"PENDING": {}, "IN_REVIEW": {}, "VERIFIED": {}, "REJECTED": {}, "EXPIRED": {},
	}

	transactionTypes = map[string]struct{}{
		"TRANSFER": {}, "DEPOSIT": {}, "WITHDRAWAL": {}, "REFUND": {}, "FEE": {},
	}
)

// SetupValidator registers the custom binding tags and teaches the
// validator to report json field names in errors.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("money_amount", func(fl validator.FieldLevel) bool {
			return moneyPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
			return currencyPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("kyc_status", func(fl validator.FieldLevel) bool {
			_, ok := kycStatuses[fl.Field().String()]
			return ok
		})
		_ = v.RegisterValidation("transaction_type", func(fl validator.FieldLevel) bool {
			_, ok := transactionTypes[fl.Field().String()]
			return ok
		})
	})
}

// validationMessages maps tags to human-readable texts. Tags that
// carry a parameter append it in getValidationMessage.
var validationMessages = map[string]string{
	"required":         "This field is required",
	"email":            "Invalid email format",
	"uuid":             "Invalid UUID format",
	"money_amount":     "Invalid amount format (use decimal like '100.50')",
	"currency_code":    "Invalid currency code (must be 3 uppercase letters)",
	"kyc_status":       "Invalid KYC status",
	"transaction_type": "Invalid transaction type",
}

func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "len":
		return "Value must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	}
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// HandleValidationErrors turns binding errors into a 400 with a
// per-field breakdown when the validator produced one, and into a
// generic BadRequest otherwise.
func HandleValidationErrors(c *gin.Context, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	fields := make([]common.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, common.FieldError{
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
			Code:    fe.Tag(),
		})
	}

	common.ValidationErrorResponse(c, fields)
}

// BindJSON binds the JSON body; false means an error response has
// already been sent.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI binds URI parameters.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// PaginationParams paginates the list endpoints.
type PaginationParams struct {
	Page    int `form:"page" binding:"min=1"`
	PerPage int `form:"per_page" binding:"min=1,max=100"`
}

// Offset is the offset for the SQL query.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePagination reads page/per_page from the query string; invalid
// values silently fall back to the defaults (1, 20).
func ParsePagination(c *gin.Context) PaginationParams {
	params := PaginationParams{Page: 1, PerPage: 20}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if perPage, err := strconv.Atoi(c.Query("per_page")); err == nil && perPage > 0 && perPage <= 100 {
		params.PerPage = perPage
	}

	return params
}

// BuildMeta builds the response pagination meta.
func BuildMeta(params PaginationParams, total int) *common.APIMeta {
	totalPages := total / params.PerPage
	if total%params.PerPage > 0 {
		totalPages++
	}

	return &common.APIMeta{
		Page:       params.Page,
		PerPage:    params.PerPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/ledgercore/internal/adapters/http/common"
)

type bindProbe struct {
	Amount   string `json:"amount" binding:"required,money_amount"`
	Currency string `json:"currency" binding:"omitempty,currency_code"`
	Status   string `json:"status" binding:"omitempty,kyc_status"`
	Type     string `json:"type" binding:"omitempty,transaction_type"`
}

func bindProbeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()
	r := gin.New()
	r.POST("/probe", func(c *gin.Context) {
		var req bindProbe
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func postProbe(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/probe", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	bindProbeRouter().ServeHTTP(w, req)
	return w
}

func TestMoneyAmountTag(t *testing.T) {
	valid := []string{"0.01", "100", "100.5", "100.50", "1000000.00"}
	for _, amount := range valid {
		t.Run("valid "+amount, func(t *testing.T) {
			w := postProbe(t, gin.H{"amount": amount})
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	invalid := []string{"-5.00", "1.234", "abc", "1,50", "", ".50", "5."}
	for _, amount := range invalid {
		t.Run("invalid "+amount, func(t *testing.T) {
			w := postProbe(t, gin.H{"amount": amount})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCurrencyCodeTag(t *testing.T) {
	assert.Equal(t, http.StatusOK, postProbe(t, gin.H{"amount": "1.00", "currency": "USD"}).Code)
	assert.Equal(t, http.StatusBadRequest, postProbe(t, gin.H{"amount": "1.00", "currency": "usd"}).Code)
	assert.Equal(t, http.StatusBadRequest, postProbe(t, gin.H{"amount": "1.00", "currency": "USDT"}).Code)
}

func TestKYCStatusTag(t *testing.T) {
	for _, status := range []string{"PENDING", "IN_REVIEW", "VERIFIED", "REJECTED", "EXPIRED"} {
		assert.Equal(t, http.StatusOK, postProbe(t, gin.H{"amount": "1.00", "status": status}).Code, status)
	}
	assert.Equal(t, http.StatusBadRequest, postProbe(t, gin.H{"amount": "1.00", "status": "APPROVED"}).Code)
}

func TestTransactionTypeTag(t *testing.T) {
	for _, txType := range []string{"TRANSFER", "DEPOSIT", "WITHDRAWAL", "REFUND", "FEE"} {
		assert.Equal(t, http.StatusOK, postProbe(t, gin.H{"amount": "1.00", "type": txType}).Code, txType)
	}
	assert.Equal(t, http.StatusBadRequest, postProbe(t, gin.H{"amount": "1.00", "type": "PAYOUT"}).Code)
}

func TestBindJSON_FieldErrorsUseJSONNames(t *testing.T) {
	w := postProbe(t, gin.H{"amount": "nope"})

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "amount", resp.Error.Fields[0].Field)
	assert.Equal(t, "money_amount", resp.Error.Fields[0].Code)
}

func TestBindJSON_MalformedBody(t *testing.T) {
	r := bindProbeRouter()

	req := httptest.NewRequest(http.MethodPost, "/probe", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&per_page=50", 3, 50},
		{"zero page ignored", "page=0", 1, 20},
		{"negative ignored", "page=-2&per_page=-5", 1, 20},
		{"over cap ignored", "per_page=500", 1, 20},
		{"garbage ignored", "page=abc&per_page=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			params := ParsePagination(c)
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.perPage, params.PerPage)
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, PerPage: 20}.Offset())
	assert.Equal(t, 40, PaginationParams{Page: 3, PerPage: 20}.Offset())
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(PaginationParams{Page: 2, PerPage: 20}, 55)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 20, meta.PerPage)
	assert.Equal(t, 55, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	exact := BuildMeta(PaginationParams{Page: 1, PerPage: 10}, 30)
	assert.Equal(t, 3, exact.TotalPages)
}

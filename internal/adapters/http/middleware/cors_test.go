package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(cfg *CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func doCORS(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_DefaultAllowsAnyOrigin(t *testing.T) {
	w := doCORS(corsRouter(DefaultCORSConfig()), http.MethodGet, "http://anywhere.example")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Webhook-Signature")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_WhitelistedOrigin(t *testing.T) {
	cfg := ProductionCORSConfig([]string{"https://app.example.com"})
	w := doCORS(corsRouter(cfg), http.MethodGet, "https://app.example.com")

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ForbiddenOriginGetsNoHeaders(t *testing.T) {
	cfg := ProductionCORSConfig([]string{"https://app.example.com"})
	w := doCORS(corsRouter(cfg), http.MethodGet, "https://evil.example.com")

	// The request is served, just without CORS headers; the browser blocks it.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	w := doCORS(corsRouter(DefaultCORSConfig()), http.MethodOptions, "http://anywhere.example")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	w := doCORS(corsRouter(ProductionCORSConfig([]string{"https://app.example.com"})), http.MethodGet, "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_NilConfigFallsBackToDefault(t *testing.T) {
	w := doCORS(corsRouter(nil), http.MethodGet, "http://anywhere.example")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompileCORS(t *testing.T) {
	p := compileCORS(&CORSConfig{
		AllowOrigins: []string{"https://a.example", "https://b.example"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:       3600,
	})

	assert.False(t, p.allowAll)
	assert.Equal(t, "https://a.example", p.resolveOrigin("https://a.example"))
	assert.Empty(t, p.resolveOrigin("https://c.example"))
	assert.Equal(t, "GET, POST", p.methods)
	assert.Equal(t, "3600", p.maxAge)
}

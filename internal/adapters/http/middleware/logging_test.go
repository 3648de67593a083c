package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggingRouter(buf *bytes.Buffer, cfg *LoggingConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if cfg != nil && cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(buf, nil))
	}
	r := gin.New()
	r.Use(Logging(cfg))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/bad", func(c *gin.Context) { c.String(http.StatusBadRequest, "bad") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })
	return r
}

func logEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogging_RecordsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	r := loggingRouter(&buf, &LoggingConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ok?limit=5", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := logEntry(t, &buf)
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ok", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "limit=5", entry["query"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "duration")
	assert.Contains(t, entry, "client_ip")
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path  string
		level string
	}{
		{"/ok", "INFO"},
		{"/bad", "WARN"},
		{"/boom", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			r := loggingRouter(&buf, &LoggingConfig{})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.level, logEntry(t, &buf)["level"])
		})
	}
}

func TestLogging_SkipPaths(t *testing.T) {
	var buf bytes.Buffer
	r := loggingRouter(&buf, &LoggingConfig{SkipPaths: []string{"/health"}})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Zero(t, buf.Len(), "skipped path must not be logged")
}

func TestLogging_NeverLogsBodies(t *testing.T) {
	var buf bytes.Buffer
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(&LoggingConfig{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}))
	r.POST("/transfer", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"balance_after": "70.00"})
	})

	body := bytes.NewBufferString(`{"amount":"30.00","to_user_id":"abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/transfer", body)
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.NotContains(t, out, "30.00")
	assert.NotContains(t, out, "balance_after")
}

func TestLogging_CapturesGinErrors(t *testing.T) {
	var buf bytes.Buffer
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(&LoggingConfig{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}))
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/err", nil))

	assert.Contains(t, logEntry(t, &buf)["errors"], assert.AnError.Error())
}

func TestLogging_NilConfigUsesDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelFor(200))
	assert.Equal(t, slog.LevelInfo, levelFor(302))
	assert.Equal(t, slog.LevelWarn, levelFor(404))
	assert.Equal(t, slog.LevelWarn, levelFor(422))
	assert.Equal(t, slog.LevelError, levelFor(500))
	assert.Equal(t, slog.LevelError, levelFor(503))
}

// Package middleware - Recovery middleware.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// RecoveryConfig holds the panic handling settings.
type RecoveryConfig struct {
	Logger *slog.Logger
	// EnableStackTrace adds the stack trace to the log record.
	// Disabled in production: a stack trace with source paths must
	// not leak into log aggregators.
	EnableStackTrace bool
}

// DefaultRecoveryConfig is the default configuration.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery catches panics in handlers, logs them, and answers 500
// with a neutral body. Mounted first in the chain.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			attrs := []slog.Attr{
				slog.String("panic", fmt.Sprintf("%v", r)),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("request_id", GetRequestID(c)),
				slog.String("client_ip", c.ClientIP()),
			}
			if config.EnableStackTrace {
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
			}

			log.LogAttrs(c.Request.Context(), slog.LevelError, "panic recovered", attrs...)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
				"request_id": GetRequestID(c),
				"timestamp":  time.Now().UTC(),
			})
		}()

		c.Next()
	}
}

// Package middleware - the adapter's HTTP middleware: auth, CORS,
// access log, metrics, rate limiting, request ID, recovery.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paybridge/ledgercore/internal/pkg/logger"
)

const (
	// RequestIDHeader is the request ID header.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key for the request ID.
	RequestIDContextKey = "request_id"
)

// RequestID assigns every request an ID: the client's own from
// X-Request-ID when supplied, a fresh UUID otherwise.
//
// The ID goes into the gin context, into the request context (where
// the logger's ContextHandler picks it up), and into the response
// header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDContextKey, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// GetRequestID returns the current request's ID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

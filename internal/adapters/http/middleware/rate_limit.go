// Package middleware - Rate limiting middleware.
//
// Fixed-window counter with in-memory storage. One process is enough:
// the limit guards against abuse, it does not do billing, so
// distributed accuracy is not required.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/google/uuid"
)

// RateLimitConfig bounds requests per key per window.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc picks the limiting key; defaults to the client IP.
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig allows 100 requests per minute per IP.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:  100,
		Window: time.Minute,
	}
}

// window is one counter window for a key.
type window struct {
	count   int
	startAt time.Time
}

// fixedWindowLimiter keeps per-key counters plus a background sweep
// of stale windows.
type fixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
}

func newFixedWindowLimiter(limit int, span time.Duration) *fixedWindowLimiter {
	l := &fixedWindowLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
	}
	go l.sweep()
	return l
}

// take claims a slot; it returns the remaining slots and the time
// until the window resets.
func (l *fixedWindowLimiter) take(key string) (ok bool, remaining int, reset time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w := l.windows[key]

	if w == nil || now.Sub(w.startAt) >= l.span {
		l.windows[key] = &window{count: 1, startAt: now}
		return true, l.limit - 1, l.span
	}

	reset = l.span - now.Sub(w.startAt)
	if w.count >= l.limit {
		return false, 0, reset
	}

	w.count++
	return true, l.limit - w.count, reset
}

// sweep periodically removes windows that have gone quiet.
func (l *fixedWindowLimiter) sweep() {
	ticker := time.NewTicker(l.span * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.span)
		for key, w := range l.windows {
			if w.startAt.Before(cutoff) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit bounds the number of requests per key.
//
// Headers: X-RateLimit-Limit / -Remaining / -Reset, plus Retry-After
// and status 429 on rejection.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	limiter := newFixedWindowLimiter(config.Limit, config.Window)

	return func(c *gin.Context) {
		ok, remaining, reset := limiter.take(keyFunc(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if !ok {
			retrySeconds := int(reset.Seconds())
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retrySeconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "TOO_MANY_REQUESTS",
					"message":     "Rate limit exceeded, please try again later",
					"retry_after": retrySeconds,
				},
				"request_id": GetRequestID(c),
				"timestamp":  time.Now().UTC(),
			})
			return
		}

		c.Next()
	}
}

// TransactionRateLimit is the separate, stricter limit on money
// operations: by user ID when authenticated, by IP otherwise.
func TransactionRateLimit() gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		Limit:  30,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetAuthUserID(c); userID != uuid.Nil {
				return "user:" + userID.String()
			}
			return "ip:" + c.ClientIP()
		},
	})
}

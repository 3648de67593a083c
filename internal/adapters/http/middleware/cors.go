// Package middleware - CORS middleware.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds the Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	// AllowOrigins lists the permitted origins; "*" allows all
	// (development only).
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge caches the preflight response, in seconds.
	MaxAge int
}

// DefaultCORSConfig is the permissive development configuration.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
			"X-Idempotency-Key",
			"X-Webhook-Signature",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	}
}

// ProductionCORSConfig uses an explicit origin whitelist plus credentials.
func ProductionCORSConfig(allowedOrigins []string) *CORSConfig {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}

// corsPolicy holds the headers computed once when the middleware is built.
type corsPolicy struct {
	allowAll    bool
	origins     map[string]struct{}
	methods     string
	headers     string
	expose      string
	maxAge      string
	credentials bool
}

func compileCORS(cfg *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		allowAll:    len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*",
		origins:     make(map[string]struct{}, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		maxAge:      strconv.Itoa(cfg.MaxAge),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		p.origins[o] = struct{}{}
	}
	return p
}

// resolveOrigin returns the Access-Control-Allow-Origin value, empty
// when the origin is not allowed.
func (p *corsPolicy) resolveOrigin(origin string) string {
	if p.allowAll {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS sets the CORS headers and answers preflight OPTIONS requests.
// A request from a disallowed origin still runs, just without CORS
// headers: the browser enforces the denial, not the server.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}
	policy := compileCORS(config)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := policy.resolveOrigin(origin)
		if allowed == "" && origin != "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", policy.methods)
		c.Header("Access-Control-Allow-Headers", policy.headers)
		c.Header("Access-Control-Expose-Headers", policy.expose)
		c.Header("Access-Control-Max-Age", policy.maxAge)
		if policy.credentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

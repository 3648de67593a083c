// Package handlers - health probes.
//
// Liveness means the process is alive (restart otherwise); readiness
// means the dependencies respond and traffic can be routed here.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paybridge/ledgercore/internal/adapters/http/middleware"
)

// DependencyCheck probes one external dependency.
type DependencyCheck func(ctx context.Context) error

// HealthHandler serves the health/readiness/liveness probes.
type HealthHandler struct {
	pool      *pgxpool.Pool
	version   string
	buildTime string
	startTime time.Time
	checks    map[string]DependencyCheck
}

// NewHealthHandler creates the handler; the "database" check is
// registered up front, other dependencies (redis, nats) are added
// via AddCheck.
func NewHealthHandler(pool *pgxpool.Pool, version, buildTime string) *HealthHandler {
	h := &HealthHandler{
		pool:      pool,
		version:   version,
		buildTime: buildTime,
		startTime: time.Now(),
		checks:    make(map[string]DependencyCheck),
	}
	if pool != nil {
		h.checks["database"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
	}
	return h
}

// AddCheck registers an additional readiness check.
func (h *HealthHandler) AddCheck(name string, check DependencyCheck) {
	h.checks[name] = check
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status    string            `json:"status"` // healthy | unhealthy
	Version   string            `json:"version"`
	BuildTime string            `json:"build_time"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessResponse is the readiness check response.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// runChecks runs every dependency check under a short timeout.
func (h *HealthHandler) runChecks(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(checkCtx)
		cancel()

		if err != nil {
			results[name] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			results[name] = "healthy"
		}
	}

	return results, healthy
}

// Health is the liveness probe; it never calls external dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// Ready is the readiness probe: 503 while any dependency is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks, ready := h.runChecks(c.Request.Context())

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, ReadinessResponse{
		Ready:     ready,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// Live is the minimal liveness probe.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// DetailedHealth reports extended status with pool statistics and
// refreshes the Prometheus connection gauge on the way.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks, healthy := h.runChecks(c.Request.Context())

	if h.pool != nil && healthy {
		stats := h.pool.Stat()
		checks["db_total_conns"] = strconv.Itoa(int(stats.TotalConns()))
		checks["db_idle_conns"] = strconv.Itoa(int(stats.IdleConns()))
		checks["db_acquired_conns"] = strconv.Itoa(int(stats.AcquiredConns()))

		middleware.UpdateDBConnections(stats.IdleConns(), stats.AcquiredConns(), stats.MaxConns())
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// RegisterRoutes registers the probe routes.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.DetailedHealth)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
}

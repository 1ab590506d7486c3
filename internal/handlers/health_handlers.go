package handlers

import (
	"context"
	"net/http"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db       Pinger
	cacheSvc caching.CacheService
	version  string
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db Pinger, cacheSvc caching.CacheService, version string) *HealthHandlers {
	return &HealthHandlers{
		db:       db,
		cacheSvc: cacheSvc,
		version:  version,
		started:  time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return common.SendOK(c, h.status("alive"))
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	health := h.status("ready")
	health.Services = map[string]string{
		"database": "healthy",
		"cache":    "healthy",
	}
	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "not_ready"
	}
	if err := h.cacheSvc.Ping(ctx); err != nil {
		health.Services["cache"] = "unhealthy"
		health.Status = "not_ready"
	}

	if health.Status != "ready" {
		return c.JSON(http.StatusServiceUnavailable, common.Envelope{
			Success: false,
			Data:    health,
			Error:   "Serviços críticos indisponíveis",
		})
	}
	return common.SendOK(c, health)
}

func (h *HealthHandlers) status(s string) *HealthStatus {
	return &HealthStatus{
		Status:    s,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
}

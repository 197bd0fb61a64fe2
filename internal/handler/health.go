package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is a string type for dependency injection of the build version.
type Version string

// Service is a string type for dependency injection of the service name.
type Service string

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	service Service
	version Version
	started time.Time
}

// NewHealthHandler creates a HealthHandler. Uptime is measured from here.
func NewHealthHandler(s Service, v Version) *HealthHandler {
	return &HealthHandler{service: s, version: v, started: time.Now()}
}

// Health returns service status for monitoring probes.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   string(h.service),
		"version":   string(h.version),
		"uptime":    time.Since(h.started).Seconds(),
	})
}

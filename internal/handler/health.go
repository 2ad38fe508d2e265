package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inventory-gateway-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns gateway status information so operators can verify wiring
// without calling the backend.
func (h *HealthHandler) Status(c echo.Context) error {
	authMode := "pass-through"
	if h.cfg.Auth.Enabled {
		authMode = "resolve"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         string(h.version),
		"backend_url":     h.cfg.Backend.BaseURL,
		"auth_mode":       authMode,
		"permissive_cors": h.cfg.CORS.Permissive,
	})
}

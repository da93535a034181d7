// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"go.uber.org/zap"
)

const historyPingTimeout = 2 * time.Second

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	gen     *generator.Generator
	history history.Store
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, gen *generator.Generator, hist history.Store, logger *zap.Logger) HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandlerImpl{
		version: version,
		gen:     gen,
		history: hist,
		logger:  logger,
	}
}

// HandleHealth reports the loaded profile count and whether the run history
// answers. An unreachable history turns the status to "degraded" with a 503.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	profiles := 0
	if h.gen != nil {
		profiles = len(h.gen.Profiles().List())
	}

	historyStatus := "disabled"
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), historyPingTimeout)
		defer cancel()
		if _, err := h.history.List(ctx, 1); err != nil {
			h.logger.Warn("history unreachable", zap.Error(err))
			historyStatus = "unavailable"
		} else {
			historyStatus = "ok"
		}
	}

	status, code := "ok", http.StatusOK
	if historyStatus == "unavailable" {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":   status,
		"version":  h.version,
		"profiles": profiles,
		"history":  historyStatus,
	})
}

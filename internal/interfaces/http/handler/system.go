package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// SystemHandler serves the health and build information endpoints
type SystemHandler struct {
	name      string
	version   string
	env       string
	startTime time.Time
	svc       ReturnProcessor
	db        Pinger
	now       func() time.Time
}

// NewSystemHandler creates a SystemHandler. db may be nil when the audit
// journal is disabled.
func NewSystemHandler(name, version, env string, svc ReturnProcessor, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		env:       env,
		startTime: time.Now(),
		svc:       svc,
		db:        db,
		now:       time.Now,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/system/info", h.GetSystemInfo)
}

// GetSystemInfo godoc
// @Summary      Build information
// @Description  Returns the service name, version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.SystemInfoResponse
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		Env:       h.env,
		GoVersion: runtime.Version(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
	})
}

// Health reports 503 while secrets are missing or the journal database is unreachable
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status: "healthy",
		Time:   h.now().UTC().Format(time.RFC3339),
		Config: "ok",
	}
	status := http.StatusOK

	if missing := h.svc.Misconfigured(); len(missing) > 0 {
		resp.Status, resp.Config, resp.Missing = "unhealthy", "missing secrets", missing
		status = http.StatusServiceUnavailable
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		resp.Database = "ok"
		if err := h.db.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			resp.Status, resp.Database = "unhealthy", "error"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}

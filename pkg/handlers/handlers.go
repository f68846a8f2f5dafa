// Package handlers implements the read-only status API. The process is
// driven entirely by its config files; the API only observes it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pickwatch/pkg/monitor"
	"pickwatch/pkg/proxy"
	"pickwatch/pkg/response"
)

const serviceVersion = "1.0.0"

// HandlerService carries the shared state the handlers read from.
type HandlerService struct {
	registry  *monitor.Registry
	pool      *proxy.Pool
	startedAt time.Time
}

func NewHandlerService(registry *monitor.Registry, pool *proxy.Pool) *HandlerService {
	return &HandlerService{
		registry:  registry,
		pool:      pool,
		startedAt: time.Now(),
	}
}

// Health reports liveness.
func (h *HandlerService) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "pickwatch",
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListMonitors returns the status of every monitor.
func (h *HandlerService) ListMonitors(c *gin.Context) {
	response.Success(c, h.registry.Snapshot())
}

// GetMonitor returns the status of one monitor by channel ID.
func (h *HandlerService) GetMonitor(c *gin.Context) {
	status, ok := h.registry.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "monitor not found")
		return
	}
	response.Success(c, status)
}

// GetStats returns process-wide aggregates.
func (h *HandlerService) GetStats(c *gin.Context) {
	cycles, sent, suppressed, failed, exceptions := h.registry.Totals()
	response.Success(c, gin.H{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"proxies":        h.pool.Size(),
		"monitors":       len(h.registry.Snapshot()),
		"cycles":         cycles,
		"sent":           sent,
		"suppressed":     suppressed,
		"failed":         failed,
		"exceptions":     exceptions,
	})
}

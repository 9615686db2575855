package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/jebol-id/adminduk-api/internal/service"
)

// MonitoringHandler exposes health and observability endpoints.
type MonitoringHandler struct {
	metrics *service.MetricsService
	db      *sqlx.DB
}

// NewMonitoringHandler constructs a monitoring handler.
func NewMonitoringHandler(metrics *service.MetricsService, db *sqlx.DB) *MonitoringHandler {
	return &MonitoringHandler{metrics: metrics, db: db}
}

// Health responds with a liveness payload.
func (h *MonitoringHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready checks the database connection before reporting readiness.
func (h *MonitoringHandler) Ready(c *gin.Context) {
	if h.db != nil {
		start := time.Now()
		err := h.db.PingContext(c.Request.Context())
		h.metrics.ObserveDBQuery("ping", time.Since(start))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MonitoringHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler provides liveness and readiness probes.
type HealthHandler struct {
	pool    *pgxpool.Pool
	version string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(pool *pgxpool.Pool, version string) *HealthHandler {
	return &HealthHandler{pool: pool, version: version}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness by pinging the database.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := c.Request.Context(), func() {}
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Info reports build metadata and pool stats.
func (h *HealthHandler) Info(c *gin.Context) {
	stats := h.pool.Stat()
	c.JSON(http.StatusOK, gin.H{
		"version": h.version,
		"time":    time.Now().UTC(),
		"db": gin.H{
			"total_conns": stats.TotalConns(),
			"idle_conns":  stats.IdleConns(),
		},
	})
}

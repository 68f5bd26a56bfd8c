package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/ajharbinger/scoring-api/internal/upstream"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports the health of an optional dependency
type HealthChecker interface {
	HealthCheck() error
}

type poolStats interface {
	GetStats() sql.DBStats
}

// HealthHandler serves liveness and job counts
type HealthHandler struct {
	scoringService services.ScoringService
	db             HealthChecker
	upstream       *upstream.HealthMonitor
	started        time.Time
}

// NewHealthHandler creates a health handler; db and monitor may be nil
func NewHealthHandler(scoringService services.ScoringService, db HealthChecker, monitor *upstream.HealthMonitor) *HealthHandler {
	return &HealthHandler{
		scoringService: scoringService,
		db:             db,
		upstream:       monitor,
		started:        time.Now(),
	}
}

// Health returns job counts. completedCount covers every finished job,
// successful or not; failedCount breaks out the failures.
func (h *HealthHandler) Health(c *gin.Context) {
	counts := h.scoringService.Health()
	body := gin.H{
		"status":         "healthy",
		"pendingCount":   counts.Pending,
		"completedCount": counts.Terminal(),
		"failedCount":    counts.Failed,
		"uptime":         time.Since(h.started).Round(time.Second).String(),
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			body["status"] = "degraded"
			body["database"] = gin.H{"healthy": false, "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			dbBody := gin.H{"healthy": true}
			if ps, ok := h.db.(poolStats); ok {
				stats := ps.GetStats()
				dbBody["open_connections"] = stats.OpenConnections
				dbBody["in_use"] = stats.InUse
				dbBody["idle"] = stats.Idle
			}
			body["database"] = dbBody
		}
	}

	// Upstream trouble is reported but does not fail the check: jobs still
	// reach a terminal state when the provider is down.
	if h.upstream != nil {
		body["upstream"] = h.upstream.Status()
	}

	c.JSON(status, body)
}

// Root answers with a greeting
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Scoring API is running")
}

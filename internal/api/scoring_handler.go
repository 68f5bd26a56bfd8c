package api

import (
	"net/http"
	"strings"

	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/middleware"
	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ClientTokenHeader names the registered client to score against
const ClientTokenHeader = "X-Client-Token"

// NoExclusion is reported for every completed score
const NoExclusion = "No Exclusion"

// ScoringHandler serves initiate and status requests
type ScoringHandler struct {
	scoringService  services.ScoringService
	logger          logger.Logger
	limitAmount     int
	requireSelector bool
}

// NewScoringHandler creates a new scoring handler with service injection
func NewScoringHandler(scoringService services.ScoringService, log logger.Logger, limitAmount int, requireSelector bool) *ScoringHandler {
	return &ScoringHandler{
		scoringService:  scoringService,
		logger:          log,
		limitAmount:     limitAmount,
		requireSelector: requireSelector,
	}
}

// Initiate starts scoring for a customer and returns the job token
func (h *ScoringHandler) Initiate(c *gin.Context) {
	var selector clients.Selector = clients.FirstRegistered{}
	if token := strings.TrimSpace(c.GetHeader(ClientTokenHeader)); token != "" {
		selector = clients.ByToken(token)
	} else if h.requireSelector {
		c.JSON(http.StatusBadRequest, gin.H{"error": ClientTokenHeader + " header is required"})
		return
	}

	token, err := h.scoringService.Initiate(c.Request.Context(), c.Param("customerNumber"), selector)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"requestId": middleware.RequestID(c),
	})
}

// Status reports progress or the result for a job token
func (h *ScoringHandler) Status(c *gin.Context) {
	view, err := h.scoringService.QueryStatus(c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	requestID := middleware.RequestID(c)
	switch view.State {
	case jobs.StateCompleted:
		c.JSON(http.StatusOK, gin.H{
			"requestId":       requestID,
			"customerNumber":  view.CustomerNumber,
			"score":           view.Score,
			"limitAmount":     h.limitAmount,
			"exclusion":       NoExclusion,
			"exclusionReason": NoExclusion,
		})
	case jobs.StateFailed:
		c.JSON(http.StatusBadRequest, gin.H{
			"requestId":      requestID,
			"customerNumber": view.CustomerNumber,
			"error":          "Scoring Failed!",
			"reason":         view.FailureReason,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"requestId": requestID,
			"status":    "processing",
			"progress":  view.Progress,
		})
	}
}

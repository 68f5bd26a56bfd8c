package api

import (
	"errors"
	"net/http"

	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/gin-gonic/gin"
)

// respondError writes err as {error, code} with the status its code maps to.
// Server-side failures are logged and their message hidden; a 503 keeps its
// message so callers know to retry.
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || (status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable) {
		log.Error("Request failed", err, "path", c.FullPath())
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.JSON(status, body)
}

package api

import (
	"net/http"

	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler issues bearer tokens
type AuthHandler struct {
	authService services.AuthService
	logger      logger.Logger
}

// NewAuthHandler creates a new auth handler with service injection
func NewAuthHandler(authService services.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: log}
}

// LoginRequest represents a token request body
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Token exchanges basic credentials or a username/password body for a JWT
func (h *AuthHandler) Token(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		var req LoginRequest
		if err := c.ShouldBind(&req); err != nil || req.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		username, password = req.Username, req.Password
	}

	response, err := h.authService.Login(username, password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

package api

import (
	"net/http"

	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ClientHandler manages downstream client registrations
type ClientHandler struct {
	clientService services.ClientService
	logger        logger.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService services.ClientService, log logger.Logger) *ClientHandler {
	return &ClientHandler{clientService: clientService, logger: log}
}

// registerRequest accepts JSON or form bodies
type registerRequest struct {
	URL      string `json:"url" form:"url"`
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register stores a new client and returns it with its issued token
func (h *ClientHandler) Register(c *gin.Context) {
	var req registerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	client, err := h.clientService.Register(c.Request.Context(), clients.RegisterRequest{
		URL:      req.URL,
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}

// List returns registered clients without their passwords
func (h *ClientHandler) List(c *gin.Context) {
	list, err := h.clientService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": list,
		"count":   len(list),
	})
}

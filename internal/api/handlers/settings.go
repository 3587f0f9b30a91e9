package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"wcperfit/internal/integration"
	"wcperfit/internal/logger"
	"wcperfit/internal/services/perfit"

	"github.com/gin-gonic/gin"
)

type Lifecycle interface {
	Activate(ctx context.Context, apiKey string, userID int64) error
	Deactivate(ctx context.Context) error
	Status(ctx context.Context) (*integration.Status, error)
}

// SettingsHandler lets the store admin connect and disconnect Perfit.
type SettingsHandler struct {
	lifecycle Lifecycle
	userID    int64
	logger    *logger.Logger
}

func NewSettingsHandler(lifecycle Lifecycle, userID int64, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		lifecycle: lifecycle,
		userID:    userID,
		logger:    logger,
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	status, err := h.lifecycle.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read integration status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// Save activates the integration with the submitted API key.
func (h *SettingsHandler) Save(c *gin.Context) {
	var request struct {
		APIKey string `json:"apikey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.lifecycle.Activate(ctx, strings.TrimSpace(request.APIKey), h.userID); err != nil {
		h.respondError(c, err)
		return
	}

	h.Get(c)
}

// Delete deactivates the integration.
func (h *SettingsHandler) Delete(c *gin.Context) {
	if err := h.lifecycle.Deactivate(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	h.Get(c)
}

func (h *SettingsHandler) respondError(c *gin.Context, err error) {
	var actErr *integration.ActivationError
	var netErr *perfit.NetworkError

	switch {
	case errors.Is(err, integration.ErrEmptyAPIKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "API key is required"})
	case errors.Is(err, integration.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Another change to the integration is in progress"})
	case errors.Is(err, integration.ErrAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "Integration is already active"})
	case errors.As(err, &actErr):
		status := http.StatusUnprocessableEntity
		if actErr.Message == integration.MessageUnauthorized {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": actErr.Message})
	case errors.As(err, &netErr):
		h.logger.Error("Perfit unreachable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach Perfit"})
	default:
		h.logger.Error("Integration change failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update integration"})
	}
}

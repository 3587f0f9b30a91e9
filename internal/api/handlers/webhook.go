package handlers

import (
	"context"
	"net/http"

	"wcperfit/internal/models"

	"github.com/gin-gonic/gin"
)

type WebhookLister interface {
	List(ctx context.Context) ([]models.Webhook, error)
}

type WebhookHandler struct {
	webhooks WebhookLister
}

func NewWebhookHandler(webhooks WebhookLister) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

func (h *WebhookHandler) List(c *gin.Context) {
	hooks, err := h.webhooks.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch webhooks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hooks})
}

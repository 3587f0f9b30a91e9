package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"
	"wcperfit/internal/models"

	"gorm.io/gorm"
)

// Topic is a host event the integration subscribes to.
type Topic struct {
	Topic string
	Name  string
}

// DefaultTopics are the store events forwarded to Perfit.
var DefaultTopics = []Topic{
	{Topic: "product.created", Name: "product created"},
	{Topic: "product.updated", Name: "product updated"},
	{Topic: "product.deleted", Name: "product deleted"},
	{Topic: "order.created", Name: "order created"},
	{Topic: "order.updated", Name: "order updated"},
	{Topic: "customer.created", Name: "customer created"},
	{Topic: "customer.updated", Name: "customer updated"},
	{Topic: "action.woocommerce_add_to_cart", Name: "product add_to_cart"},
}

// WebhookProvisioner creates and removes the store's webhook subscriptions
// that push events to Perfit.
type WebhookProvisioner struct {
	db     *gorm.DB
	logger *logger.Logger
	topics []Topic
}

// NewWebhookProvisioner uses DefaultTopics when topics is empty.
func NewWebhookProvisioner(db *gorm.DB, logger *logger.Logger, topics []Topic) *WebhookProvisioner {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	return &WebhookProvisioner{db: db, logger: logger, topics: topics}
}

func (p *WebhookProvisioner) Topics() []Topic {
	out := make([]Topic, len(p.topics))
	copy(out, p.topics)
	return out
}

// RegisterAll makes sure every topic has an active subscription delivering
// to deliveryURL. Existing active subscriptions for the same topic and URL
// are kept rather than duplicated. A failure part way leaves the topics
// handled so far in place.
func (p *WebhookProvisioner) RegisterAll(ctx context.Context, deliveryURL string, apiVersion int, ownerID int64) ([]models.Webhook, error) {
	if deliveryURL == "" {
		return nil, fmt.Errorf("woocommerce: empty webhook delivery url")
	}

	db := p.db.WithContext(ctx)
	out := make([]models.Webhook, 0, len(p.topics))
	for _, t := range p.topics {
		var existing models.Webhook
		err := db.Where("topic = ? AND delivery_url = ? AND status = ?", t.Topic, deliveryURL, models.WebhookStatusActive).
			First(&existing).Error
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return out, fmt.Errorf("failed to look up webhook %s: %w", t.Topic, err)
		}

		hook := models.Webhook{
			Name:            t.Name,
			Topic:           t.Topic,
			DeliveryURL:     deliveryURL,
			Status:          models.WebhookStatusActive,
			APIVersion:      apiVersion,
			UserID:          ownerID,
			PendingDelivery: false,
		}
		if err := db.Create(&hook).Error; err != nil {
			return out, fmt.Errorf("failed to create webhook %s: %w", t.Topic, err)
		}
		metrics.WebhookChanges.WithLabelValues("created").Inc()
		out = append(out, hook)
	}

	p.logger.Info("registered %d webhooks for %s", len(out), deliveryURL)
	return out, nil
}

// UnregisterByURL deletes every subscription whose delivery URL contains
// deliveryURL and returns how many were removed. An empty URL removes
// nothing.
func (p *WebhookProvisioner) UnregisterByURL(ctx context.Context, deliveryURL string) (int, error) {
	if deliveryURL == "" {
		return 0, nil
	}

	hooks, err := p.List(ctx)
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, h := range hooks {
		if strings.Contains(h.DeliveryURL, deliveryURL) {
			ids = append(ids, h.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := p.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Webhook{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete webhooks: %w", err)
	}
	metrics.WebhookChanges.WithLabelValues("deleted").Add(float64(len(ids)))
	p.logger.Info("removed %d webhooks for %s", len(ids), deliveryURL)
	return len(ids), nil
}

func (p *WebhookProvisioner) List(ctx context.Context) ([]models.Webhook, error) {
	var hooks []models.Webhook
	if err := p.db.WithContext(ctx).Order("created_at").Find(&hooks).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return hooks, nil
}

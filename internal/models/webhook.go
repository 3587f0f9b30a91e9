package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Webhook is a host platform subscription that pushes topic payloads to a
// delivery URL.
type Webhook struct {
	ID              string        `json:"id" gorm:"type:varchar(36);primary_key"`
	Name            string        `json:"name" gorm:"not null"`
	Topic           string        `json:"topic" gorm:"index;not null"`
	DeliveryURL     string        `json:"delivery_url" gorm:"type:text;not null"`
	Status          WebhookStatus `json:"status" gorm:"default:active"`
	APIVersion      int           `json:"api_version"`
	UserID          int64         `json:"user_id"`
	PendingDelivery bool          `json:"pending_delivery"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type WebhookStatus string

const (
	WebhookStatusActive   WebhookStatus = "active"
	WebhookStatusPaused   WebhookStatus = "paused"
	WebhookStatusDisabled WebhookStatus = "disabled"
)

func (w *Webhook) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

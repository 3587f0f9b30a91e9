package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a WooCommerce REST API credential issued to an integration.
// ConsumerKey holds the hash of the key, never the plaintext.
type APIKey struct {
	ID             string         `json:"key_id" gorm:"type:varchar(36);primary_key"`
	UserID         int64          `json:"user_id" gorm:"not null"`
	Description    string         `json:"description"`
	Permissions    KeyPermissions `json:"permissions" gorm:"size:10;not null"`
	ConsumerKey    string         `json:"-" gorm:"size:64;uniqueIndex;not null"`
	ConsumerSecret string         `json:"-" gorm:"size:43;not null"`
	TruncatedKey   string         `json:"truncated_key" gorm:"size:7"`
	LastAccess     *time.Time     `json:"last_access"`
	CreatedAt      time.Time      `json:"created_at"`
}

type KeyPermissions string

const (
	KeyPermissionsRead      KeyPermissions = "read"
	KeyPermissionsWrite     KeyPermissions = "write"
	KeyPermissionsReadWrite KeyPermissions = "read_write"
)

// CanRead reports whether the credential grants read access.
func (p KeyPermissions) CanRead() bool {
	return p == KeyPermissionsRead || p == KeyPermissionsReadWrite
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	return nil
}

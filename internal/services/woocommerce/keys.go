package woocommerce

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"wcperfit/internal/logger"
	"wcperfit/internal/models"

	"gorm.io/gorm"
)

// KeyDescription labels the credentials issued to the integration.
const KeyDescription = "Perfit integration"

var (
	// ErrKeyCollision means a freshly generated consumer key hashed to one
	// already on record, so no credential was issued.
	ErrKeyCollision = errors.New("woocommerce: generated consumer key already exists")
	// ErrInvalidCredentials means the key/secret pair did not match any credential.
	ErrInvalidCredentials = errors.New("woocommerce: invalid consumer key or secret")
)

// ProvisionedKey is a newly issued credential. ConsumerKey is the plaintext
// key; only its hash is stored, so this is the one chance to read it.
type ProvisionedKey struct {
	KeyID          string                `json:"key_id"`
	UserID         int64                 `json:"user_id"`
	ConsumerKey    string                `json:"consumer_key"`
	ConsumerSecret string                `json:"consumer_secret"`
	Permissions    models.KeyPermissions `json:"key_permissions"`
}

// KeyProvisioner issues and revokes read-only REST API credentials on the
// store so Perfit can pull products, orders and customers back.
type KeyProvisioner struct {
	db      *gorm.DB
	logger  *logger.Logger
	randHex func() (string, error)
	now     func() time.Time
}

func NewKeyProvisioner(db *gorm.DB, logger *logger.Logger) *KeyProvisioner {
	return &KeyProvisioner{
		db:      db,
		logger:  logger,
		randHex: randomHash,
		now:     time.Now,
	}
}

// HashKey hashes a consumer key the way the store keeps it at rest.
func HashKey(consumerKey string) string {
	mac := hmac.New(sha256.New, []byte("wc-api"))
	mac.Write([]byte(consumerKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// Provision issues a new read-only credential owned by userID.
func (p *KeyProvisioner) Provision(ctx context.Context, userID int64) (*ProvisionedKey, error) {
	keyPart, err := p.randHex()
	if err != nil {
		return nil, fmt.Errorf("failed to generate consumer key: %w", err)
	}
	secretPart, err := p.randHex()
	if err != nil {
		return nil, fmt.Errorf("failed to generate consumer secret: %w", err)
	}
	consumerKey := "ck_" + keyPart
	consumerSecret := "cs_" + secretPart
	hashed := HashKey(consumerKey)

	row := models.APIKey{
		UserID:         userID,
		Description:    KeyDescription,
		Permissions:    models.KeyPermissionsRead,
		ConsumerKey:    hashed,
		ConsumerSecret: consumerSecret,
		TruncatedKey:   consumerKey[len(consumerKey)-7:],
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.APIKey{}).Where("consumer_key = ?", hashed).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up consumer key: %w", err)
		}
		if count > 0 {
			return ErrKeyCollision
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create consumer key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("issued consumer key %s (...%s) for user %d", row.ID, row.TruncatedKey, userID)

	return &ProvisionedKey{
		KeyID:          row.ID,
		UserID:         userID,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		Permissions:    row.Permissions,
	}, nil
}

// Revoke deletes the credential with the given id. Unknown or empty ids
// are a no-op.
func (p *KeyProvisioner) Revoke(ctx context.Context, keyID string) error {
	if keyID == "" {
		return nil
	}
	res := p.db.WithContext(ctx).Delete(&models.APIKey{}, "id = ?", keyID)
	if res.Error != nil {
		return fmt.Errorf("failed to revoke consumer key %s: %w", keyID, res.Error)
	}
	if res.RowsAffected > 0 {
		p.logger.Info("revoked consumer key %s", keyID)
	}
	return nil
}

// Authenticate resolves a plaintext key/secret pair to its credential and
// records the access.
func (p *KeyProvisioner) Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*models.APIKey, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, ErrInvalidCredentials
	}

	var key models.APIKey
	err := p.db.WithContext(ctx).Where("consumer_key = ?", HashKey(consumerKey)).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up consumer key: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(key.ConsumerSecret), []byte(consumerSecret)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := p.now()
	if err := p.db.WithContext(ctx).Model(&key).Update("last_access", now).Error; err != nil {
		p.logger.Warn("failed to record access for consumer key %s: %v", key.ID, err)
	}
	key.LastAccess = &now
	return &key, nil
}

func randomHash() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

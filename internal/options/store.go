// Package options persists the integration's settings in a flat key-value
// option table.
package options

import (
	"context"
	"errors"
	"fmt"

	"wcperfit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Prefix is prepended to every option name written by this service.
const Prefix = "woocommerce-perfit-"

// Option names of the persisted integration config.
const (
	APIKey     = "apikey"
	Account    = "account"
	Created    = "created"
	WebhookURL = "webhook_url"
	WCAuthKey  = "wcauthkey"
	State      = "state"
)

// ConfigStore is the key-value capability the integration keeps its settings in.
type ConfigStore interface {
	Get(ctx context.Context, name, def string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, names ...string) error
}

// Store is a ConfigStore backed by the options table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, name, def string) (string, error) {
	var opt models.Option
	err := s.db.WithContext(ctx).Where("name = ?", Prefix+name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to read option %s: %w", name, err)
	}
	return opt.Value, nil
}

func (s *Store) Set(ctx context.Context, name, value string) error {
	return s.SetMany(ctx, map[string]string{name: value})
}

func (s *Store) Delete(ctx context.Context, name string) error {
	return s.DeleteMany(ctx, name)
}

// SetMany upserts all values in one transaction.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, value := range values {
			opt := models.Option{Name: Prefix + name, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&opt).Error
			if err != nil {
				return fmt.Errorf("failed to write option %s: %w", name, err)
			}
		}
		return nil
	})
	return err
}

// DeleteMany removes all named options in one statement. Missing names are
// ignored.
func (s *Store) DeleteMany(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	full := make([]string, len(names))
	for i, n := range names {
		full[i] = Prefix + n
	}
	if err := s.db.WithContext(ctx).Where("name IN ?", full).Delete(&models.Option{}).Error; err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	return nil
}

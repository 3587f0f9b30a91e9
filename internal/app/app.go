// Package app assembles the integration services from configuration. Both
// the API server and the event worker start from here.
package app

import (
	"fmt"

	"wcperfit/internal/api/handlers"
	"wcperfit/internal/config"
	"wcperfit/internal/database"
	"wcperfit/internal/install"
	"wcperfit/internal/integration"
	"wcperfit/internal/lock"
	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"
	"wcperfit/internal/options"
	"wcperfit/internal/services/perfit"
	"wcperfit/internal/services/woocommerce"
)

type App struct {
	DB        *database.Database
	Locker    lock.Locker
	Keys      *woocommerce.KeyProvisioner
	Webhooks  *woocommerce.WebhookProvisioner
	Lifecycle *integration.Lifecycle
	Installer *install.Installer

	closers []func() error
}

func New(cfg *config.Config, logger *logger.Logger) (*App, error) {
	metrics.RegisterDefault()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &App{DB: db, closers: []func() error{db.Close}}

	if cfg.RedisURL != "" {
		rl, err := lock.NewRedis(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Locker = rl
		a.closers = append(a.closers, rl.Close)
	} else {
		logger.Warn("REDIS_URL not set, using in-process locks")
		a.Locker = lock.NewMemory()
	}

	a.Keys = woocommerce.NewKeyProvisioner(db.DB, logger)
	a.Webhooks = woocommerce.NewWebhookProvisioner(db.DB, logger, nil)
	a.Lifecycle = integration.New(integration.Config{
		Store:    options.NewStore(db.DB),
		Keys:     a.Keys,
		Webhooks: a.Webhooks,
		Locker:   a.Locker,
		Perfit: perfit.Settings{
			URL:     cfg.PerfitAPIURL,
			Version: cfg.PerfitAPIVersion,
			Timeout: cfg.PerfitTimeout,
		},
		Site: integration.Site{
			HomeURL:       cfg.HomeURL,
			AccountRoute:  handlers.AccountRoute,
			WCAPIVersions: cfg.WCAPIVersions,
		},
		Logger: logger,
	})
	a.Installer = install.New(db, a.Lifecycle, a.Locker, logger)

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

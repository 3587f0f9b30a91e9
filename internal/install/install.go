// Package install runs the one-off setup and teardown routines of the
// integration, each guarded against running twice at once.
package install

import (
	"context"
	"fmt"
	"time"

	"wcperfit/internal/lock"
	"wcperfit/internal/logger"
)

const (
	installingKey   = "wcperfit_installing"
	uninstallingKey = "wcperfit_uninstalling"
	routineTTL      = 10 * time.Minute
)

type Migrator interface {
	Migrate() error
}

type Deactivator interface {
	Deactivate(ctx context.Context) error
}

type Installer struct {
	db        Migrator
	lifecycle Deactivator
	locker    lock.Locker
	logger    *logger.Logger
}

func New(db Migrator, lifecycle Deactivator, locker lock.Locker, logger *logger.Logger) *Installer {
	return &Installer{
		db:        db,
		lifecycle: lifecycle,
		locker:    locker,
		logger:    logger.With("install"),
	}
}

// Install prepares the schema. It reports false when another install is
// already running.
func (i *Installer) Install(ctx context.Context) (bool, error) {
	return i.guarded(ctx, installingKey, func() error {
		if err := i.db.Migrate(); err != nil {
			return fmt.Errorf("install: %w", err)
		}
		i.logger.Info("installed")
		return nil
	})
}

// Uninstall disconnects the integration. It reports false when another
// uninstall is already running.
func (i *Installer) Uninstall(ctx context.Context) (bool, error) {
	return i.guarded(ctx, uninstallingKey, func() error {
		if err := i.lifecycle.Deactivate(ctx); err != nil {
			return fmt.Errorf("uninstall: %w", err)
		}
		i.logger.Info("uninstalled")
		return nil
	})
}

func (i *Installer) guarded(ctx context.Context, key string, fn func() error) (bool, error) {
	ok, err := i.locker.Acquire(ctx, key, routineTTL)
	if err != nil {
		return false, err
	}
	if !ok {
		i.logger.Debug("%s already running, skipping", key)
		return false, nil
	}
	defer func() {
		if err := i.locker.Release(context.Background(), key); err != nil {
			i.logger.Error("failed to release %s: %v", key, err)
		}
	}()
	return true, fn()
}

package processors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wcperfit/internal/logger"
)

// PluginPrefix identifies this integration among the host's plugins.
const PluginPrefix = "woocommerce-perfit"

const (
	EventPluginActivated   = "plugin.activated"
	EventPluginDeactivated = "plugin.deactivated"
	EventPluginUninstalled = "plugin.uninstalled"
)

// Event is a host plugin lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	Plugin    string    `json:"plugin"`
	Timestamp time.Time `json:"timestamp"`
}

type Installer interface {
	Install(ctx context.Context) (bool, error)
	Uninstall(ctx context.Context) (bool, error)
}

type Deactivator interface {
	Deactivate(ctx context.Context) error
}

type EventProcessor struct {
	installer Installer
	lifecycle Deactivator
	logger    *logger.Logger
}

func NewEventProcessor(installer Installer, lifecycle Deactivator, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		installer: installer,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Process reacts to an event about this plugin. Events about other plugins
// and unknown event types are ignored.
func (ep *EventProcessor) Process(ctx context.Context, event Event) error {
	if !strings.HasPrefix(event.Plugin, PluginPrefix) {
		ep.logger.Debug("ignoring %s for plugin %q", event.Type, event.Plugin)
		return nil
	}

	switch event.Type {
	case EventPluginActivated:
		if _, err := ep.installer.Install(ctx); err != nil {
			return fmt.Errorf("failed to install: %w", err)
		}
	case EventPluginDeactivated:
		if err := ep.lifecycle.Deactivate(ctx); err != nil {
			return fmt.Errorf("failed to deactivate: %w", err)
		}
	case EventPluginUninstalled:
		if _, err := ep.installer.Uninstall(ctx); err != nil {
			return fmt.Errorf("failed to uninstall: %w", err)
		}
	default:
		ep.logger.Debug("unhandled event type: %s", event.Type)
		return nil
	}

	ep.logger.Info("processed %s", event.Type)
	return nil
}

package processors

import (
	"context"
	"errors"
	"testing"

	"wcperfit/internal/logger"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	installs, uninstalls, deactivations int
	err                                 error
}

func (r *recorder) Install(context.Context) (bool, error) {
	r.installs++
	return true, r.err
}

func (r *recorder) Uninstall(context.Context) (bool, error) {
	r.uninstalls++
	return true, r.err
}

func (r *recorder) Deactivate(context.Context) error {
	r.deactivations++
	return r.err
}

func TestProcess_Dispatch(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  recorder
	}{
		{"activated", Event{Type: EventPluginActivated, Plugin: "woocommerce-perfit/woocommerce-perfit.php"}, recorder{installs: 1}},
		{"deactivated", Event{Type: EventPluginDeactivated, Plugin: "woocommerce-perfit/woocommerce-perfit.php"}, recorder{deactivations: 1}},
		{"uninstalled", Event{Type: EventPluginUninstalled, Plugin: "woocommerce-perfit"}, recorder{uninstalls: 1}},
		{"other plugin", Event{Type: EventPluginDeactivated, Plugin: "akismet/akismet.php"}, recorder{}},
		{"unknown type", Event{Type: "plugin.updated", Plugin: "woocommerce-perfit"}, recorder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			ep := NewEventProcessor(r, r, logger.New("error"))

			assert.NoError(t, ep.Process(context.Background(), tt.event))
			assert.Equal(t, tt.want, *r)
		})
	}
}

func TestProcess_WrapsErrors(t *testing.T) {
	r := &recorder{err: errors.New("db down")}
	ep := NewEventProcessor(r, r, logger.New("error"))

	err := ep.Process(context.Background(), Event{Type: EventPluginActivated, Plugin: PluginPrefix})
	assert.ErrorContains(t, err, "db down")
}

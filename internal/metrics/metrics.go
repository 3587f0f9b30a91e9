package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// PerfitRequests counts outbound Perfit API calls by method and outcome
	// (ok, app_error, network_error, non_json).
	PerfitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "perfit_api_requests_total", Help: "Outbound Perfit API requests."},
		[]string{"method", "outcome"},
	)

	// LifecycleTransitions counts integration activations and deactivations by result
	LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "integration_lifecycle_total", Help: "Integration activate/deactivate calls by result."},
		[]string{"operation", "result"},
	)

	// WebhookChanges counts webhook subscriptions created and deleted
	WebhookChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_subscriptions_changed_total", Help: "Webhook subscriptions created or deleted."},
		[]string{"change"},
	)

	// HTTPRequests counts inbound requests by method, route and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(PerfitRequests)
		Registry.MustRegister(LifecycleTransitions)
		Registry.MustRegister(WebhookChanges)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garyjia/approval-workflow/internal/application/dispatcher"
	"github.com/garyjia/approval-workflow/internal/domain/event"
)

// Config holds configuration for the recorder
type Config struct {
	Namespace string
	Registry  prometheus.Registerer
}

// Recorder turns request events and HTTP traffic into Prometheus metrics
type Recorder struct {
	events       *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewRecorder registers the approval metrics with cfg.Registry
func NewRecorder(cfg Config) *Recorder {
	if cfg.Namespace == "" {
		cfg.Namespace = "approval"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(cfg.Registry)

	return &Recorder{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "events_total",
			Help:      "Domain events published, by type",
		}, []string{"type"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "request_outcomes_total",
			Help:      "Requests reaching a terminal status, by entity type and status",
		}, []string{"entity_type", "status", "auto_approved"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "concurrent_modifications_total",
			Help:      "Submissions that lost the compare-and-swap on request state",
		}, []string{"entity_type"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code",
		}, []string{"method", "route", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// SubscriberName is the dispatcher handler name used by Attach
const SubscriberName = "metrics"

// Attach subscribes the recorder to every event type
func (r *Recorder) Attach(d dispatcher.Dispatcher) {
	d.SubscribeAll(SubscriberName, r.HandleEvent)
}

// HandleEvent is a dispatcher.Handler
func (r *Recorder) HandleEvent(_ context.Context, evt *event.Event) error {
	r.events.WithLabelValues(evt.Type.String()).Inc()

	switch {
	case evt.Type == event.TypeRequestConflict:
		r.conflicts.WithLabelValues(evt.EntityType).Inc()
	case evt.Type.IsTerminal():
		auto := strconv.FormatBool(evt.Type == event.TypeRequestAutoApproved)
		r.outcomes.WithLabelValues(evt.EntityType, evt.Status.String(), auto).Inc()
	}
	return nil
}

// ObserveHTTP records one served HTTP request
func (r *Recorder) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

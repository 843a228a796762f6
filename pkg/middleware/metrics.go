package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/waypoint/pkg/navigation"
)

// MetricsConfig configures the Prometheus navigation observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus navigation observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records navigation and session metrics. It implements
// navigation.Observer.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	redirectsTotal     prometheus.Counter
	redirectLoops      prometheus.Counter
	guardFailures      *prometheus.CounterVec
	manifestReloads    *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	protocolErrors     *prometheus.CounterVec
}

var _ navigation.Observer = (*Metrics)(nil)

// Prometheus creates a navigation observer that collects Prometheus metrics.
//
// Metrics collected:
//   - waypoint_navigations_total: Counter of navigations by status, origin and route
//   - waypoint_navigation_duration_seconds: Histogram of navigation duration by status
//   - waypoint_redirects_total: Counter of redirect hops taken
//   - waypoint_redirect_loops_total: Counter of navigations that hit the redirect bound
//   - waypoint_guard_failures_total: Counter of guard errors and panics
//   - waypoint_manifest_reloads_total: Counter of manifest reloads by result
//   - waypoint_active_sessions: Gauge of connected sessions
//   - waypoint_protocol_errors_total: Counter of rejected client messages
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	metrics := middleware.Prometheus(middleware.WithRegistry(reg))
//	ctrl := navigation.New(table, hist, navigation.WithObserver(metrics))
//
// Each call registers a fresh set of collectors, so a registry can hold
// only one Metrics.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status", "origin", "route"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration from request to outcome in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),

		redirectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirects_total",
			Help:        "Total number of redirect hops taken",
			ConstLabels: config.ConstLabels,
		}),

		redirectLoops: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirect_loops_total",
			Help:        "Total number of navigations that exceeded the redirect bound",
			ConstLabels: config.ConstLabels,
		}),

		guardFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "guard_failures_total",
			Help:        "Total number of guards that returned an error or panicked",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		manifestReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "manifest_reloads_total",
			Help:        "Total number of route manifest reloads by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected navigation sessions",
			ConstLabels: config.ConstLabels,
		}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "protocol_errors_total",
			Help:        "Total rejected client messages by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

type startKey struct{}

// Begin stamps the start time onto ctx.
func (m *Metrics) Begin(ctx context.Context, _ navigation.Target, _ navigation.Origin) context.Context {
	return context.WithValue(ctx, startKey{}, time.Now())
}

// End records the outcome of a navigation.
func (m *Metrics) End(ctx context.Context, res *navigation.Result) {
	status := res.Status.String()
	m.navigationsTotal.WithLabelValues(status, res.Origin.String(), routeLabel(res)).Inc()
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		m.navigationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
	if n := len(res.Redirects); n > 0 {
		m.redirectsTotal.Add(float64(n))
	}

	var loop *navigation.RedirectLoopError
	if errors.As(res.Err, &loop) {
		m.redirectLoops.Inc()
	}
	var guardErr *navigation.GuardError
	if errors.As(res.Err, &guardErr) {
		kind := "error"
		if guardErr.Panicked {
			kind = "panic"
		}
		m.guardFailures.WithLabelValues(kind).Inc()
	}
}

// routeLabel keeps the route label bounded: the pattern of the matched
// entry, or a fixed value for unmatched and unresolved destinations.
func routeLabel(res *navigation.Result) string {
	switch {
	case res.To.IsUnresolved():
		return "none"
	case res.To.NotFound || res.To.Entry == nil:
		return "not_found"
	default:
		return res.To.Entry.Path()
	}
}

// ManifestReloaded records a manifest reload attempt.
func (m *Metrics) ManifestReloaded(err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.manifestReloads.WithLabelValues(result).Inc()
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

// SessionClosed records a session ending.
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// ProtocolError records a rejected client message.
func (m *Metrics) ProtocolError(msgType string) {
	m.protocolErrors.WithLabelValues(msgType).Inc()
}

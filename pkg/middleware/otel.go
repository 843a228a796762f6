package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/navigation"
)

// Default tracer name for waypoint navigations.
const defaultTracerName = "waypoint"

// OTelConfig configures the OpenTelemetry navigation observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Filter determines which navigations to trace.
	// Return true to trace the navigation, false to skip.
	// If nil, all navigations are traced.
	Filter func(target navigation.Target, origin navigation.Origin) bool

	// AttributeExtractor adds custom attributes once a navigation ends.
	AttributeExtractor func(res *navigation.Result) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry navigation observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(navigation.Target, navigation.Origin) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(*navigation.Result) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing is a navigation observer that opens one span per navigation.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer
}

var _ navigation.Observer = (*Tracing)(nil)

// OpenTelemetry creates an observer that traces every navigation.
//
// The span is named after the target ("navigate /users/7",
// "navigate name:user") and carries the origin, the resolved route and
// redirect count. Guard errors and redirect loops are recorded on the span
// and set its status to Error. The span is in the context guards receive, so
// work a guard does (an auth lookup, say) nests under the navigation:
//
//	ctrl := navigation.New(table, hist,
//	    navigation.WithObserver(middleware.OpenTelemetry()),
//	)
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given.
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	return &Tracing{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// spanKey marks spans opened by Tracing, so End never closes a parent span
// it did not start.
type spanKey struct{}

// Begin starts the navigation span.
func (o *Tracing) Begin(ctx context.Context, target navigation.Target, origin navigation.Origin) context.Context {
	if o.config.Filter != nil && !o.config.Filter(target, origin) {
		return ctx
	}
	ctx, span := o.tracer.Start(ctx, "navigate "+target.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("waypoint.target", target.String()),
			attribute.String("waypoint.origin", origin.String()),
		),
	)
	return context.WithValue(ctx, spanKey{}, span)
}

// End records the outcome and ends the span.
func (o *Tracing) End(ctx context.Context, res *navigation.Result) {
	span := SpanFromContext(ctx)
	if span == nil {
		return
	}
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("waypoint.status", res.Status.String()),
		attribute.Int("waypoint.redirects", len(res.Redirects)),
		attribute.Bool("waypoint.replace", res.Replace),
	}
	if !res.To.IsUnresolved() {
		attrs = append(attrs,
			attribute.String("waypoint.full_path", res.To.FullPath),
			attribute.String("waypoint.route", routeLabel(res)),
		)
	}
	if res.Reason != "" {
		attrs = append(attrs, attribute.String("waypoint.reason", res.Reason))
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(res)...)
	}
	span.SetAttributes(attrs...)

	switch {
	case res.Status == navigation.StatusFailed && res.Err != nil:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	case res.Committed():
		span.SetStatus(codes.Ok, "")
	}
}

// SpanFromContext returns the navigation span opened by OpenTelemetry, or
// nil when the navigation is not traced.
//
// Example:
//
//	ctrl.BeforeEach(navigation.GuardFunc(func(ctx context.Context, from, to *router.MatchedRoute) (navigation.Decision, error) {
//	    if span := middleware.SpanFromContext(ctx); span != nil {
//	        span.AddEvent("auth.check")
//	    }
//	    return navigation.Allow(), nil
//	}))
func SpanFromContext(ctx context.Context) trace.Span {
	span, _ := ctx.Value(spanKey{}).(trace.Span)
	return span
}

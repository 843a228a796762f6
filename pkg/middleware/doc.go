// Package middleware provides observability for navigation controllers.
//
// This package includes:
//   - OpenTelemetry tracing of every navigation
//   - Prometheus metrics for navigations, sessions and manifest reloads
//
// Both are navigation.Observer implementations and are attached with
// navigation.WithObserver.
//
// # OpenTelemetry
//
// The OpenTelemetry observer opens a span per navigation, visible to guards
// through the context they receive. Spans carry the origin, status,
// resolved route and redirect count.
//
//	ctrl := navigation.New(table, hist,
//	    navigation.WithObserver(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// # Prometheus Metrics
//
// The Prometheus observer collects:
//   - waypoint_navigations_total: Navigations by status, origin and route
//   - waypoint_navigation_duration_seconds: Navigation duration histogram
//   - waypoint_redirects_total and waypoint_redirect_loops_total
//   - waypoint_guard_failures_total: Guard errors and panics
//
// The server package also reports sessions and protocol errors through it.
//
//	reg := prometheus.NewRegistry()
//	metrics := middleware.Prometheus(middleware.WithRegistry(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware

package navigation

import (
	"context"
	"log/slog"
)

// DefaultMaxRedirects bounds redirect chains unless WithMaxRedirects is given.
const DefaultMaxRedirects = 10

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Force commits even when the target is already active.
	Force bool

	// Origin overrides OriginProgrammatic.
	Origin Origin
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithForce navigates even if the target equals the active route.
func WithForce() NavigateOption {
	return func(o *NavigateOptions) {
		o.Force = true
	}
}

// WithOrigin tags the navigation with origin. OriginHistory cannot be set
// this way; history navigations come only from the adapter.
func WithOrigin(origin Origin) NavigateOption {
	return func(o *NavigateOptions) {
		if origin != OriginHistory {
			o.Origin = origin
		}
	}
}

// Observer instruments navigations. Begin may return a derived context
// (e.g. carrying a trace span) that is passed to guards.
type Observer interface {
	Begin(ctx context.Context, target Target, origin Origin) context.Context
	End(ctx context.Context, res *Result)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxRedirects sets the redirect-chain bound. Values below zero are
// ignored; zero forbids redirects entirely.
func WithMaxRedirects(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithObserver adds an instrumentation observer.
func WithObserver(obs Observer) Option {
	return func(c *Controller) {
		if obs != nil {
			c.observers = append(c.observers, obs)
		}
	}
}

// WithStateListener registers fn to be called on every state transition of
// the current navigation.
func WithStateListener(fn func(State)) Option {
	return func(c *Controller) {
		c.stateListener = fn
	}
}

// WithDispatcher hands navigations driven by history traversals to
// dispatch instead of running them on the adapter's goroutine. Their order
// is fixed before dispatch is called. The default runs them inline.
func WithDispatcher(dispatch func(run func())) Option {
	return func(c *Controller) {
		c.dispatch = dispatch
	}
}

package navigation

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/router"
)

type decisionKind uint8

const (
	decideAllow decisionKind = iota
	decideRedirect
	decideCancel
)

// Decision is a guard's verdict on a navigation. The zero value allows it.
type Decision struct {
	kind   decisionKind
	target Target
	reason string
}

// Allow lets the navigation continue to the next guard.
func Allow() Decision { return Decision{} }

// Redirect restarts resolution at target.
func Redirect(target Target) Decision {
	return Decision{kind: decideRedirect, target: target}
}

// Cancel stops the navigation. The active route and history stay unchanged.
func Cancel(reason string) Decision {
	return Decision{kind: decideCancel, reason: reason}
}

// IsAllow reports whether d allows the navigation.
func (d Decision) IsAllow() bool { return d.kind == decideAllow }

// IsRedirect reports whether d redirects, and to where.
func (d Decision) IsRedirect() (Target, bool) { return d.target, d.kind == decideRedirect }

// IsCancel reports whether d cancels, and why.
func (d Decision) IsCancel() (string, bool) { return d.reason, d.kind == decideCancel }

// Guard is consulted before a navigation commits.
//
// Evaluate may block (for example on a permission lookup). ctx is cancelled
// when the navigation is superseded; a guard should return promptly then.
type Guard interface {
	Evaluate(ctx context.Context, from, to *router.MatchedRoute) (Decision, error)
}

// GuardFunc is a function adapter for Guard.
type GuardFunc func(ctx context.Context, from, to *router.MatchedRoute) (Decision, error)

// Evaluate implements Guard.
func (f GuardFunc) Evaluate(ctx context.Context, from, to *router.MatchedRoute) (Decision, error) {
	return f(ctx, from, to)
}

// Chain combines guards into one that evaluates them in order and returns
// the first decision that is not Allow.
func Chain(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context, from, to *router.MatchedRoute) (Decision, error) {
		for _, g := range guards {
			d, err := g.Evaluate(ctx, from, to)
			if err != nil || !d.IsAllow() {
				return d, err
			}
		}
		return Allow(), nil
	})
}

// Skip allows the navigation without consulting g when condition is true.
func Skip(condition func(to *router.MatchedRoute) bool, g Guard) Guard {
	return GuardFunc(func(ctx context.Context, from, to *router.MatchedRoute) (Decision, error) {
		if condition(to) {
			return Allow(), nil
		}
		return g.Evaluate(ctx, from, to)
	})
}

// Only consults g only when condition is true.
func Only(condition func(to *router.MatchedRoute) bool, g Guard) Guard {
	return GuardFunc(func(ctx context.Context, from, to *router.MatchedRoute) (Decision, error) {
		if !condition(to) {
			return Allow(), nil
		}
		return g.Evaluate(ctx, from, to)
	})
}

// HasMeta is a condition for Only and Skip that matches routes whose meta
// value under key is true.
func HasMeta(key string) func(to *router.MatchedRoute) bool {
	return func(to *router.MatchedRoute) bool {
		return to != nil && to.Entry != nil && to.Entry.MetaBool(key)
	}
}

// AfterHook runs after a navigation commits. It cannot affect the outcome.
type AfterHook func(to, from *router.MatchedRoute)

// ErrorHook receives every failed navigation.
type ErrorHook func(err error, res *Result)

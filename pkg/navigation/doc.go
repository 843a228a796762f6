// Package navigation implements the Navigation Controller: the state machine
// that turns a navigation request into a committed active route.
//
// A navigation moves through Resolving, Guarding and Committing and comes to
// rest in Idle; a cancelled or superseded navigation passes through Aborted,
// a faulted one through Failed.
//
//	ctrl := navigation.New(table, history.NewMemory("/"))
//	ctrl.BeforeEach(navigation.GuardFunc(func(ctx context.Context, from, to *router.MatchedRoute) (navigation.Decision, error) {
//	    if to.Entry != nil && to.Entry.MetaBool("requiresAuth") && !loggedIn(ctx) {
//	        return navigation.Redirect(navigation.Named("login", nil)), nil
//	    }
//	    return navigation.Allow(), nil
//	}))
//	ctrl.OnRouteChanged(func(r *router.MatchedRoute) { render(r.View(), r.Params) })
//
//	if _, err := ctrl.Start(ctx); err != nil { ... }
//	res, err := ctrl.Navigate(ctx, navigation.To("/users/42"))
//
// # Guards
//
// Guards run one at a time in registration order. Each returns Allow,
// Redirect or Cancel. A redirect restarts resolution at the new target; a
// chain longer than the configured bound fails with *RedirectLoopError. A
// guard that returns an error or panics fails the navigation with
// *GuardError. In every failure and cancellation case the active route and
// the history stack are left untouched.
//
// # Supersession
//
// Every call to Navigate supersedes the navigation in flight. The older one
// resolves to StatusSuperseded at its next checkpoint (before and after each
// guard, and before commit) and its context is cancelled, so the active
// route always converges on the last request.
//
// # History
//
// The controller never writes the address bar itself. On commit it asks the
// history.History to Push or Replace; navigations that originate from a
// back/forward traversal are committed without any history write.
package navigation

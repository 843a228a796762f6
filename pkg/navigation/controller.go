package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Controller owns the active route and drives navigations against a route
// table and a history adapter. It is safe for concurrent use.
type Controller struct {
	hist  history.History
	table atomic.Pointer[router.Table]

	// gen identifies the most recent navigation; older ones are superseded.
	gen   atomic.Uint64
	state atomic.Int32

	mu          sync.Mutex
	active      *router.MatchedRoute
	inflight    context.CancelFunc
	inflightGen uint64
	unlisten    func()

	hooksMu sync.RWMutex
	guards  hookList[Guard]
	after   hookList[AfterHook]
	onError hookList[ErrorHook]
	subs    hookList[func(*router.MatchedRoute)]

	// Notifications are queued in commit order and drained outside locks.
	notifyMu sync.Mutex
	queue    []func()
	draining bool

	logger        *slog.Logger
	maxRedirects  int
	observers     []Observer
	stateListener func(State)
	dispatch      func(run func())
}

// New returns a controller for table and hist. The active route is
// router.Unresolved until the first navigation commits; call Start to
// resolve the history's current location and begin listening for
// back/forward traversals.
func New(table *router.Table, hist history.History, opts ...Option) *Controller {
	if table == nil || hist == nil {
		panic("navigation: New requires a table and a history")
	}

	c := &Controller{
		hist:         hist,
		active:       router.Unresolved,
		logger:       slog.Default(),
		maxRedirects: DefaultMaxRedirects,
	}
	c.table.Store(table)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BeforeEach registers a guard. Guards run in registration order.
func (c *Controller) BeforeEach(g Guard) (remove func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	return c.guards.add(g, &c.hooksMu)
}

// AfterEach registers a hook that runs after every commit.
func (c *Controller) AfterEach(h AfterHook) (remove func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	return c.after.add(h, &c.hooksMu)
}

// OnError registers a hook for failed navigations.
func (c *Controller) OnError(h ErrorHook) (remove func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	return c.onError.add(h, &c.hooksMu)
}

// OnRouteChanged registers fn to receive the new active route once per
// commit, in commit order.
func (c *Controller) OnRouteChanged(fn func(*router.MatchedRoute)) (unsubscribe func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	return c.subs.add(fn, &c.hooksMu)
}

// Start subscribes to history traversals and navigates to the history's
// current location. The initial commit replaces the current entry.
func (c *Controller) Start(ctx context.Context) (*Result, error) {
	return c.BeginStart(ctx).Run()
}

// BeginStart subscribes to history traversals and reserves the initial
// navigation. Navigations begun after it supersede it.
func (c *Controller) BeginStart(ctx context.Context) *Pending {
	c.mu.Lock()
	if c.unlisten == nil {
		c.unlisten = c.hist.Listen(c.handleHistoryEvent)
	}
	c.mu.Unlock()

	return c.begin(ctx, To(c.hist.Location()), NavigateOptions{Origin: OriginInitial}, nil)
}

// Stop unsubscribes from the history and cancels the navigation in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unlisten != nil {
		c.unlisten()
		c.unlisten = nil
	}
	if c.inflight != nil {
		c.inflight()
	}
}

// Current returns the active route.
func (c *Controller) Current() *router.MatchedRoute {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns the phase of the most recent navigation.
func (c *Controller) State() State { return State(c.state.Load()) }

// Table returns the route table navigations currently resolve against.
func (c *Controller) Table() *router.Table { return c.table.Load() }

// History returns the history adapter.
func (c *Controller) History() history.History { return c.hist }

// ReplaceTable swaps the route table. Navigations already in flight keep
// the table they started with.
func (c *Controller) ReplaceTable(t *router.Table) {
	if t == nil {
		return
	}
	c.table.Store(t)
	c.logger.Info("route table replaced", "routes", t.Len())
}

// Resolve matches target against the current table without navigating.
func (c *Controller) Resolve(target Target) (*router.MatchedRoute, error) {
	table := c.table.Load()
	loc, err := target.location(table, c.Current())
	if err != nil {
		return nil, err
	}
	m, _ := table.Match(loc)
	return m, nil
}

// Navigate performs a navigation. The returned error is non-nil only for
// StatusFailed; cancellation, supersession and duplicates are reported in
// the Result.
//
// Traversal targets (Go, Back, Forward) ask the history to move and return
// StatusDeferred; the traversal event drives the actual navigation.
func (c *Controller) Navigate(ctx context.Context, target Target, opts ...NavigateOption) (*Result, error) {
	return c.Begin(ctx, target, opts...).Run()
}

// Begin reserves a navigation's place in order without running it: any
// navigation in flight is superseded now, and any begun later supersedes
// this one. Run performs it. Callers that hand navigations to goroutines
// call Begin first so that arrival order, not scheduling order, decides
// which one wins.
func (c *Controller) Begin(ctx context.Context, target Target, opts ...NavigateOption) *Pending {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	if target.IsTraversal() {
		return &Pending{c: c, ctx: ctx, target: target}
	}
	return c.begin(ctx, target, o, nil)
}

func (c *Controller) traverse(ctx context.Context, delta int) (*Result, error) {
	res := &Result{Status: StatusDeferred, From: c.Current(), Origin: OriginHistory}
	if err := c.hist.Go(ctx, delta); err != nil {
		herr := &HistoryError{Op: "go", Err: err}
		res.Status = StatusFailed
		res.Err = herr
		c.reportError(herr, res)
		return res, herr
	}
	return res, nil
}

func (c *Controller) handleHistoryEvent(ev history.Event) {
	p := c.begin(context.Background(), To(ev.Entry.FullPath), NavigateOptions{Origin: OriginHistory}, &ev)
	if c.dispatch != nil {
		c.dispatch(func() { _, _ = p.Run() })
		return
	}
	_, _ = p.Run()
}

// Pending is a navigation that holds its place in order but has not run.
type Pending struct {
	c      *Controller
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
	target Target
	opts   NavigateOptions
	ev     *history.Event
	res    *Result
}

// begin takes the next generation and supersedes the navigation in flight.
// ev is set for history-originated navigations.
func (c *Controller) begin(ctx context.Context, target Target, o NavigateOptions, ev *history.Event) *Pending {
	origin := o.Origin
	if ev != nil {
		origin = OriginHistory
	}

	gen := c.gen.Inc()
	navCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.inflight != nil {
		c.inflight()
	}
	c.inflight, c.inflightGen = cancel, gen
	from := c.active
	c.mu.Unlock()

	return &Pending{
		c:      c,
		ctx:    navCtx,
		cancel: cancel,
		gen:    gen,
		target: target,
		opts:   o,
		ev:     ev,
		res:    &Result{From: from, Origin: origin},
	}
}

// Run performs the navigation. If another navigation began after this one,
// Run reports StatusSuperseded without running guards. Run must be called
// at most once.
func (p *Pending) Run() (*Result, error) {
	c := p.c
	if p.target.IsTraversal() {
		return c.traverse(p.ctx, p.target.delta)
	}
	defer p.cancel()
	defer c.clearInflight(p.gen)

	ctx := p.ctx
	for _, obs := range c.observers {
		ctx = obs.Begin(ctx, p.target, p.res.Origin)
	}

	res := p.res
	if c.isCurrent(p.gen) {
		c.resolve(ctx, p.gen, p.target, p.opts, p.ev, res)
	} else {
		res.Status = StatusSuperseded
	}
	c.finish(p.gen, p.target, p.ev, res)

	for _, obs := range c.observers {
		obs.End(ctx, res)
	}

	if res.Status == StatusFailed {
		return res, res.Err
	}
	return res, nil
}

// resolve runs the Resolving and Guarding phases and commits on success.
func (c *Controller) resolve(ctx context.Context, gen uint64, target Target, o NavigateOptions, ev *history.Event, res *Result) {
	table := c.table.Load()
	cur := target

	for {
		c.setState(gen, Resolving)

		loc, err := cur.location(table, res.From)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return
		}
		to, _ := table.Match(loc)
		res.To = to

		if to.Entry != nil && to.Entry.Redirect() != "" {
			if !c.addRedirect(res, to.FullPath) {
				return
			}
			cur = To(to.Entry.Redirect())
			continue
		}

		if isDuplicate(res.From, to, o, res.Origin) {
			res.Status = StatusDuplicate
			return
		}

		c.setState(gen, Guarding)
		d, idx, err := c.runGuards(ctx, gen, res.From, to)
		switch {
		case errors.Is(err, errSuperseded):
			res.Status = StatusSuperseded
			return
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			res.Status, res.Reason, res.Err = StatusCancelled, ctx.Err().Error(), ctx.Err()
			return
		case err != nil:
			res.Status, res.Err = StatusFailed, err
			return
		}

		if next, ok := d.IsRedirect(); ok {
			if next.IsTraversal() {
				res.Status = StatusFailed
				res.Err = &GuardError{Index: idx, To: to.FullPath, Err: ErrInvalidTarget}
				return
			}
			if !c.addRedirect(res, to.FullPath) {
				return
			}
			cur = next
			continue
		}

		if reason, ok := d.IsCancel(); ok {
			res.Status, res.Reason = StatusCancelled, reason
			return
		}

		break
	}

	c.commit(ctx, gen, o, ev, res)
}

// addRedirect records a hop and reports whether the chain is within bounds.
func (c *Controller) addRedirect(res *Result, from string) bool {
	res.Redirects = append(res.Redirects, from)
	if len(res.Redirects) <= c.maxRedirects {
		return true
	}
	chain := make([]string, len(res.Redirects))
	copy(chain, res.Redirects)
	res.Status = StatusFailed
	res.Err = &RedirectLoopError{Chain: chain, Limit: c.maxRedirects}
	return false
}

func isDuplicate(from, to *router.MatchedRoute, o NavigateOptions, origin Origin) bool {
	if o.Force || origin == OriginHistory || origin == OriginInitial || from.IsUnresolved() {
		return false
	}
	return from.FullPath == to.FullPath
}

// runGuards evaluates guards in order. It returns errSuperseded if a newer
// navigation started before or during any guard.
func (c *Controller) runGuards(ctx context.Context, gen uint64, from, to *router.MatchedRoute) (Decision, int, error) {
	c.hooksMu.RLock()
	guards := c.guards.snapshot()
	c.hooksMu.RUnlock()

	for i, g := range guards {
		if !c.isCurrent(gen) {
			return Decision{}, i, errSuperseded
		}
		d, err := evaluate(ctx, i, g, from, to)
		if !c.isCurrent(gen) {
			return Decision{}, i, errSuperseded
		}
		if err != nil || !d.IsAllow() {
			return d, i, err
		}
	}
	return Allow(), -1, nil
}

func evaluate(ctx context.Context, i int, g Guard, from, to *router.MatchedRoute) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GuardError{Index: i, To: to.FullPath, Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()

	d, err = g.Evaluate(ctx, from, to)
	if err != nil {
		return Decision{}, &GuardError{Index: i, To: to.FullPath, Err: err}
	}
	return d, nil
}

// commit writes history and swaps the active route, all under mu so that a
// failed history write leaves the active route untouched.
func (c *Controller) commit(ctx context.Context, gen uint64, o NavigateOptions, ev *history.Event, res *Result) {
	c.setState(gen, Committing)
	to := res.To

	c.mu.Lock()
	if !c.isCurrent(gen) {
		c.mu.Unlock()
		res.Status = StatusSuperseded
		return
	}

	var (
		entry history.Entry
		err   error
		op    string
	)
	switch {
	case ev != nil && len(res.Redirects) == 0:
		entry = ev.Entry
	case ev != nil, res.Origin == OriginInitial, o.Replace:
		op = "replace"
		res.Replace = true
		entry, err = c.hist.Replace(ctx, to.FullPath)
	default:
		op = "push"
		entry, err = c.hist.Push(ctx, to.FullPath)
	}
	if err != nil {
		c.mu.Unlock()
		res.Status = StatusFailed
		res.Err = &HistoryError{Op: op, FullPath: to.FullPath, Err: err}
		return
	}

	from := c.active
	c.active = to
	res.Entry = entry
	res.Status = StatusCommitted

	c.hooksMu.RLock()
	after := c.after.snapshot()
	subs := c.subs.snapshot()
	c.hooksMu.RUnlock()

	c.enqueue(func() {
		for _, h := range after {
			c.safeCall("after hook", func() { h(to, from) })
		}
		for _, fn := range subs {
			c.safeCall("route subscriber", func() { fn(to) })
		}
	})
	c.mu.Unlock()

	c.drain()
}

// finish moves the state machine to rest, restores the address bar for
// rejected traversals and reports failures.
func (c *Controller) finish(gen uint64, target Target, ev *history.Event, res *Result) {
	switch res.Status {
	case StatusCommitted:
		c.logger.Debug("navigation committed",
			"to", res.To.FullPath,
			"from", res.From.FullPath,
			"origin", res.Origin.String(),
			"replace", res.Replace,
			"redirects", len(res.Redirects))
		c.setState(gen, Idle)
		return

	case StatusSuperseded:
		c.logger.Debug("navigation superseded", "target", target.String(), "origin", res.Origin.String())
		return

	case StatusCancelled, StatusDuplicate:
		c.logger.Debug("navigation aborted",
			"target", target.String(),
			"status", res.Status.String(),
			"reason", res.Reason)
		c.setState(gen, Aborted)

	case StatusFailed:
		c.logger.Warn("navigation failed",
			"target", target.String(),
			"origin", res.Origin.String(),
			"error", res.Err)
		c.setState(gen, Failed)
		c.reportError(res.Err, res)
	}

	// The browser already moved; put it back on the active entry.
	if ev != nil && res.Status != StatusDuplicate && c.isCurrent(gen) {
		if err := c.hist.Go(context.Background(), -ev.Delta, history.Quiet()); err != nil {
			c.logger.Warn("history restore failed", "delta", -ev.Delta, "error", err)
		}
	}

	c.setState(gen, Idle)
}

func (c *Controller) reportError(err error, res *Result) {
	c.hooksMu.RLock()
	hooks := c.onError.snapshot()
	c.hooksMu.RUnlock()
	if len(hooks) == 0 {
		return
	}

	c.enqueue(func() {
		for _, h := range hooks {
			c.safeCall("error hook", func() { h(err, res) })
		}
	})
	c.drain()
}

func (c *Controller) enqueue(fn func()) {
	c.notifyMu.Lock()
	c.queue = append(c.queue, fn)
	c.notifyMu.Unlock()
}

// drain delivers queued notifications. A drain already running on another
// goroutine (or further up this one's stack) delivers them instead.
func (c *Controller) drain() {
	c.notifyMu.Lock()
	if c.draining {
		c.notifyMu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		fn := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.notifyMu.Unlock()
		fn()
		c.notifyMu.Lock()
	}
	c.draining = false
	c.notifyMu.Unlock()
}

func (c *Controller) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("navigation hook panicked", "hook", what, "panic", r)
		}
	}()
	fn()
}

func (c *Controller) isCurrent(gen uint64) bool { return c.gen.Load() == gen }

func (c *Controller) setState(gen uint64, s State) {
	if !c.isCurrent(gen) {
		return
	}
	c.state.Store(int32(s))
	if c.stateListener != nil {
		c.stateListener(s)
	}
}

func (c *Controller) clearInflight(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflightGen == gen {
		c.inflight = nil
	}
}

// hookList is a registration-ordered list whose entries can be removed by
// identity. Callers hold the controller's hooksMu.
type hookList[T any] struct {
	items []*hookItem[T]
}

type hookItem[T any] struct {
	v T
}

func (l *hookList[T]) add(v T, mu *sync.RWMutex) func() {
	it := &hookItem[T]{v: v}
	l.items = append(l.items, it)

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			for i, existing := range l.items {
				if existing == it {
					l.items = append(l.items[:i:i], l.items[i+1:]...)
					return
				}
			}
		})
	}
}

func (l *hookList[T]) snapshot() []T {
	out := make([]T, len(l.items))
	for i, it := range l.items {
		out[i] = it.v
	}
	return out
}

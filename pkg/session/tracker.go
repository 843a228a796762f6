package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Stack is the part of a history adapter a snapshot is taken from.
// history.Memory and server.RemoteHistory implement it.
type Stack interface {
	Entries() []history.Entry
	Position() int
}

// Tracker saves a snapshot of a session after every committed navigation.
type Tracker struct {
	store   Store
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTTL sets how long a snapshot survives without activity.
// Default: 30 minutes.
func WithTTL(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.ttl = d
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates a tracker writing to store.
func NewTracker(store Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:   store,
		ttl:     30 * time.Minute,
		timeout: 5 * time.Second,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TTL returns the snapshot lifetime.
func (t *Tracker) TTL() time.Duration { return t.ttl }

// Attach saves a snapshot of stack each time ctrl commits a navigation.
// The returned func stops tracking.
func (t *Tracker) Attach(id string, ctrl *navigation.Controller, stack Stack) (detach func()) {
	return ctrl.OnRouteChanged(func(active *router.MatchedRoute) {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.Save(ctx, id, stack, active.FullPath); err != nil {
			t.logger.Warn("session snapshot failed", "session_id", id, "error", err)
		}
	})
}

// Save writes a snapshot of stack immediately.
func (t *Tracker) Save(ctx context.Context, id string, stack Stack, active string) error {
	return t.store.Save(ctx, &Snapshot{
		ID:        id,
		Entries:   stack.Entries(),
		Index:     stack.Position(),
		Active:    active,
		UpdatedAt: t.now(),
	}, t.ttl)
}

// Restore loads the snapshot for id. It returns (nil, nil) when none exists.
func (t *Tracker) Restore(ctx context.Context, id string) (*Snapshot, error) {
	return t.store.Load(ctx, id)
}

// Touch extends the lifetime of id's snapshot.
func (t *Tracker) Touch(ctx context.Context, id string) error {
	return t.store.Extend(ctx, id, t.ttl)
}

// Forget deletes id's snapshot.
func (t *Tracker) Forget(ctx context.Context, id string) error {
	return t.store.Delete(ctx, id)
}

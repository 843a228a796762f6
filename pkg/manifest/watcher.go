package manifest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/waypoint/pkg/router"
)

// DefaultPollInterval is how often a Watcher checks its source.
const DefaultPollInterval = 2 * time.Second

// Watcher polls a Source and reports each new valid table.
type Watcher struct {
	src      Source
	onChange func(*router.Table)
	interval time.Duration
	resolve  ViewResolver
	logger   *slog.Logger

	mu      sync.Mutex
	version string
	lastErr error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets the poll interval. Default: DefaultPollInterval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithViewResolver sets how view names become table views.
func WithViewResolver(resolve ViewResolver) WatcherOption {
	return func(w *Watcher) { w.resolve = resolve }
}

// NewWatcher creates a watcher. onChange runs on the polling goroutine.
func NewWatcher(src Source, onChange func(*router.Table), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		src:      src,
		onChange: onChange,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Version returns the version of the last table delivered.
func (w *Watcher) Version() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

// Seed records version as already delivered, so the first poll does not
// redeliver the table the caller loaded itself.
func (w *Watcher) Seed(version string) {
	w.mu.Lock()
	w.version = version
	w.mu.Unlock()
}

// Poll checks the source once. It reports whether a new table was
// delivered. A manifest that fails to load is logged once per distinct
// error and the previous table stays in service.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	data, version, err := w.src.Fetch(ctx)
	if err != nil {
		err = &Error{Source: w.src.Name(), Kind: ErrRead, Err: err}
		w.fail(err)
		return false, err
	}

	w.mu.Lock()
	unchanged := version != "" && version == w.version
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	table, err := Decode(w.src.Name(), data, w.src.Format(), w.resolve)
	if err != nil {
		w.fail(err)
		return false, err
	}

	w.mu.Lock()
	w.version = version
	w.lastErr = nil
	w.mu.Unlock()

	w.logger.Info("route manifest loaded",
		"source", w.src.Name(),
		"version", version,
		"routes", table.Len())
	if w.onChange != nil {
		w.onChange(table)
	}
	return true, nil
}

func (w *Watcher) fail(err error) {
	w.mu.Lock()
	repeated := w.lastErr != nil && w.lastErr.Error() == err.Error()
	w.lastErr = err
	w.mu.Unlock()
	if !repeated {
		w.logger.Warn("route manifest rejected, keeping previous table",
			"source", w.src.Name(),
			"error", err)
	}
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = w.Poll(ctx)
		}
	}
}

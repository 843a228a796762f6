package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

// State is a phase of the navigation state machine.
type State int32

const (
	Idle State = iota
	Resolving
	Guarding
	Committing
	Aborted
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Guarding:
		return "guarding"
	case Committing:
		return "committing"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Status is the outcome of a navigation.
type Status uint8

const (
	// StatusCommitted means the target became the active route.
	StatusCommitted Status = iota
	// StatusCancelled means a guard (or the caller's context) cancelled it.
	StatusCancelled
	// StatusSuperseded means a later navigation replaced it.
	StatusSuperseded
	// StatusDuplicate means the target is already active.
	StatusDuplicate
	// StatusFailed means a guard fault, redirect loop or history failure.
	StatusFailed
	// StatusDeferred means a traversal was requested; the history event it
	// produces drives the actual navigation.
	StatusDeferred
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusCancelled:
		return "cancelled"
	case StatusSuperseded:
		return "superseded"
	case StatusDuplicate:
		return "duplicate"
	case StatusFailed:
		return "failed"
	case StatusDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Result describes how a navigation ended.
type Result struct {
	Status Status

	// From is the active route when the navigation started.
	From *router.MatchedRoute

	// To is the resolved destination. It is nil when resolution failed.
	To *router.MatchedRoute

	// Origin is where the request came from.
	Origin Origin

	// Replace is set when the commit replaced the current history entry.
	Replace bool

	// Entry is the history entry written (or landed on) by the commit.
	Entry history.Entry

	// Redirects lists the locations left behind by redirects, in order.
	Redirects []string

	// Reason is the cancellation reason.
	Reason string

	// Err is the failure, if any.
	Err error
}

// Committed reports whether the navigation committed.
func (r *Result) Committed() bool { return r != nil && r.Status == StatusCommitted }

// RedirectLoopError is returned when a redirect chain exceeds the bound.
type RedirectLoopError struct {
	Chain []string
	Limit int
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("navigation: more than %d redirects: %s", e.Limit, strings.Join(e.Chain, " -> "))
}

// ErrorCode returns the stable error code.
func (e *RedirectLoopError) ErrorCode() string { return "W201" }

// GuardError wraps an error returned, or a panic raised, by a guard.
type GuardError struct {
	// Index is the guard's position in registration order.
	Index int
	// To is the full path being guarded.
	To string
	// Err is the guard's error. For a panic it describes the panic value.
	Err error
	// Panicked is set when the guard panicked.
	Panicked bool
}

func (e *GuardError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("navigation: guard #%d panicked on %s: %v", e.Index, e.To, e.Err)
	}
	return fmt.Sprintf("navigation: guard #%d failed on %s: %v", e.Index, e.To, e.Err)
}

func (e *GuardError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code.
func (e *GuardError) ErrorCode() string { return "W202" }

// HistoryError wraps a failure of the history adapter.
type HistoryError struct {
	Op       string
	FullPath string
	Err      error
}

func (e *HistoryError) Error() string {
	if e.FullPath == "" {
		return fmt.Sprintf("navigation: history %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("navigation: history %s %s: %v", e.Op, e.FullPath, e.Err)
}

func (e *HistoryError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code.
func (e *HistoryError) ErrorCode() string { return "W203" }

// errSuperseded is internal; it never reaches callers.
var errSuperseded = errors.New("superseded")

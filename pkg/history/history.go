// Package history defines the History Adapter: the boundary between the
// navigation controller and the browser's back/forward stack.
//
// The controller never touches the address bar directly. It asks a History
// to Push or Replace an entry after a navigation commits, and it listens for
// Events, which are produced only when the user (or a Go call) traverses the
// stack. The adapter is the sole producer of those events.
//
// Two implementations exist: Memory, an in-process stack used headless and
// in tests, and server.RemoteHistory, which mirrors a real browser tab over a
// WebSocket. Both serialize locations to the address bar through a Codec, so
// the history mode (browser or hash) and the base path never reach the
// matching or controller logic.
package history

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrOutOfRange is returned by Go when the target position does not exist.
var ErrOutOfRange = errors.New("history: traversal out of range")

// ErrClosed is returned once the adapter's transport has gone away.
var ErrClosed = errors.New("history: closed")

// History is the contract the navigation controller drives.
type History interface {
	// Location returns the in-app full path of the current entry.
	Location() string

	// Href returns the address-bar string for an in-app full path.
	Href(fullPath string) string

	// Push adds an entry after the current one, dropping forward entries.
	Push(ctx context.Context, fullPath string) (Entry, error)

	// Replace overwrites the current entry.
	Replace(ctx context.Context, fullPath string) (Entry, error)

	// Go traverses the stack by delta. Unless Quiet is given, listeners
	// receive an Event once the traversal lands.
	Go(ctx context.Context, delta int, opts ...GoOption) error

	// Listen registers fn for traversal events and returns a func that
	// removes it.
	Listen(fn func(Event)) (unlisten func())

	// Len returns the number of entries in the stack.
	Len() int

	// Position returns the index of the current entry.
	Position() int
}

// Entry is one slot in the back/forward stack.
type Entry struct {
	// ID identifies the slot. Replace keeps the position but issues a new ID.
	ID uuid.UUID `json:"id"`

	// FullPath is the in-app location, including query and fragment.
	FullPath string `json:"fullPath"`

	// Position is the index of the slot in the stack.
	Position int `json:"position"`
}

// Event describes an externally triggered traversal.
type Event struct {
	// Entry is the entry the stack landed on.
	Entry Entry

	// Delta is the signed distance travelled (-1 for a single back step).
	Delta int
}

// NewEntry returns an entry with a fresh ID.
func NewEntry(fullPath string, position int) Entry {
	return Entry{ID: uuid.New(), FullPath: fullPath, Position: position}
}

// GoOption configures a traversal.
type GoOption func(*GoOptions)

// GoOptions holds traversal settings. Adapters read it with ApplyGoOptions.
type GoOptions struct {
	// Quiet suppresses the Event for this traversal.
	Quiet bool
}

// Quiet moves the stack without notifying listeners. The controller uses it
// to restore the address bar after cancelling a back/forward navigation.
func Quiet() GoOption {
	return func(o *GoOptions) {
		o.Quiet = true
	}
}

// ApplyGoOptions folds opts into a GoOptions value.
func ApplyGoOptions(opts ...GoOption) GoOptions {
	var o GoOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

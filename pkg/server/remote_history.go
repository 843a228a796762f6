package server

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vango-dev/waypoint/pkg/history"
)

// RemoteHistory mirrors a browser tab's history stack. Stack operations are
// forwarded to the tab as push, replace and go messages; popstate messages
// from the tab become traversal events.
//
// Go messages carry the target position and the tab moves there. A non-quiet
// Go only asks the tab to move: the mirror follows when the tab's popstate
// arrives. A quiet Go moves the mirror at once; the popstate that answers it
// is swallowed once it lands on that position.
type RemoteHistory struct {
	mu        sync.Mutex
	codec     history.Codec
	entries   []history.Entry
	index     int
	quiet     []int // targets of quiet Go calls not yet answered
	send      func(Message) error
	listeners []*remoteListener
}

type remoteListener struct {
	fn func(history.Event)
}

// NewRemoteHistory creates a mirror holding a single entry for initial.
// send delivers messages to the tab.
func NewRemoteHistory(codec history.Codec, initial string, send func(Message) error) *RemoteHistory {
	if initial == "" {
		initial = "/"
	}
	return &RemoteHistory{
		codec:   codec,
		entries: []history.Entry{history.NewEntry(initial, 0)},
		send:    send,
	}
}

// Location implements history.History.
func (h *RemoteHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].FullPath
}

// Href implements history.History.
func (h *RemoteHistory) Href(fullPath string) string {
	return h.codec.Href(fullPath)
}

// Push implements history.History. The mirror changes only if the tab was
// told.
func (h *RemoteHistory) Push(ctx context.Context, fullPath string) (history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return history.Entry{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := history.NewEntry(fullPath, h.index+1)
	if err := h.send(Message{Type: MsgPush, Href: h.codec.Href(fullPath), Position: e.Position}); err != nil {
		return history.Entry{}, err
	}
	h.entries = append(h.entries[:h.index+1], e)
	h.index = e.Position
	return e, nil
}

// Replace implements history.History.
func (h *RemoteHistory) Replace(ctx context.Context, fullPath string) (history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return history.Entry{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := history.NewEntry(fullPath, h.index)
	if err := h.send(Message{Type: MsgReplace, Href: h.codec.Href(fullPath), Position: e.Position}); err != nil {
		return history.Entry{}, err
	}
	h.entries[h.index] = e
	return e, nil
}

// Go implements history.History.
func (h *RemoteHistory) Go(ctx context.Context, delta int, opts ...history.GoOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	o := history.ApplyGoOptions(opts...)

	h.mu.Lock()
	defer h.mu.Unlock()

	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		return history.ErrOutOfRange
	}
	if err := h.send(Message{Type: MsgGo, Delta: delta, Position: target}); err != nil {
		return err
	}
	if o.Quiet {
		h.index = target
		h.quiet = append(h.quiet, target)
	}
	return nil
}

// Sync applies a popstate from the tab to the mirror. It reports the event
// to deliver, if any. A position outside the mirror is a W402 protocol
// error: the tab and the mirror have diverged.
func (h *RemoteHistory) Sync(position int, href string) (history.Event, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if position < 0 || position >= len(h.entries) {
		return history.Event{}, false, &ProtocolError{
			Op:      "popstate",
			Message: fmt.Sprintf("position %d outside history of %d entries", position, len(h.entries)),
			Code:    CodeUnexpectedMessage,
		}
	}

	if i := slices.Index(h.quiet, position); i >= 0 {
		h.quiet = slices.Delete(h.quiet, i, i+1)
		if position == h.index {
			return history.Event{}, false, nil
		}
		// The mirror moved on before the answer arrived; treat it as a
		// traversal so the mirror follows the tab.
	}

	delta := position - h.index
	if delta == 0 {
		return history.Event{}, false, nil
	}

	e := h.entries[position]
	if fp := h.codec.FullPath(href); href != "" && fp != e.FullPath {
		// The address bar is authoritative.
		e.FullPath = fp
		h.entries[position] = e
	}
	h.index = position
	return history.Event{Entry: e, Delta: delta}, true, nil
}

// Emit delivers ev to the listeners.
func (h *RemoteHistory) Emit(ev history.Event) {
	h.mu.Lock()
	fns := make([]func(history.Event), len(h.listeners))
	for i, l := range h.listeners {
		fns[i] = l.fn
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// HandlePopState syncs and emits in one step.
func (h *RemoteHistory) HandlePopState(position int, href string) error {
	ev, ok, err := h.Sync(position, href)
	if err != nil || !ok {
		return err
	}
	h.Emit(ev)
	return nil
}

// Listen implements history.History.
func (h *RemoteHistory) Listen(fn func(history.Event)) func() {
	l := &remoteListener{fn: fn}

	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, existing := range h.listeners {
			if existing == l {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// Len implements history.History.
func (h *RemoteHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Position implements history.History.
func (h *RemoteHistory) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Entries returns a copy of the mirrored stack.
func (h *RemoteHistory) Entries() []history.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]history.Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Restore replaces the mirror with a saved stack. An index out of range is
// clamped to the last entry.
func (h *RemoteHistory) Restore(entries []history.Entry, index int) {
	if len(entries) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = make([]history.Entry, len(entries))
	for i, e := range entries {
		e.Position = i
		h.entries[i] = e
	}
	if index < 0 || index >= len(h.entries) {
		index = len(h.entries) - 1
	}
	h.index = index
	h.quiet = nil
}

var _ history.History = (*RemoteHistory)(nil)

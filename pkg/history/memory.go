package history

import (
	"context"
	"sync"
)

// Memory is an in-process History. It keeps the stack and position the
// browser would keep, and simulates the user's back and forward buttons
// with Back and Forward.
//
// Listeners are called synchronously on the goroutine that caused the
// traversal, after internal locks are released.
type Memory struct {
	mu        sync.Mutex
	codec     Codec
	entries   []Entry
	index     int
	listeners []*listener
}

type listener struct {
	fn func(Event)
}

// MemoryOption configures a Memory history.
type MemoryOption func(*Memory)

// WithCodec sets the address-bar codec used by Href.
func WithCodec(c Codec) MemoryOption {
	return func(m *Memory) {
		m.codec = NewCodec(c.Base, c.Mode)
	}
}

// NewMemory returns a history holding a single entry for initial.
func NewMemory(initial string, opts ...MemoryOption) *Memory {
	if initial == "" {
		initial = "/"
	}
	m := &Memory{
		entries: []Entry{NewEntry(initial, 0)},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Location implements History.
func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].FullPath
}

// Href implements History.
func (m *Memory) Href(fullPath string) string {
	return m.codec.Href(fullPath)
}

// Push implements History.
func (m *Memory) Push(ctx context.Context, fullPath string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = m.entries[:m.index+1]
	e := NewEntry(fullPath, len(m.entries))
	m.entries = append(m.entries, e)
	m.index = e.Position
	return e, nil
}

// Replace implements History.
func (m *Memory) Replace(ctx context.Context, fullPath string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := NewEntry(fullPath, m.index)
	m.entries[m.index] = e
	return e, nil
}

// Go implements History.
func (m *Memory) Go(ctx context.Context, delta int, opts ...GoOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	o := ApplyGoOptions(opts...)

	m.mu.Lock()
	target := m.index + delta
	if target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return ErrOutOfRange
	}
	m.index = target
	ev := Event{Entry: m.entries[target], Delta: delta}
	fns := m.snapshotListeners()
	m.mu.Unlock()

	if !o.Quiet {
		for _, fn := range fns {
			fn(ev)
		}
	}
	return nil
}

// Back simulates the browser's back button.
func (m *Memory) Back() error {
	return m.Go(context.Background(), -1)
}

// Forward simulates the browser's forward button.
func (m *Memory) Forward() error {
	return m.Go(context.Background(), 1)
}

// Listen implements History.
func (m *Memory) Listen(fn func(Event)) func() {
	l := &listener{fn: fn}

	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, existing := range m.listeners {
			if existing == l {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Memory) snapshotListeners() []func(Event) {
	fns := make([]func(Event), len(m.listeners))
	for i, l := range m.listeners {
		fns[i] = l.fn
	}
	return fns
}

// Len implements History.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Position implements History.
func (m *Memory) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Entries returns a copy of the stack.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Restore replaces the stack, e.g. from a session snapshot. An index out of
// range is clamped to the last entry.
func (m *Memory) Restore(entries []Entry, index int) {
	if len(entries) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make([]Entry, len(entries))
	for i, e := range entries {
		e.Position = i
		m.entries[i] = e
	}
	if index < 0 || index >= len(m.entries) {
		index = len(m.entries) - 1
	}
	m.index = index
}

var _ History = (*Memory)(nil)

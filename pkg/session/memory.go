package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process. It is the default store; use
// RedisStore when several processes serve the same tabs.
//
// Snapshots are held encoded, so a Load never aliases what was saved.
type MemoryStore struct {
	mu     sync.Mutex
	snaps  map[string]memorySnapshot
	limit  int
	every  time.Duration
	closed bool
	done   chan struct{}
	now    func() time.Time
}

type memorySnapshot struct {
	data    []byte
	expires time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often expired snapshots are dropped.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(m *MemoryStore) {
		if d > 0 {
			m.every = d
		}
	}
}

// WithMaxSnapshots bounds the number of sessions kept. Saving a new
// session beyond the bound evicts the one closest to expiry. Zero means
// unbounded.
func WithMaxSnapshots(n int) MemoryStoreOption {
	return func(m *MemoryStore) {
		if n >= 0 {
			m.limit = n
		}
	}
}

// NewMemoryStore creates an in-memory store and starts its sweeper.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		snaps: make(map[string]memorySnapshot),
		done:  make(chan struct{}),
		every: time.Minute,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.sweepLoop(m.every)
	return m
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, snap *Snapshot, ttl time.Duration) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if ttl <= 0 {
		delete(m.snaps, snap.ID)
		return nil
	}

	if _, ok := m.snaps[snap.ID]; !ok && m.limit > 0 && len(m.snaps) >= m.limit {
		m.evictLocked()
	}
	m.snaps[snap.ID] = memorySnapshot{data: data, expires: m.now().Add(ttl)}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s, ok := m.snaps[id]
	m.mu.Unlock()

	if !ok || m.now().After(s.expires) {
		return nil, nil
	}
	return Decode(s.data)
}

// Extend implements Store.
func (m *MemoryStore) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return m.Delete(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if s, ok := m.snaps[id]; ok {
		s.expires = m.now().Add(ttl)
		m.snaps[id] = s
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.snaps, id)
	return nil
}

// Close stops the sweeper and drops every snapshot.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.snaps = nil
	return nil
}

// Len returns the number of snapshots held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

func (m *MemoryStore) evictLocked() {
	var (
		victim string
		soon   time.Time
	)
	for id, s := range m.snaps {
		if victim == "" || s.expires.Before(soon) {
			victim, soon = id, s.expires
		}
	}
	delete(m.snaps, victim)
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, s := range m.snaps {
		if now.After(s.expires) {
			delete(m.snaps, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)

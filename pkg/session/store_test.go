package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/history"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func withClock(c *fakeClock) MemoryStoreOption {
	return func(m *MemoryStore) { m.now = c.now }
}

func snapshot(id string, paths ...string) *Snapshot {
	entries := make([]history.Entry, len(paths))
	for i, p := range paths {
		entries[i] = history.NewEntry(p, i)
	}
	return &Snapshot{ID: id, Entries: entries, Index: len(paths) - 1, Active: paths[len(paths)-1]}
}

// TestStores runs the Store contract against every backend.
func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			s := NewMemoryStore()
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) Store {
			s, _ := newRedisStore(t)
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			require.NoError(t, store.Save(ctx, snapshot("s1", "/", "/users/1"), 5*time.Minute))

			loaded, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, "s1", loaded.ID)
			assert.Equal(t, "/users/1", loaded.Active)
			assert.Equal(t, 1, loaded.Index)
			assert.Equal(t, []string{"/", "/users/1"}, []string{loaded.Entries[0].FullPath, loaded.Entries[1].FullPath})
			assert.Equal(t, CurrentSnapshotVersion, loaded.Version)

			// A later save replaces the session's snapshot.
			require.NoError(t, store.Save(ctx, snapshot("s1", "/"), 5*time.Minute))
			loaded, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, loaded.Entries, 1)

			loaded, err = store.Load(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, loaded)

			require.NoError(t, store.Extend(ctx, "s1", 10*time.Minute))
			require.NoError(t, store.Extend(ctx, "missing", 10*time.Minute))

			require.NoError(t, store.Delete(ctx, "s1"))
			require.NoError(t, store.Delete(ctx, "s1"))
			loaded, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, loaded)

			require.NoError(t, store.Save(ctx, snapshot("s2", "/"), time.Minute))
			require.NoError(t, store.Save(ctx, snapshot("s2", "/"), 0))
			loaded, err = store.Load(ctx, "s2")
			require.NoError(t, err)
			assert.Nil(t, loaded, "a non-positive ttl deletes")

			require.NoError(t, store.Close())
			assert.ErrorIs(t, store.Save(ctx, snapshot("s1", "/"), time.Minute), ErrStoreClosed)
			_, err = store.Load(ctx, "s1")
			assert.ErrorIs(t, err, ErrStoreClosed)
		})
	}
}

func TestMemoryStoreLoadIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	snap := snapshot("s", "/", "/a")
	require.NoError(t, store.Save(ctx, snap, time.Minute))
	snap.Entries[0].FullPath = "/changed"

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "/", loaded.Entries[0].FullPath)

	loaded.Active = "/mine"
	again, _ := store.Load(ctx, "s")
	assert.Equal(t, "/a", again.Active)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(withClock(clock))
	defer store.Close()

	require.NoError(t, store.Save(ctx, snapshot("old", "/"), time.Minute))
	require.NoError(t, store.Save(ctx, snapshot("kept", "/"), time.Minute))

	clock.advance(50 * time.Second)
	require.NoError(t, store.Extend(ctx, "kept", time.Minute))

	clock.advance(20 * time.Second)
	loaded, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	loaded, err = store.Load(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, loaded)

	store.sweep()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreSweeps(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	store := NewMemoryStore(withClock(clock), WithSweepInterval(10*time.Millisecond))
	defer store.Close()

	require.NoError(t, store.Save(ctx, snapshot("s", "/"), time.Second))
	clock.advance(time.Hour)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreMaxSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxSnapshots(2))
	defer store.Close()

	require.NoError(t, store.Save(ctx, snapshot("a", "/"), time.Minute))
	require.NoError(t, store.Save(ctx, snapshot("b", "/"), time.Hour))
	require.NoError(t, store.Save(ctx, snapshot("b", "/x"), time.Hour), "updates do not evict")
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Save(ctx, snapshot("c", "/"), time.Hour))
	assert.Equal(t, 2, store.Len())

	gone, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, gone, "the snapshot closest to expiry is evicted")
	kept, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "/x", kept.Active)
}

func TestRedisStoreKeysAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	assert.Equal(t, "waypoint:session:", store.Prefix())

	require.NoError(t, store.Save(ctx, snapshot("abc", "/"), time.Minute))
	assert.True(t, mr.Exists("waypoint:session:abc"))
	assert.Greater(t, mr.TTL("waypoint:session:abc"), 50*time.Second)

	require.NoError(t, store.Extend(ctx, "abc", time.Hour))
	assert.Greater(t, mr.TTL("waypoint:session:abc"), 50*time.Minute)

	mr.FastForward(2 * time.Hour)
	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Save(ctx, snapshot("abc", "/"), time.Minute))
	require.NoError(t, store.Extend(ctx, "abc", -time.Minute))
	assert.False(t, mr.Exists("waypoint:session:abc"))
}

func TestRedisStoreDropsUndecodableSnapshots(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, mr.Set("waypoint:session:bad", `{"id":"bad","entries":[],"version":1}`))
	_, err := store.Load(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, mr.Exists("waypoint:session:bad"))
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, WithRedisPrefix("app:"))
	require.NoError(t, store.Save(context.Background(), snapshot("x", "/"), time.Minute))
	assert.True(t, mr.Exists("app:x"))
}

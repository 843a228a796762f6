package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots in Redis, one key per session with the
// snapshot's lifetime as the key's TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	closed atomic.Bool
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: "waypoint:session:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	r := &RedisStore{
		client: client,
		prefix: "waypoint:session:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(snap.ID)).Err()
	}

	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(snap.ID), data, ttl).Err()
}

// Load implements Store. A snapshot that no longer decodes is deleted and
// reported as an error.
func (r *RedisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}

	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap, err := Decode(data)
	if err != nil {
		_ = r.client.Del(ctx, r.key(id)).Err()
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return snap, nil
}

// Extend implements Store.
func (r *RedisStore) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(id)).Err()
	}
	return r.client.Expire(ctx, r.key(id), ttl).Err()
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	return r.client.Del(ctx, r.key(id)).Err()
}

// Close marks the store closed. The client is left open; it may be shared.
func (r *RedisStore) Close() error {
	r.closed.Store(true)
	return nil
}

// Prefix returns the key prefix.
func (r *RedisStore) Prefix() string {
	return r.prefix
}

var _ Store = (*RedisStore)(nil)

package session

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned by a Store after Close.
var ErrStoreClosed = errors.New("session: store is closed")

// Store keeps the latest snapshot of each session for a limited time.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save replaces the snapshot for snap.ID and keeps it for ttl. A ttl
	// of zero or less deletes it instead.
	Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error

	// Load returns the snapshot for id, or (nil, nil) if there is none or
	// it has expired. The caller owns the returned value.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// Extend keeps id's snapshot for ttl from now. A missing id is not an
	// error.
	Extend(ctx context.Context, id string, ttl time.Duration) error

	// Delete removes id's snapshot. A missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}

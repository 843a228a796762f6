package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vango-dev/waypoint/pkg/history"
)

// CurrentSnapshotVersion is the current version of the snapshot format.
// Increment when making breaking changes to the format.
const CurrentSnapshotVersion = 1

// Snapshot is the persisted navigation state of one session.
type Snapshot struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// Entries is the history stack, oldest first.
	Entries []history.Entry `json:"entries"`

	// Index is the position of the current entry.
	Index int `json:"index"`

	// Active is the full path of the active route.
	Active string `json:"active"`

	// UpdatedAt is when the snapshot was taken.
	UpdatedAt time.Time `json:"updatedAt"`

	// Version is the serialization format version.
	Version int `json:"version"`
}

// Encode converts a snapshot to bytes.
func Encode(s *Snapshot) ([]byte, error) {
	s.Version = CurrentSnapshotVersion
	return json.Marshal(s)
}

// Decode converts bytes back to a snapshot. Snapshots written by a newer
// format version are rejected.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > CurrentSnapshotVersion {
		return nil, fmt.Errorf("session: snapshot version %d is newer than %d", s.Version, CurrentSnapshotVersion)
	}
	if len(s.Entries) == 0 {
		return nil, fmt.Errorf("session: snapshot %q has no history entries", s.ID)
	}
	return &s, nil
}

// Package session persists navigation sessions so a reconnecting browser tab
// resumes with the same history stack and active route.
//
// # Stores
//
// A Store keeps the latest Snapshot of each session until its TTL runs out:
//
//	store := session.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
//	// or (default)
//	store := session.NewMemoryStore()
//
// # Snapshots
//
// A Snapshot records the history entries, the current position and the
// active full path of one session. A Tracker writes a fresh snapshot after
// every committed navigation:
//
//	tracker := session.NewTracker(store, session.WithTTL(30*time.Minute))
//	detach := tracker.Attach(sessionID, ctrl, hist)
//	defer detach()
//
//	snap, err := tracker.Restore(ctx, sessionID) // nil when unknown or expired
package session

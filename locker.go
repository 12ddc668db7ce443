package refdex

import "time"

// Locker serializes runs that mutate the local library. Sync and index
// runs take the lock; read-only commands do not. The lock spans processes,
// not just goroutines, since the stores live on a shared filesystem.
type Locker interface {
	// Acquire blocks until the lock is held or the timeout elapses.
	// On success it returns a release function, which must be called
	// exactly once. Returns ECONFLICT if another run holds the lock for
	// the whole timeout.
	Acquire(timeout time.Duration) (release func(), err error)
}

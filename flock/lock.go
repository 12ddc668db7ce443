// Package flock implements run locking with an advisory file lock.
package flock

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/refdex/refdex"
)

// pollInterval is how often a blocked Acquire retries the lock.
const pollInterval = 200 * time.Millisecond

// Ensure Locker implements refdex.Locker at compile time.
var _ refdex.Locker = (*Locker)(nil)

// Locker implements refdex.Locker using a lock file. The lock is advisory
// and works across processes sharing the same library directory.
type Locker struct {
	path string
}

// NewLocker creates a new Locker for the given lock file path.
func NewLocker(path string) *Locker {
	return &Locker{path: path}
}

// Acquire blocks until the lock is held or the timeout elapses. The
// returned release function must be called exactly once.
func (l *Locker) Acquire(timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, err
	}

	fl := flock.New(l.path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, err
		}
		if locked {
			return func() { _ = fl.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, refdex.Errorf(refdex.ECONFLICT, "another refdex run holds the lock at %s", l.path)
		}
		time.Sleep(pollInterval)
	}
}

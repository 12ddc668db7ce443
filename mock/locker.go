package mock

import (
	"time"

	"github.com/refdex/refdex"
)

var _ refdex.Locker = (*Locker)(nil)

// Locker is a mock implementation of refdex.Locker.
type Locker struct {
	AcquireFn func(timeout time.Duration) (func(), error)
}

func (l *Locker) Acquire(timeout time.Duration) (func(), error) {
	return l.AcquireFn(timeout)
}

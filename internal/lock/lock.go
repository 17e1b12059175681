// Package lock provides the per-salon critical section used by the queue engine.
package lock

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotObtained is returned when a lock could not be acquired before the deadline.
var ErrNotObtained = errors.New("lock not obtained")

// Locker serializes work on one key. Different keys never block each other.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

package queue

import (
	"fmt"

	"github.com/pkg/errors"

	"walkin-queue-backend/internal/lock"
	"walkin-queue-backend/internal/store"
)

var (
	// ErrNotFound means the token is not waiting in the salon's queue. No state was changed.
	ErrNotFound = errors.New("queue entry not found")
	// ErrSalonNotFound means the salon is not in the catalog.
	ErrSalonNotFound = errors.New("salon not found")
	// ErrConflict means the salon's critical section could not be entered in time.
	ErrConflict = errors.New("salon queue is busy, try again")
)

// ValidationError rejects a request before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failure of the queue store. The whole operation was rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// classify maps whatever came out of a transaction onto the error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, ErrSalonNotFound):
		return ErrSalonNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, lock.ErrNotObtained):
		return ErrConflict
	}

	var serr *StorageError
	if errors.As(err, &serr) {
		return serr
	}
	return &StorageError{Op: op, Err: err}
}

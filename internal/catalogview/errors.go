package catalogview

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by View mutations. Validation failures are returned as
// *validation.Error.
var (
	ErrPermissionDenied   = errors.New("not permitted")
	ErrMutationInProgress = errors.New("a change to this entry is already pending")
	ErrMutationRejected   = errors.New("change rejected by the server")
	ErrNetworkUnavailable = errors.New("server unreachable")
	ErrViewClosed         = errors.New("view is closed")
	ErrUnknownEntity      = errors.New("week or challenge is not in the view")

	// ErrNotFound is a rejection: errors.Is(ErrNotFound, ErrMutationRejected) holds.
	ErrNotFound = fmt.Errorf("not found: %w", ErrMutationRejected)
)

// classify makes sure a store failure is one of the two failure classes
// callers are expected to handle.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrMutationRejected),
		errors.Is(err, ErrNetworkUnavailable),
		errors.Is(err, ErrPermissionDenied):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrMutationRejected, err)
	}
}

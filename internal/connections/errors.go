// internal/connections/errors.go
package connections

import "errors"

// Sentinel errors for the connection workflow. Handlers discriminate with
// errors.Is to pick a response status; anything not in this list is treated
// as a store failure and safe to retry by the caller.
var (
	// ErrValidation covers malformed input, including a user requesting a
	// connection with themselves.
	ErrValidation = errors.New("invalid request input")

	// ErrDuplicateRequest means a pending request already exists between the
	// pair, in either direction. Surfaced both by the advisory pre-check and
	// by the storage uniqueness constraint when two sends race.
	ErrDuplicateRequest = errors.New("a pending connection request already exists")

	// ErrAlreadyConnected means the pair already share an accepted edge.
	ErrAlreadyConnected = errors.New("users are already connected")

	// ErrNotFound means the referenced request or connection does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is not a party authorized to act on the
	// request.
	ErrForbidden = errors.New("caller may not act on this request")

	// ErrInvalidState means the request already left pending, either earlier
	// or by losing a race to a concurrent accept/reject.
	ErrInvalidState = errors.New("request is no longer pending")
)

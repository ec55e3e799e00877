// internal/connections/store.go
package connections

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink/internal/models"
)

// Store is the durable ledger of requests and edges. Implementations must
// enforce two things themselves, because the service deliberately holds no
// locks of its own:
//
//  1. CreateRequest fails with ErrDuplicateRequest when a pending request
//     already exists for the unordered pair (see PairKey). The service also
//     pre-checks with HasPendingRequest for a fast error, but the store
//     constraint is the correctness mechanism, not the check.
//  2. AcceptRequest and RejectRequest are a compare-and-swap on status:
//     they only transition pending -> accepted/rejected, return
//     ErrInvalidState if the request already left pending, and (for accept)
//     write both directed edge rows in the same atomic unit as the swap.
type Store interface {
	// CreateRequest persists a new pending request. ErrDuplicateRequest if a
	// pending request already exists for the pair.
	CreateRequest(ctx context.Context, req *models.ConnectionRequest) error

	// GetRequest returns a request by id, or ErrNotFound.
	GetRequest(ctx context.Context, id uuid.UUID) (*models.ConnectionRequest, error)

	// HasPendingRequest reports whether a pending request exists between the
	// two users, in either direction.
	HasPendingRequest(ctx context.Context, a, b uuid.UUID) (bool, error)

	// AreConnected reports whether an edge from a to b exists. Edge symmetry
	// means one direction is enough to check.
	AreConnected(ctx context.Context, a, b uuid.UUID) (bool, error)

	// AcceptRequest CASes the request from pending to accepted and writes
	// both directed Connection rows atomically. ErrNotFound if the request
	// does not exist, ErrInvalidState if it is not pending.
	AcceptRequest(ctx context.Context, id uuid.UUID) error

	// RejectRequest CASes the request from pending to rejected. Same error
	// contract as AcceptRequest; no edges are written.
	RejectRequest(ctx context.Context, id uuid.UUID) error

	// RemoveConnection deletes both directed rows of the edge between the
	// two users atomically. ErrNotFound if no edge exists.
	RemoveConnection(ctx context.Context, userID, peerID uuid.UUID) error

	// ListConnections returns all directed rows with UserID == userID.
	ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)

	// ListPendingRequests returns the user's pending requests, split into
	// incoming (to == userID) and outgoing (from == userID).
	ListPendingRequests(ctx context.Context, userID uuid.UUID) (incoming, outgoing []models.ConnectionRequest, err error)
}

// Identity resolves a user id to display attributes. Owned by the identity
// platform; consumed read-only here. Implementations return a placeholder
// profile for unknown users rather than an error.
type Identity interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.UserProfile, error)
}

// PlaceholderProfile is what callers see when identity lookup cannot resolve
// a user. Display code must always have something to render.
func PlaceholderProfile(id uuid.UUID) models.UserProfile {
	return models.UserProfile{
		ID:   id,
		Name: "Unknown User",
		Role: "user",
	}
}

// internal/models/connection.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a ConnectionRequest. A request is
// created as pending and transitions exactly once to accepted or rejected;
// terminal statuses never change again.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ConnectionRequest is one entry in the request ledger. Requests are never
// deleted; resolved rows remain as an audit trail.
type ConnectionRequest struct {
	ID         uuid.UUID     `json:"id"`
	FromUserID uuid.UUID     `json:"from_user_id"`
	ToUserID   uuid.UUID     `json:"to_user_id"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Connection is one directed half of an undirected edge: "UserID is connected
// to PeerID". Every edge is stored twice, once per direction, so listing a
// user's connections is a single indexed scan. The (UserID, PeerID) pair is
// the row's identity, which makes edge writes idempotent.
type Connection struct {
	UserID    uuid.UUID `json:"user_id"`
	PeerID    uuid.UUID `json:"peer_id"`
	CreatedAt time.Time `json:"created_at"`
}

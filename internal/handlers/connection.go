// internal/handlers/connection.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink/internal/connections"
)

// SendConnectionHandler handles a user sending a connection request to
// another user.
//
// Request payload: { "user_id": "some-uuid-string" }
// Response: 201 { "request_id": "...", "status": "pending" }
func SendConnectionHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}

		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		toUUID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}

		created, err := svc.Send(r.Context(), callerID, toUUID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"request_id": created.ID,
			"status":     created.Status,
		})
	}
}

// AcceptConnectionHandler handles the recipient of a pending request
// accepting it.
//
// Request payload: { "request_id": "some-uuid-string" }
// Response: 200 { "status": "accepted" }
func AcceptConnectionHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}
		requestID, ok := decodeRequestID(w, r)
		if !ok {
			return
		}

		resolved, err := svc.Accept(r.Context(), requestID, callerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": resolved.Status})
	}
}

// RejectConnectionHandler handles the recipient of a pending request
// rejecting it. The sender may re-request afterwards.
//
// Request payload: { "request_id": "some-uuid-string" }
// Response: 200 { "status": "rejected" }
func RejectConnectionHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}
		requestID, ok := decodeRequestID(w, r)
		if !ok {
			return
		}

		resolved, err := svc.Reject(r.Context(), requestID, callerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": resolved.Status})
	}
}

// ListConnectionsHandler returns the authenticated user's connections as a
// JSON array of {peer_id, created_at} entries.
func ListConnectionsHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}

		cs, err := svc.ListConnections(r.Context(), callerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		type entry struct {
			PeerID    uuid.UUID `json:"peer_id"`
			CreatedAt time.Time `json:"created_at"`
		}
		out := make([]entry, 0, len(cs))
		for _, c := range cs {
			out = append(out, entry{PeerID: c.PeerID, CreatedAt: c.CreatedAt})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

// ListRequestsHandler returns the authenticated user's open requests, split
// into incoming and outgoing, each enriched with the other party's profile.
func ListRequestsHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}

		pending, err := svc.ListPendingRequests(r.Context(), callerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pending)
	}
}

// RemoveConnectionHandler handles removing (disconnecting) an existing
// connection. Both directed rows are deleted.
//
// Request payload: { "user_id": "some-uuid-string" }
func RemoveConnectionHandler(svc *connections.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := requireCaller(w, r)
		if !ok {
			return
		}

		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		peerUUID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}

		if err := svc.Remove(r.Context(), callerID, peerUUID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("connection removed"))
	}
}

func decodeRequestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return uuid.Nil, false
	}
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		http.Error(w, "invalid request_id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return requestID, true
}

// writeServiceError maps service sentinels to HTTP statuses. Unknown errors
// are store failures; callers may retry the whole operation.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, connections.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, connections.ErrDuplicateRequest),
		errors.Is(err, connections.ErrAlreadyConnected),
		errors.Is(err, connections.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, connections.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, connections.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// internal/connections/memstore.go
package connections

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink/internal/models"
)

// MemStore is an in-process Store used by the test suites and local
// development. A single mutex makes every operation atomic, so it honors the
// same pair-key uniqueness and CAS contract as the Postgres store.
type MemStore struct {
	mu           sync.Mutex
	requests     map[uuid.UUID]models.ConnectionRequest
	pendingPairs map[string]uuid.UUID              // pair key -> pending request id
	edges        map[uuid.UUID]map[uuid.UUID]time.Time // user -> peer -> created at
}

func NewMemStore() *MemStore {
	return &MemStore{
		requests:     make(map[uuid.UUID]models.ConnectionRequest),
		pendingPairs: make(map[string]uuid.UUID),
		edges:        make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (m *MemStore) CreateRequest(_ context.Context, req *models.ConnectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := PairKey(req.FromUserID, req.ToUserID)
	if _, exists := m.pendingPairs[key]; exists {
		return ErrDuplicateRequest
	}
	m.requests[req.ID] = *req
	m.pendingPairs[key] = req.ID
	return nil
}

func (m *MemStore) GetRequest(_ context.Context, id uuid.UUID) (*models.ConnectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (m *MemStore) HasPendingRequest(_ context.Context, a, b uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.pendingPairs[PairKey(a, b)]
	return exists, nil
}

func (m *MemStore) AreConnected(_ context.Context, a, b uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, connected := m.edges[a][b]
	return connected, nil
}

func (m *MemStore) AcceptRequest(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != models.StatusPending {
		return ErrInvalidState
	}

	now := time.Now().UTC()
	req.Status = models.StatusAccepted
	req.UpdatedAt = now
	m.requests[id] = req
	delete(m.pendingPairs, PairKey(req.FromUserID, req.ToUserID))
	m.addEdge(req.FromUserID, req.ToUserID, now)
	m.addEdge(req.ToUserID, req.FromUserID, now)
	return nil
}

func (m *MemStore) RejectRequest(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != models.StatusPending {
		return ErrInvalidState
	}

	req.Status = models.StatusRejected
	req.UpdatedAt = time.Now().UTC()
	m.requests[id] = req
	delete(m.pendingPairs, PairKey(req.FromUserID, req.ToUserID))
	return nil
}

func (m *MemStore) RemoveConnection(_ context.Context, userID, peerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, connected := m.edges[userID][peerID]; !connected {
		return ErrNotFound
	}
	delete(m.edges[userID], peerID)
	delete(m.edges[peerID], userID)
	return nil
}

func (m *MemStore) ListConnections(_ context.Context, userID uuid.UUID) ([]models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Connection
	for peerID, createdAt := range m.edges[userID] {
		out = append(out, models.Connection{
			UserID:    userID,
			PeerID:    peerID,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}

func (m *MemStore) ListPendingRequests(_ context.Context, userID uuid.UUID) (incoming, outgoing []models.ConnectionRequest, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, req := range m.requests {
		if req.Status != models.StatusPending {
			continue
		}
		switch userID {
		case req.ToUserID:
			incoming = append(incoming, req)
		case req.FromUserID:
			outgoing = append(outgoing, req)
		}
	}
	return incoming, outgoing, nil
}

// addEdge is idempotent; a retried write keeps the original timestamp.
func (m *MemStore) addEdge(userID, peerID uuid.UUID, at time.Time) {
	if m.edges[userID] == nil {
		m.edges[userID] = make(map[uuid.UUID]time.Time)
	}
	if _, exists := m.edges[userID][peerID]; !exists {
		m.edges[userID][peerID] = at
	}
}

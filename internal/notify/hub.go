// internal/notify/hub.go
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// writeTimeout bounds a single websocket push; a stalled client drops the
// message, not the worker.
const writeTimeout = 5 * time.Second

// Subscriber is one live websocket session for a user. A user may hold
// several (multiple tabs, devices).
type Subscriber struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// Hub fans delivered notifications out to connected websocket clients. It is
// purely in-memory; delivery to offline users happens through the
// notifications table, not the hub.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*Subscriber]struct{}
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a websocket session for a user.
func (h *Hub) Subscribe(userID uuid.UUID, conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{UserID: userID, Conn: conn}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a session. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sub.UserID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.UserID)
		}
	}
	h.mu.Unlock()
}

// Publish pushes a payload to every live session of the user. Write failures
// are logged and the session is dropped; the persisted notification row is
// the durable copy.
func (h *Hub) Publish(userID uuid.UUID, payload []byte) {
	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.subs[userID]))
	for sub := range h.subs[userID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := sub.Conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err,
			}).Warn("websocket push failed, dropping subscriber")
			h.Unsubscribe(sub)
			sub.Conn.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}

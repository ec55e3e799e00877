// internal/connections/service.go
package connections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/notify"
)

// DefaultNotifyTimeout bounds the detached notification dispatch, identity
// lookup included.
const DefaultNotifyTimeout = 5 * time.Second

// PendingRequestView is a pending request enriched with the profile of the
// other party (the sender for incoming, the recipient for outgoing).
type PendingRequestView struct {
	ID         uuid.UUID            `json:"id"`
	FromUserID uuid.UUID            `json:"from_user_id"`
	ToUserID   uuid.UUID            `json:"to_user_id"`
	Status     models.RequestStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	Peer       models.UserProfile   `json:"peer"`
}

// PendingRequests groups a user's open requests by direction.
type PendingRequests struct {
	Incoming []PendingRequestView `json:"incoming"`
	Outgoing []PendingRequestView `json:"outgoing"`
}

// Service coordinates the request ledger, the edge store, identity lookup and
// the notifier into the connection workflow. It is stateless between calls;
// every mutation is a short-lived transaction in the Store.
type Service struct {
	store    Store
	identity Identity
	notifier notify.Notifier
	log      *logrus.Logger

	// NotifyTimeout bounds each fire-and-forget dispatch.
	NotifyTimeout time.Duration
}

func NewService(store Store, identity Identity, notifier notify.Notifier, log *logrus.Logger) *Service {
	return &Service{
		store:         store,
		identity:      identity,
		notifier:      notifier,
		log:           log,
		NotifyTimeout: DefaultNotifyTimeout,
	}
}

// Send creates a pending connection request from one user to another.
//
// The duplicate pre-checks here give fast, specific errors, but the store's
// pair-key constraint is what actually closes the race window: two
// concurrent sends for the same pair both pass the checks, and the loser's
// insert comes back as ErrDuplicateRequest.
func (s *Service) Send(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.ConnectionRequest, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil {
		return nil, ErrValidation
	}
	if fromUserID == toUserID {
		return nil, ErrValidation
	}

	connected, err := s.store.AreConnected(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, ErrAlreadyConnected
	}

	pending, err := s.store.HasPendingRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicateRequest
	}

	now := time.Now().UTC()
	req := &models.ConnectionRequest{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.dispatch(toUserID, notify.KindConnectionRequest, fromUserID)
	return req, nil
}

// Accept resolves a pending request as accepted and creates the edge. Only
// the recipient may accept. The status check here is advisory; the store's
// CAS decides who wins when an accept races a reject or a duplicate accept,
// and the loser gets ErrInvalidState.
func (s *Service) Accept(ctx context.Context, requestID, callerID uuid.UUID) (*models.ConnectionRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != callerID {
		return nil, ErrForbidden
	}
	if req.Status.Terminal() {
		return nil, ErrInvalidState
	}

	if err := s.store.AcceptRequest(ctx, requestID); err != nil {
		return nil, err
	}
	req.Status = models.StatusAccepted
	req.UpdatedAt = time.Now().UTC()

	s.dispatch(req.FromUserID, notify.KindConnectionAccepted, req.ToUserID)
	return req, nil
}

// Reject resolves a pending request as rejected. Same preconditions and CAS
// semantics as Accept; no edges are written and no notification is sent.
func (s *Service) Reject(ctx context.Context, requestID, callerID uuid.UUID) (*models.ConnectionRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != callerID {
		return nil, ErrForbidden
	}
	if req.Status.Terminal() {
		return nil, ErrInvalidState
	}

	if err := s.store.RejectRequest(ctx, requestID); err != nil {
		return nil, err
	}
	req.Status = models.StatusRejected
	req.UpdatedAt = time.Now().UTC()
	return req, nil
}

// ListConnections returns the user's edges.
func (s *Service) ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	return s.store.ListConnections(ctx, userID)
}

// ListPendingRequests returns the user's open requests enriched with the
// other party's profile. An identity lookup failure degrades that entry to a
// placeholder profile; it never drops the request.
func (s *Service) ListPendingRequests(ctx context.Context, userID uuid.UUID) (*PendingRequests, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	incoming, outgoing, err := s.store.ListPendingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &PendingRequests{
		Incoming: make([]PendingRequestView, 0, len(incoming)),
		Outgoing: make([]PendingRequestView, 0, len(outgoing)),
	}
	for _, req := range incoming {
		out.Incoming = append(out.Incoming, s.enrich(ctx, req, req.FromUserID))
	}
	for _, req := range outgoing {
		out.Outgoing = append(out.Outgoing, s.enrich(ctx, req, req.ToUserID))
	}
	return out, nil
}

// Remove deletes the edge between two connected users, both directions in
// one transaction.
func (s *Service) Remove(ctx context.Context, userID, peerID uuid.UUID) error {
	if userID == uuid.Nil || peerID == uuid.Nil || userID == peerID {
		return ErrValidation
	}
	return s.store.RemoveConnection(ctx, userID, peerID)
}

func (s *Service) enrich(ctx context.Context, req models.ConnectionRequest, peerID uuid.UUID) PendingRequestView {
	profile, err := s.identity.GetUser(ctx, peerID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": req.ID,
			"user_id":    peerID,
			"error":      err,
		}).Warn("identity lookup failed, using placeholder")
		profile = PlaceholderProfile(peerID)
	}
	return PendingRequestView{
		ID:         req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
		Peer:       profile,
	}
}

// dispatch sends a notification without blocking the caller's response. The
// related user's name is resolved inside the detached context so a slow
// identity lookup cannot delay the operation either. Failures are logged and
// swallowed; retry policy belongs to the notifier backend, not here.
func (s *Service) dispatch(userID uuid.UUID, kind string, relatedUserID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
		defer cancel()

		name := PlaceholderProfile(relatedUserID).Name
		if profile, err := s.identity.GetUser(ctx, relatedUserID); err == nil {
			name = profile.Name
		}

		ev := notify.Event{
			Kind:            kind,
			RelatedUserID:   relatedUserID,
			RelatedUserName: name,
		}
		if err := s.notifier.Notify(ctx, userID, ev); err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id": userID,
				"kind":    kind,
				"error":   err,
			}).Warn("notification dispatch failed")
		}
	}()
}

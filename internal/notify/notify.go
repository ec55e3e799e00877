// internal/notify/notify.go
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event kinds emitted by the connection service.
const (
	KindConnectionRequest  = "connection_request"
	KindConnectionAccepted = "connection_accepted"
)

// Event describes something that happened to a user's social graph, addressed
// to the user it should be shown to.
type Event struct {
	Kind            string    `json:"kind"`
	RelatedUserID   uuid.UUID `json:"related_user_id"`
	RelatedUserName string    `json:"related_user_name"`
}

// Notifier delivers events best-effort. Callers treat delivery as
// fire-and-forget: a returned error is logged by the caller and never
// surfaced to the user or retried.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ev Event) error
}

// LogNotifier is the fallback Notifier used when no queue backend is
// configured. It just records the event in the service log.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, ev Event) error {
	n.Logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"kind":         ev.Kind,
		"related_user": ev.RelatedUserID,
	}).Info("notification (log only)")
	return nil
}

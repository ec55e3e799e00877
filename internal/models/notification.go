// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a delivered notification row, written by the notifier
// worker after it pops an event off the queue.
type Notification struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Kind            string    `json:"kind"`
	RelatedUserID   uuid.UUID `json:"related_user_id"`
	RelatedUserName string    `json:"related_user_name"`
	Read            bool      `json:"read"`
	CreatedAt       time.Time `json:"created_at"`
}

// internal/models/user.go
package models

import "github.com/google/uuid"

// UserProfile is the read-only display projection of a user, owned by the
// identity platform. This service never writes user records.
type UserProfile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
}

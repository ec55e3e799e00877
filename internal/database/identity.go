// internal/database/identity.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/campuslink/internal/connections"
	"github.com/campuslink/campuslink/internal/models"
)

// Identity reads display profiles from the users table. The table is owned
// by the identity platform; this service only selects from it.
type Identity struct {
	pool *pgxpool.Pool
}

func NewIdentity(pool *pgxpool.Pool) *Identity {
	return &Identity{pool: pool}
}

// GetUser resolves a user id to display attributes. An unknown id yields the
// placeholder profile rather than an error, so display paths always have
// something to render.
func (i *Identity) GetUser(ctx context.Context, id uuid.UUID) (models.UserProfile, error) {
	var p models.UserProfile
	q := `
		SELECT id, name, role, COALESCE(department, '')
		FROM users
		WHERE id=$1
	`
	err := i.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Role, &p.Department)
	if errors.Is(err, pgx.ErrNoRows) {
		return connections.PlaceholderProfile(id), nil
	}
	if err != nil {
		return connections.PlaceholderProfile(id), fmt.Errorf("failed to load user profile: %w", err)
	}
	return p, nil
}

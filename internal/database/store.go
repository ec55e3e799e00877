// internal/database/store.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/campuslink/internal/connections"
	"github.com/campuslink/campuslink/internal/models"
)

// Store is the Postgres-backed connections.Store. The schema (schema.sql)
// carries the two mechanisms the contract requires: a partial unique index
// on connection_requests(pair_key) WHERE status='pending', and the
// (user_id, peer_id) primary key on connections that makes edge writes
// idempotent.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateRequest(ctx context.Context, req *models.ConnectionRequest) error {
	q := `
		INSERT INTO connection_requests
			(id, from_user_id, to_user_id, pair_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $5)
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			req.ID, req.FromUserID, req.ToUserID,
			connections.PairKey(req.FromUserID, req.ToUserID),
			req.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		// Losing the insert race against a concurrent send surfaces the same
		// way as the advisory pre-check.
		if isUniqueViolation(err) {
			return connections.ErrDuplicateRequest
		}
		return fmt.Errorf("failed to insert connection request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	q := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE id=$1
	`
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&req.ID, &req.FromUserID, &req.ToUserID,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, connections.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection request: %w", err)
	}
	return &req, nil
}

func (s *Store) HasPendingRequest(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	q := `
		SELECT EXISTS (
			SELECT 1 FROM connection_requests
			WHERE pair_key=$1 AND status='pending'
		)
	`
	err := s.pool.QueryRow(ctx, q, connections.PairKey(a, b)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return exists, nil
}

func (s *Store) AreConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM connections WHERE user_id=$1 AND peer_id=$2)`
	err := s.pool.QueryRow(ctx, q, a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}
	return exists, nil
}

// AcceptRequest performs the status CAS and both edge inserts in one
// transaction. The conditional UPDATE is the race arbiter: exactly one of
// any concurrent accept/reject pair sees RowsAffected()==1.
func (s *Store) AcceptRequest(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var fromID, toID uuid.UUID
		q := `
			UPDATE connection_requests
			SET status='accepted', updated_at=NOW()
			WHERE id=$1 AND status='pending'
			RETURNING from_user_id, to_user_id
		`
		err := tx.QueryRow(ctx, q, id).Scan(&fromID, &toID)
		if errors.Is(err, pgx.ErrNoRows) {
			return s.casLossError(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to accept connection request: %w", err)
		}

		eq := `
			INSERT INTO connections (user_id, peer_id, created_at)
			VALUES ($1, $2, NOW()), ($2, $1, NOW())
			ON CONFLICT (user_id, peer_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, eq, fromID, toID); err != nil {
			return fmt.Errorf("failed to write connection edges: %w", err)
		}
		return nil
	})
}

func (s *Store) RejectRequest(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE connection_requests
			SET status='rejected', updated_at=NOW()
			WHERE id=$1 AND status='pending'
		`
		ct, err := tx.Exec(ctx, q, id)
		if err != nil {
			return fmt.Errorf("failed to reject connection request: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return s.casLossError(ctx, tx, id)
		}
		return nil
	})
}

func (s *Store) RemoveConnection(ctx context.Context, userID, peerID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			DELETE FROM connections
			WHERE (user_id=$1 AND peer_id=$2)
			   OR (user_id=$2 AND peer_id=$1)
		`
		ct, err := tx.Exec(ctx, q, userID, peerID)
		if err != nil {
			return fmt.Errorf("failed to remove connection: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return connections.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	q := `
		SELECT user_id, peer_id, created_at
		FROM connections
		WHERE user_id=$1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var cs []models.Connection
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(&c.UserID, &c.PeerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func (s *Store) ListPendingRequests(ctx context.Context, userID uuid.UUID) (incoming, outgoing []models.ConnectionRequest, err error) {
	q := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE (from_user_id=$1 OR to_user_id=$1) AND status='pending'
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var req models.ConnectionRequest
		if err := rows.Scan(
			&req.ID, &req.FromUserID, &req.ToUserID,
			&req.Status, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, nil, err
		}
		if req.ToUserID == userID {
			incoming = append(incoming, req)
		} else {
			outgoing = append(outgoing, req)
		}
	}
	return incoming, outgoing, rows.Err()
}

// casLossError distinguishes a missing request from one that already left
// pending, after a conditional update matched no rows.
func (s *Store) casLossError(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM connection_requests WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return connections.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load request status: %w", err)
	}
	return connections.ErrInvalidState
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

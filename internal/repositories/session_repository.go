package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/db"
)

// PostgresSessionStore keeps refresh sessions in the sessions table. It backs
// the default "postgres" session backend.
type PostgresSessionStore struct {
	pool db.Pool
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save records a freshly issued refresh token. Re-saving a token moves it to
// the new owner and expiry; an unknown account yields ErrNotFound.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	_, err := s.exec(ctx, "save session", `
        INSERT INTO sessions (refresh_token, user_id, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (refresh_token) DO UPDATE
        SET (user_id, expires_at) = (EXCLUDED.user_id, EXCLUDED.expires_at)
    `, session.RefreshToken, session.UserID, session.ExpiresAt.UTC())
	return err
}

// Find loads a session by refresh token, expired or not.
func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	session := auth.Session{RefreshToken: refreshToken}
	err = conn.QueryRow(ctx, `SELECT user_id, expires_at FROM sessions WHERE refresh_token = $1`, refreshToken).
		Scan(&session.UserID, &session.ExpiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return auth.Session{}, auth.ErrSessionNotFound
	case err != nil:
		return auth.Session{}, fmt.Errorf("find session: %w", err)
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Delete removes one refresh token. Deleting a token that is already gone
// reports auth.ErrSessionNotFound, which is how concurrent rotations lose.
func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	tag, err := s.exec(ctx, "delete session", `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// DeleteByUser revokes every session belonging to userID.
func (s *PostgresSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.exec(ctx, "delete account sessions", `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresSessionStore) exec(ctx context.Context, op, query string, args ...any) (pgconn.CommandTag, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return pgconn.CommandTag{}, writeError(op, err)
	}
	return tag, nil
}

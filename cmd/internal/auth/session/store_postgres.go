package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (sessions table).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
// The pool is owned by the caller.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const rowColumns = `
	id, user_id, session_id, token_hash, refresh_token_hash,
	expires_at, last_activity, created_at,
	ip_address, user_agent, is_active, revoked_at`

// Create inserts a new session row storing token digests only.
func (s *PostgresStore) Create(
	ctx context.Context,
	now time.Time,
	userID int64,
	sessionID string,
	accessHash string,
	refreshHash *string,
	ttl time.Duration,
	meta Metadata,
) (Row, error) {
	var row Row

	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (
			user_id, session_id, token_hash, refresh_token_hash,
			expires_at, last_activity, created_at,
			ip_address, user_agent, is_active, revoked_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $6,
			$7, $8, TRUE, NULL
		)
		RETURNING `+rowColumns,
		userID, sessionID, accessHash, refreshHash,
		now.Add(ttl), now,
		nullIfEmpty(meta.IP), nullIfEmpty(meta.UserAgent),
	).Scan(rowFields(&row)...)
	if err != nil {
		return Row{}, err
	}

	return row, nil
}

// FindActive returns a usable session matching all three keys.
func (s *PostgresStore) FindActive(ctx context.Context, now time.Time, sessionID, accessHash string, userID int64) (Row, error) {
	var row Row

	err := s.pool.QueryRow(ctx, `
		SELECT `+rowColumns+`
		FROM sessions
		WHERE session_id = $1
		  AND token_hash = $2
		  AND user_id = $3
		  AND is_active
		  AND revoked_at IS NULL
		  AND expires_at > $4
	`, sessionID, accessHash, userID, now).Scan(rowFields(&row)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}

	return row, nil
}

// Touch updates last_activity for a usable session. The usability guard in
// the WHERE clause keeps revocation dominant under concurrent requests.
func (s *PostgresStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET last_activity = $2
		WHERE session_id = $1
		  AND is_active
		  AND revoked_at IS NULL
	`, sessionID, now)
	return err
}

// Revoke revokes a single session (idempotent).
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET is_active = FALSE,
		    revoked_at = COALESCE(revoked_at, $2)
		WHERE session_id = $1
	`, sessionID, now)
	return err
}

// RevokeAllForUser revokes all active sessions for a user except the
// optionally excluded one (idempotent).
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, now time.Time, userID int64, exceptSessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET is_active = FALSE,
		    revoked_at = COALESCE(revoked_at, $2)
		WHERE user_id = $1
		  AND is_active
		  AND ($3 = '' OR session_id <> $3)
	`, userID, now, exceptSessionID)
	return err
}

// ReplaceAccessHash swaps the access-token digest for a usable session
// whose refresh digest matches. Zero rows updated means the session is
// unknown, revoked, expired, or the refresh hash does not match.
func (s *PostgresStore) ReplaceAccessHash(ctx context.Context, now time.Time, sessionID string, refreshHash, newAccessHash string, userID int64) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET token_hash = $4,
		    last_activity = $2
		WHERE session_id = $1
		  AND user_id = $5
		  AND refresh_token_hash = $3
		  AND is_active
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`, sessionID, now, refreshHash, newAccessHash, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func rowFields(r *Row) []any {
	return []any{
		&r.ID,
		&r.UserID,
		&r.SessionID,
		&r.TokenHash,
		&r.RefreshTokenHash,
		&r.ExpiresAt,
		&r.LastActivity,
		&r.CreatedAt,
		&r.IPAddress,
		&r.UserAgent,
		&r.IsActive,
		&r.RevokedAt,
	}
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

package session

import (
	"context"
	"time"
)

// Metadata carries best-effort client context captured at login.
type Metadata struct {
	IP        string
	UserAgent string
}

// Row mirrors the sessions table.
//
// A row is usable iff IsActive, RevokedAt is unset, and now is before
// ExpiresAt; the inactivity window on LastActivity is enforced by the
// service, not the store query.
type Row struct {
	ID               int64
	UserID           int64
	SessionID        string
	TokenHash        string
	RefreshTokenHash *string
	ExpiresAt        time.Time
	LastActivity     time.Time
	CreatedAt        time.Time
	IPAddress        *string
	UserAgent        *string
	IsActive         bool
	RevokedAt        *time.Time
}

// Store abstracts persistence for session state.
//
// Implementations must keep revocation dominant: Touch and
// ReplaceAccessHash only match rows that are still usable, so a
// concurrent revoke can never be undone.
type Store interface {
	// Create inserts a new session row storing token digests only.
	// expires_at = now + ttl; last_activity = now.
	Create(
		ctx context.Context,
		now time.Time,
		userID int64,
		sessionID string,
		accessHash string,
		refreshHash *string,
		ttl time.Duration,
		meta Metadata,
	) (Row, error)

	// FindActive returns the session only if session id, access-token hash
	// and user id all match AND the row is usable. The four-way match
	// prevents token/session confusion and replay of a stale hash after
	// rotation.
	FindActive(ctx context.Context, now time.Time, sessionID, accessHash string, userID int64) (Row, error)

	// Touch updates last_activity; idempotent; no-op on revoked rows.
	Touch(ctx context.Context, now time.Time, sessionID string) error

	// Revoke sets is_active=false and revoked_at (idempotent; an already
	// revoked session stays revoked with its original timestamp).
	Revoke(ctx context.Context, now time.Time, sessionID string) error

	// RevokeAllForUser revokes every active session of the user except the
	// optionally excluded one ("log out everywhere but here").
	RevokeAllForUser(ctx context.Context, now time.Time, userID int64, exceptSessionID string) error

	// ReplaceAccessHash swaps the access-token digest when the presented
	// refresh digest matches a usable row, refreshing last_activity. The
	// previous access token stops matching immediately.
	ReplaceAccessHash(ctx context.Context, now time.Time, sessionID string, refreshHash, newAccessHash string, userID int64) error
}

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roadready/cmd/identity"
	"roadready/cmd/security/token"
)

// UserResolver is the slice of the identity store the guard needs.
type UserResolver interface {
	GetUserByID(ctx context.Context, id int64) (identity.User, error)
}

// Service implements the high-level session operations for RoadReady:
// issuing token pairs, the per-request authentication guard, access-token
// rotation, and per-session/per-user revocation.
type Service struct {
	cfg   Config
	codec TokenCodec
	store Store
	users UserResolver
	log   *slog.Logger
}

// Issued is the result of issuing a session.
// Plaintext tokens are returned to the client exactly once; only their
// digests persist.
type Issued struct {
	SessionID    string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service with the provided configuration, store,
// codec, and user resolver.
func NewService(cfg Config, store Store, codec TokenCodec, users UserResolver, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, store: store, codec: codec, users: users, log: log}
}

// IssueSession creates a new session row and returns a fresh token pair.
//
// The session identifier is generated first so both tokens can embed it;
// the store then persists the digests of both tokens under that id.
func (s *Service) IssueSession(ctx context.Context, now time.Time, userID int64, meta Metadata) (Issued, error) {
	sessionID, err := NewSessionID(s.cfg.SessionIDBytes)
	if err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.codec.Issue(userID, sessionID, KindAccess, now)
	if err != nil {
		return Issued{}, err
	}
	refreshToken, refreshExp, err := s.codec.Issue(userID, sessionID, KindRefresh, now)
	if err != nil {
		return Issued{}, err
	}

	refreshHash := token.HashSHA256Hex(refreshToken)
	_, err = s.store.Create(ctx, now, userID, sessionID,
		token.HashSHA256Hex(accessToken), &refreshHash,
		s.cfg.RefreshTokenTTL, meta)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
	}, nil
}

// Authenticate resolves and validates the user behind a bearer token.
//
// Every failure collapses to an unauthenticated outcome for the caller;
// the internal cause is logged for telemetry. Inactivity is an active
// side effect: an idle session is revoked the first time it is presented
// and the distinct ErrSessionExpired is returned so clients can prompt a
// re-login.
func (s *Service) Authenticate(ctx context.Context, now time.Time, bearer string) (identity.User, error) {
	u, _, err := s.AuthenticateSession(ctx, now, bearer)
	return u, err
}

// AuthenticateSession is Authenticate plus the backing session id, for
// callers that act on the session itself (logout, logout-everywhere).
func (s *Service) AuthenticateSession(ctx context.Context, now time.Time, bearer string) (identity.User, string, error) {
	claims, err := s.codec.Decode(bearer, now)
	if err != nil {
		s.logDenied(ctx, "token_invalid", err)
		return identity.User{}, "", err
	}

	// A refresh token is never a valid bearer credential.
	if claims.Kind != KindAccess {
		s.logDenied(ctx, "wrong_token_kind", ErrInvalidToken)
		return identity.User{}, "", ErrInvalidToken
	}

	row, err := s.store.FindActive(ctx, now, claims.SessionID, token.HashSHA256Hex(bearer), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logDenied(ctx, "session_not_found", err)
		}
		return identity.User{}, "", err
	}

	if now.Sub(row.LastActivity) > s.cfg.InactivityLimit {
		if err := s.store.Revoke(ctx, now, row.SessionID); err != nil {
			return identity.User{}, "", err
		}
		s.logDenied(ctx, "inactivity_revoked", ErrSessionExpired)
		return identity.User{}, "", ErrSessionExpired
	}

	if err := s.store.Touch(ctx, now, row.SessionID); err != nil {
		return identity.User{}, "", err
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			s.logDenied(ctx, "user_missing", ErrUserInactive)
			return identity.User{}, "", ErrUserInactive
		}
		return identity.User{}, "", err
	}
	if !u.IsActive {
		s.logDenied(ctx, "user_deactivated", ErrUserInactive)
		return identity.User{}, "", ErrUserInactive
	}

	return u, row.SessionID, nil
}

// Refresh mints a new access token off a refresh token, replacing the
// stored access digest in place. The old access token stops matching
// immediately; the refresh token itself is untouched.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (accessToken string, exp time.Time, err error) {
	claims, err := s.codec.Decode(refreshToken, now)
	if err != nil {
		s.logDenied(ctx, "refresh_token_invalid", err)
		return "", time.Time{}, err
	}
	if claims.Kind != KindRefresh {
		s.logDenied(ctx, "wrong_token_kind", ErrInvalidToken)
		return "", time.Time{}, ErrInvalidToken
	}

	accessToken, exp, err = s.codec.Issue(claims.UserID, claims.SessionID, KindAccess, now)
	if err != nil {
		return "", time.Time{}, err
	}

	err = s.store.ReplaceAccessHash(ctx, now, claims.SessionID,
		token.HashSHA256Hex(refreshToken), token.HashSHA256Hex(accessToken), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logDenied(ctx, "refresh_session_not_found", err)
		}
		return "", time.Time{}, err
	}

	return accessToken, exp, nil
}

// Revoke revokes a single session by id (e.g. logout from a device).
func (s *Service) Revoke(ctx context.Context, now time.Time, sessionID string) error {
	return s.store.Revoke(ctx, now, sessionID)
}

// RevokeAll revokes all sessions for a user, optionally keeping one
// ("log out everywhere but here").
func (s *Service) RevokeAll(ctx context.Context, now time.Time, userID int64, exceptSessionID string) error {
	return s.store.RevokeAllForUser(ctx, now, userID, exceptSessionID)
}

func (s *Service) logDenied(ctx context.Context, cause string, err error) {
	s.log.InfoContext(ctx, "auth.denied", "cause", cause, "err", err)
}

package session

import "errors"

var (
	// ErrInvalidToken is returned when a token fails signature verification,
	// is malformed, or carries the wrong kind.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a token's embedded expiry has passed.
	// It is a sub-case of invalid-token kept distinct for telemetry.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound is returned when no usable session matches the
	// presented credentials (unknown, revoked, rotated, or hash mismatch).
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session is revoked for exceeding
	// the inactivity limit. Surfaced distinctly to prompt re-login.
	ErrSessionExpired = errors.New("session expired")

	// ErrUserInactive is returned when the session's owner is missing or
	// deactivated. A session must not outlive its user's access.
	ErrUserInactive = errors.New("user inactive")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

package identity

import (
	"context"
	"time"
)

// User is RoadReady's canonical security principal.
//
// Invariant: after creation a user carries a password hash or an OAuth
// linkage (or both), never neither. Users are deactivated via IsActive,
// not deleted.
type User struct {
	ID    int64
	Email string

	FirstName *string
	LastName  *string

	// Authentication. PasswordHash is the bcrypt digest; never expose it
	// outside the auth boundary.
	PasswordHash    *string
	OAuthProvider   *string
	OAuthProviderID *string

	// Profile.
	State    *string // two-letter US state code
	TestType *string // e.g. "car", "motorcycle", "cdl"

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a password signup.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Now          time.Time
}

// CreateOAuthUserInput describes a first-time OAuth login.
// State and TestType are onboarding defaults supplied by configuration.
type CreateOAuthUserInput struct {
	Email      string
	Provider   string
	ProviderID string
	State      string
	TestType   string
	Now        time.Time
}

// ProfileUpdate carries optional profile mutations; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	State     *string
	TestType  *string
}

// Store is the identity persistence boundary.
//
// Implementations map uniqueness violations on email to ConflictError and
// missing rows to NotFoundError, so callers can switch on sentinel kinds.
type Store interface {
	// CreateUser creates a password-backed user. Duplicate email -> ConflictError.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// CreateOAuthUser creates a user from a first-time OAuth login.
	CreateOAuthUser(ctx context.Context, in CreateOAuthUserInput) (User, error)

	// LinkOAuth attaches an OAuth provider to an existing user that has none.
	LinkOAuth(ctx context.Context, userID int64, provider, providerID string, now time.Time) (User, error)

	GetUserByID(ctx context.Context, id int64) (User, error)

	// GetUserByEmail looks a user up by normalized email.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// UpdateProfile applies non-nil fields and bumps updated_at.
	UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate, now time.Time) (User, error)
}

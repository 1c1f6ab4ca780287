package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Errors are mapped to identity sentinel kinds where appropriate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "public").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "public",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `
	id, email, first_name, last_name,
	hashed_password, oauth_provider, oauth_provider_id,
	state, test_type, is_active, created_at, updated_at`

// CreateUser creates a password-backed user.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, pgInvalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` (
		     email, hashed_password, is_active, created_at, updated_at
		   ) VALUES ($1, $2, TRUE, $3, $3)
		 RETURNING `+userColumns,
		email, in.PasswordHash, now,
	).Scan(userFields(&u)...)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return u, nil
}

// CreateOAuthUser creates a user from a first-time OAuth login.
// State and TestType are onboarding defaults supplied by the caller's config.
func (s *PostgresStore) CreateOAuthUser(ctx context.Context, in CreateOAuthUserInput) (User, error) {
	const op = "identity.CreateOAuthUser"

	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	provider := strings.TrimSpace(in.Provider)
	providerID := strings.TrimSpace(in.ProviderID)
	if provider == "" || providerID == "" {
		return User{}, pgInvalid(op, "provider and provider id are required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` (
		     email, oauth_provider, oauth_provider_id,
		     state, test_type, is_active, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		 RETURNING `+userColumns,
		email, provider, providerID,
		nullIfEmpty(in.State), nullIfEmpty(in.TestType), now,
	).Scan(userFields(&u)...)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return u, nil
}

// LinkOAuth attaches an OAuth provider to an existing user that has none.
func (s *PostgresStore) LinkOAuth(ctx context.Context, userID int64, provider, providerID string, now time.Time) (User, error) {
	const op = "identity.LinkOAuth"

	provider = strings.TrimSpace(provider)
	providerID = strings.TrimSpace(providerID)
	if provider == "" || providerID == "" {
		return User{}, pgInvalid(op, "provider and provider id are required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`UPDATE `+users+`
		 SET oauth_provider = $2,
		     oauth_provider_id = $3,
		     updated_at = $4
		 WHERE id = $1 AND oauth_provider IS NULL
		 RETURNING `+userColumns,
		userID, provider, providerID, now,
	).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	return u, nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.GetUserByID"

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`,
		id,
	).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	return u, nil
}

// GetUserByEmail loads a user by exact stored email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	email = NormalizeEmail(email)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE email = $1`,
		email,
	).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	return u, nil
}

// UpdateProfile applies non-nil fields and bumps updated_at.
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate, now time.Time) (User, error) {
	const op = "identity.UpdateProfile"

	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`UPDATE `+users+`
		 SET first_name = COALESCE($2, first_name),
		     last_name  = COALESCE($3, last_name),
		     state      = COALESCE($4, state),
		     test_type  = COALESCE($5, test_type),
		     updated_at = $6
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, trimPtr(in.FirstName), trimPtr(in.LastName), trimPtr(in.State), trimPtr(in.TestType), now,
	).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	return u, nil
}

// ListUsers returns all users ordered by id. Used by the seed CLI only.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	users := pgIdent(s.schema, "users")

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM `+users+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(userFields(&u)...); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteAllUsers removes every user row. Dev seeding only; production flows
// never hard-delete users.
func (s *PostgresStore) DeleteAllUsers(ctx context.Context) error {
	users := pgIdent(s.schema, "users")
	_, err := s.pool.Exec(ctx, `DELETE FROM `+users)
	return err
}

// ---- helpers ----

func userFields(u *User) []any {
	return []any{
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.OAuthProvider,
		&u.OAuthProviderID,
		&u.State,
		&u.TestType,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case strings.Contains(c, "email"):
		return "email", true
	case strings.Contains(c, "session"):
		return "session_id", true
	default:
		return "unique", true
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are enabled when ROADREADY_DATABASE_URL is set.

func mustPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("ROADREADY_DATABASE_URL")
	if dbURL == "" {
		t.Skip("ROADREADY_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	return pool
}

func mustCreateTestUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO users (email, hashed_password, is_active, created_at, updated_at)
		VALUES ($1, 'x', TRUE, now(), now())
		RETURNING id
	`, email).Scan(&id)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestPostgresStore_CreateFindRevoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool, "session-it-1@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	sid, err := NewSessionID(32)
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}

	refreshHash := "refresh-hash"
	row, err := store.Create(ctx, now, userID, sid, "access-hash", &refreshHash, time.Hour,
		Metadata{IP: "192.0.2.1", UserAgent: "it/1.0"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !row.IsActive || row.RevokedAt != nil {
		t.Fatalf("expected fresh session to be active")
	}

	found, err := store.FindActive(ctx, now, sid, "access-hash", userID)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if found.ID != row.ID {
		t.Fatalf("FindActive returned wrong row")
	}

	// Hash mismatch: session id alone is not enough.
	if _, err := store.FindActive(ctx, now, sid, "other-hash", userID); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on hash mismatch, got %v", err)
	}

	if err := store.Revoke(ctx, now, sid); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := store.FindActive(ctx, now, sid, "access-hash", userID); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after revoke, got %v", err)
	}

	// Touch after revoke must not resurrect the row.
	if err := store.Touch(ctx, now.Add(time.Minute), sid); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if _, err := store.FindActive(ctx, now.Add(time.Minute), sid, "access-hash", userID); err != ErrSessionNotFound {
		t.Fatalf("expected revoked session to stay revoked, got %v", err)
	}
}

func TestPostgresStore_ReplaceAccessHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool, "session-it-2@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	sid, err := NewSessionID(32)
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}

	refreshHash := "refresh-hash-2"
	if _, err := store.Create(ctx, now, userID, sid, "old-access", &refreshHash, time.Hour, Metadata{}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.ReplaceAccessHash(ctx, now.Add(time.Minute), sid, refreshHash, "new-access", userID); err != nil {
		t.Fatalf("ReplaceAccessHash: %v", err)
	}

	if _, err := store.FindActive(ctx, now.Add(time.Minute), sid, "new-access", userID); err != nil {
		t.Fatalf("FindActive with new hash: %v", err)
	}
	if _, err := store.FindActive(ctx, now.Add(time.Minute), sid, "old-access", userID); err != ErrSessionNotFound {
		t.Fatalf("expected stale access hash to stop matching, got %v", err)
	}

	// Wrong refresh hash never rotates.
	if err := store.ReplaceAccessHash(ctx, now.Add(time.Minute), sid, "bogus", "evil", userID); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for refresh mismatch, got %v", err)
	}
}

func TestPostgresStore_RevokeAllForUserExcept(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool, "session-it-3@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)

	var sids []string
	for i := 0; i < 3; i++ {
		sid, err := NewSessionID(32)
		if err != nil {
			t.Fatalf("NewSessionID: %v", err)
		}
		if _, err := store.Create(ctx, now, userID, sid, "hash-"+sid, nil, time.Hour, Metadata{}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		sids = append(sids, sid)
	}

	keep := sids[1]
	if err := store.RevokeAllForUser(ctx, now, userID, keep); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	for _, sid := range sids {
		_, err := store.FindActive(ctx, now, sid, "hash-"+sid, userID)
		if sid == keep {
			if err != nil {
				t.Fatalf("expected excluded session to stay findable, got %v", err)
			}
			continue
		}
		if err != ErrSessionNotFound {
			t.Fatalf("expected session %s revoked, got %v", sid, err)
		}
	}
}

package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testCodecConfig() Config {
	cfg := DefaultConfig()
	cfg.SigningSecret = strings.Repeat("k", 32)
	return cfg
}

func TestHS256_IssueAndDecode(t *testing.T) {
	codec, err := NewHS256Codec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := codec.Issue(42, "sess-abc", KindAccess, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := codec.Decode(tok, now.Add(time.Second))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
	if claims.SessionID != "sess-abc" {
		t.Fatalf("SessionID = %q, want sess-abc", claims.SessionID)
	}
	if claims.Kind != KindAccess {
		t.Fatalf("Kind = %q, want access", claims.Kind)
	}
}

func TestHS256_DecodeFailsAfterTTL(t *testing.T) {
	cfg := testCodecConfig()
	cfg.AccessTokenTTL = time.Minute

	codec, err := NewHS256Codec(cfg)
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := codec.Issue(1, "sess", KindAccess, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codec.Decode(tok, now.Add(30*time.Second)); err != nil {
		t.Fatalf("expected valid before TTL, got %v", err)
	}
	if _, err := codec.Decode(tok, now.Add(2*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestHS256_DecodeRejectsTampering(t *testing.T) {
	codec, err := NewHS256Codec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := codec.Issue(7, "sess", KindAccess, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if _, err := codec.Decode(tampered, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	if _, err := codec.Decode("not-a-token", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestHS256_DecodeRejectsForeignSignature(t *testing.T) {
	codecA, err := NewHS256Codec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	cfgB := testCodecConfig()
	cfgB.SigningSecret = strings.Repeat("z", 32)
	codecB, err := NewHS256Codec(cfgB)
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := codecA.Issue(7, "sess", KindAccess, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codecB.Decode(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestHS256_RefreshKindRoundTrips(t *testing.T) {
	codec, err := NewHS256Codec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := codec.Issue(7, "sess", KindRefresh, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got, want := exp, now.Add(DefaultConfig().RefreshTokenTTL); !got.Equal(want) {
		t.Fatalf("refresh exp = %v, want %v", got, want)
	}

	claims, err := codec.Decode(tok, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Kind != KindRefresh {
		t.Fatalf("Kind = %q, want refresh", claims.Kind)
	}
}

func TestHS256_IssueRejectsBadInput(t *testing.T) {
	codec, err := NewHS256Codec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewHS256Codec: %v", err)
	}

	now := time.Now().UTC()
	if _, _, err := codec.Issue(0, "sess", KindAccess, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for zero user id, got %v", err)
	}
	if _, _, err := codec.Issue(1, "", KindAccess, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty session id, got %v", err)
	}
	if _, _, err := codec.Issue(1, "sess", Kind("other"), now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown kind, got %v", err)
	}
}

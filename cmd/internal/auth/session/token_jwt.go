package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two halves of a token pair.
type Kind string

const (
	// KindAccess is a short-lived bearer credential.
	KindAccess Kind = "access"
	// KindRefresh is the longer-lived token used only to mint new access tokens.
	KindRefresh Kind = "refresh"
)

// Claims is the verified content of a decoded token.
type Claims struct {
	UserID    int64
	SessionID string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
}

// TokenCodec issues and verifies signed, expiring bearer tokens.
//
// Decode never trusts claims it cannot verify and enforces the embedded
// expiry itself; callers pass `now` explicitly so the clock stays
// injectable.
type TokenCodec interface {
	Issue(userID int64, sessionID string, kind Kind, now time.Time) (token string, exp time.Time, err error)
	Decode(token string, now time.Time) (Claims, error)
}

type jwtClaims struct {
	SessionID string `json:"sid"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

type hs256Codec struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	secret     []byte
}

// NewHS256Codec builds a TokenCodec signing with HMAC-SHA256.
//
// The secret comes from configuration, is held for the process lifetime,
// and is never logged.
func NewHS256Codec(cfg Config) (TokenCodec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &hs256Codec{
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		secret:     []byte(cfg.SigningSecret),
	}, nil
}

func (c *hs256Codec) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *hs256Codec) Issue(userID int64, sessionID string, kind Kind, now time.Time) (string, time.Time, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", time.Time{}, ErrInvalidToken
	}
	if sessionID == "" || userID <= 0 {
		return "", time.Time{}, ErrInvalidToken
	}

	exp := now.Add(c.ttl(kind))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		SessionID: sessionID,
		Kind:      string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *hs256Codec) Decode(token string, now time.Time) (Claims, error) {
	var claims jwtClaims

	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	if claims.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}

	kind := Kind(claims.Kind)
	if kind != KindAccess && kind != KindRefresh {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID:    userID,
		SessionID: claims.SessionID,
		Kind:      kind,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

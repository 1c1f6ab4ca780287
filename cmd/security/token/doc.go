// Package token provides token hashing primitives for RoadReady.
//
// Issued bearer tokens are never persisted in plaintext; only their
// SHA-256 hex digests are stored, so a leaked database does not yield
// usable credentials. The digest is stable 64-char hex, suitable for
// indexed equality lookups.
package token

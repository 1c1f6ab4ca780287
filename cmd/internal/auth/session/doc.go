// Package session implements RoadReady's session and token lifecycle.
//
// A login creates one session row holding SHA-256 digests of the paired
// access and refresh tokens; plaintext tokens are never persisted. Access
// tokens are short-lived signed JWTs (HS256). Sessions expire absolutely
// at expires_at and lazily on inactivity: the authentication guard revokes
// an idle session the first time it is presented, never via a background
// sweeper.
//
// Revocation is soft (is_active=false, revoked_at set) and dominant under
// races: a concurrent touch can never resurrect a revoked session.
package session

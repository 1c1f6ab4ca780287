// Package identity implements RoadReady's user identity foundation.
//
// It contains the User model, normalization rules, sentinel error kinds,
// and the persistence boundary used by the HTTP layer.
//
// This package is intentionally dependency-light and security-first.
package identity

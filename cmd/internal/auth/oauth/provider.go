// Package oauth implements the external-provider login capability.
//
// The rest of the system treats a provider as a black box that exchanges
// an authorization code for a verified identity (email + provider-scoped
// user id). Handshake mechanics beyond that are the provider's problem.
package oauth

import (
	"context"
	"errors"
	"fmt"
)

// ErrOAuth wraps any provider-side failure. Callers never see provider
// internals, only this kind.
var ErrOAuth = errors.New("oauth failure")

// ErrUnknownProvider is returned for provider names we do not support.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// Identity is the verified output of a completed OAuth exchange.
type Identity struct {
	Email      string
	ProviderID string
}

// Provider exchanges an authorization code for an Identity.
type Provider interface {
	Name() string

	// AuthURL returns the provider's authorization redirect URL carrying
	// the opaque anti-CSRF state.
	AuthURL(state string) string

	// Exchange trades an authorization code for the user's identity.
	// Failures wrap ErrOAuth.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Registry holds the configured providers keyed by name.
type Registry map[string]Provider

// NewRegistry builds the provider set from config. Providers with missing
// credentials are left out rather than half-configured.
func NewRegistry(cfg Config) Registry {
	reg := make(Registry)
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		reg["google"] = NewGoogleProvider(cfg)
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		reg["facebook"] = NewFacebookProvider(cfg)
	}
	return reg
}

// Lookup returns the named provider or ErrUnknownProvider.
func (r Registry) Lookup(name string) (Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

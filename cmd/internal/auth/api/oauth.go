package authapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"roadready/cmd/identity"
	"roadready/cmd/internal/auth/session"
)

const stateCookieName = "rr_oauth_state"

// handleOAuthLogin redirects the browser to the provider's consent page,
// pinning the anti-CSRF state in a short-lived cookie.
func (h *Handler) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Lookup(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", "unsupported oauth provider")
		return
	}

	state, err := session.NewSessionID(16)
	if err != nil {
		h.log.Error("auth.oauth.state.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/v1/auth",
		MaxAge:   int(h.cfg.StateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthURL(state), http.StatusFound)
}

// handleOAuthCallback completes the code exchange and logs the user in,
// creating or linking the account on first contact.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")
	p, err := h.providers.Lookup(providerName)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", "unsupported oauth provider")
		return
	}

	state := strings.TrimSpace(r.URL.Query().Get("state"))
	cookie, cookieErr := r.Cookie(stateCookieName)
	if state == "" || cookieErr != nil || cookie.Value != state {
		writeError(w, http.StatusBadRequest, "invalid_state", "oauth state mismatch")
		return
	}
	clearStateCookie(w, h.cfg.SecureCookies)

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	ident, err := p.Exchange(ctx, code)
	if err != nil {
		h.log.Info("auth.oauth.exchange.fail", "provider", providerName, "err", err)
		writeError(w, http.StatusUnauthorized, "oauth_failed", "oauth exchange failed")
		return
	}

	u, err := h.findOrCreateOAuthUser(ctx, now, providerName, ident.Email, ident.ProviderID)
	if err != nil {
		if identity.IsConflict(err) {
			writeError(w, http.StatusConflict, "provider_mismatch", "account is linked to a different provider")
			return
		}
		h.log.Error("auth.oauth.user.fail", "provider", providerName, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if !u.IsActive {
		h.log.Info("auth.oauth.failed", "cause", "user_deactivated", "user_id", u.ID)
		writeError(w, http.StatusUnauthorized, "unauthorized", "account is deactivated")
		return
	}

	issued, err := h.sessions.IssueSession(ctx, now, u.ID, h.requestMetadata(r))
	if err != nil {
		h.log.Error("auth.oauth.issue_session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.log.Info("auth.oauth.ok", "provider", providerName, "user_id", u.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(u),
		Session: toSessionResponse(issued),
	})
}

// findOrCreateOAuthUser resolves the provider identity to a local account.
// An existing password account with the same email is linked in place; a
// new account gets the configured profile defaults.
func (h *Handler) findOrCreateOAuthUser(ctx context.Context, now time.Time, provider, email, providerID string) (identity.User, error) {
	u, err := h.users.GetUserByEmail(ctx, identity.NormalizeEmail(email))
	if err == nil {
		if u.OAuthProvider == nil {
			return h.users.LinkOAuth(ctx, u.ID, provider, providerID, now)
		}
		if *u.OAuthProvider != provider {
			return identity.User{}, identity.ConflictError{Op: "auth.oauth", Field: "oauth_provider"}
		}
		return u, nil
	}
	if !identity.IsNotFound(err) {
		return identity.User{}, err
	}

	return h.users.CreateOAuthUser(ctx, identity.CreateOAuthUserInput{
		Email:      identity.NormalizeEmail(email),
		Provider:   provider,
		ProviderID: providerID,
		State:      h.oauthCfg.DefaultState,
		TestType:   h.oauthCfg.DefaultTestType,
		Now:        now,
	})
}

func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewRegistry_OnlyConfiguredProviders(t *testing.T) {
	t.Parallel()

	cfg := Config{
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
		GoogleRedirectURL:  "https://app.example.com/cb/google",
	}
	reg := NewRegistry(cfg)

	if _, err := reg.Lookup("google"); err != nil {
		t.Fatalf("expected google to be registered, got %v", err)
	}
	if _, err := reg.Lookup("facebook"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider for facebook, got %v", err)
	}
	if _, err := reg.Lookup("github"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider for github, got %v", err)
	}
}

func TestGoogleProvider_AuthURL(t *testing.T) {
	t.Parallel()

	p := NewGoogleProvider(Config{
		GoogleClientID:    "gid",
		GoogleRedirectURL: "https://app.example.com/cb/google",
	})

	raw := p.AuthURL("state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "gid" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestGoogleProvider_Exchange(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "the-code" {
			t.Errorf("code = %q", r.PostForm.Get("code"))
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		_ = json.NewEncoder(w).Encode(googleTokenResponse{AccessToken: "at-1", TokenType: "Bearer"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(googleUser{ID: "g-42", Email: "driver@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewGoogleProvider(Config{GoogleClientID: "gid", GoogleClientSecret: "gsecret"})
	p.TokenEndpoint = srv.URL + "/token"
	p.UserInfoEndpoint = srv.URL + "/userinfo"
	p.HTTPClient = srv.Client()

	id, err := p.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if id.Email != "driver@example.com" || id.ProviderID != "g-42" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestGoogleProvider_ExchangeFailures(t *testing.T) {
	t.Parallel()

	t.Run("token endpoint error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		p := NewGoogleProvider(Config{})
		p.TokenEndpoint = srv.URL
		p.HTTPClient = srv.Client()

		if _, err := p.Exchange(context.Background(), "bad-code"); !errors.Is(err, ErrOAuth) {
			t.Fatalf("expected ErrOAuth, got %v", err)
		}
	})

	t.Run("userinfo missing email", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(googleTokenResponse{AccessToken: "at"})
		})
		mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(googleUser{ID: "g-1"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		p := NewGoogleProvider(Config{})
		p.TokenEndpoint = srv.URL + "/token"
		p.UserInfoEndpoint = srv.URL + "/userinfo"
		p.HTTPClient = srv.Client()

		if _, err := p.Exchange(context.Background(), "code"); !errors.Is(err, ErrOAuth) {
			t.Fatalf("expected ErrOAuth for missing email, got %v", err)
		}
	})
}

func TestFacebookProvider_Exchange(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(facebookTokenResponse{AccessToken: "fb-at", TokenType: "bearer"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != "id,email" {
			t.Errorf("fields = %q", got)
		}
		_ = json.NewEncoder(w).Encode(facebookUser{ID: "fb-7", Email: "driver@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewFacebookProvider(Config{FacebookClientID: "fid", FacebookClientSecret: "fsecret"})
	p.TokenEndpoint = srv.URL + "/oauth/access_token"
	p.UserInfoEndpoint = srv.URL + "/me"
	p.HTTPClient = srv.Client()

	id, err := p.Exchange(context.Background(), "fb-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if id.Email != "driver@example.com" || id.ProviderID != "fb-7" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

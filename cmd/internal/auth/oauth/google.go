package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleProvider handles Google OAuth.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string

	// Endpoint overrides for tests; zero values use Google's endpoints.
	AuthEndpoint     string
	TokenEndpoint    string
	UserInfoEndpoint string

	HTTPClient *http.Client
}

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// NewGoogleProvider creates a Google OAuth provider from config.
func NewGoogleProvider(cfg Config) *GoogleProvider {
	return &GoogleProvider{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURL:  cfg.GoogleRedirectURL,
	}
}

func (g *GoogleProvider) Name() string { return "google" }

// AuthURL returns the Google authorization URL.
func (g *GoogleProvider) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", g.clientID)
	params.Set("redirect_uri", g.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("state", state)

	return orDefault(g.AuthEndpoint, googleAuthURL) + "?" + params.Encode()
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

// Exchange trades the authorization code for the user's identity.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("redirect_uri", g.redirectURL)
	data.Set("grant_type", "authorization_code")

	var tok googleTokenResponse
	if err := postForm(ctx, g.client(), orDefault(g.TokenEndpoint, googleTokenURL), data, &tok); err != nil {
		return Identity{}, fmt.Errorf("%w: google token exchange: %v", ErrOAuth, err)
	}

	var u googleUser
	if err := getJSON(ctx, g.client(), orDefault(g.UserInfoEndpoint, googleUserInfoURL), tok.AccessToken, &u); err != nil {
		return Identity{}, fmt.Errorf("%w: google userinfo: %v", ErrOAuth, err)
	}
	if u.Email == "" || u.ID == "" {
		return Identity{}, fmt.Errorf("%w: google did not provide email", ErrOAuth)
	}

	return Identity{Email: u.Email, ProviderID: u.ID}, nil
}

func (g *GoogleProvider) client() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}

// ---- shared HTTP helpers ----

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func postForm(ctx context.Context, client *http.Client, endpoint string, data url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

func getJSON(ctx context.Context, client *http.Client, endpoint, bearer string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FacebookProvider handles Facebook OAuth via the Graph API.
type FacebookProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string

	// Endpoint overrides for tests; zero values use Facebook's endpoints.
	AuthEndpoint     string
	TokenEndpoint    string
	UserInfoEndpoint string

	HTTPClient *http.Client
}

const (
	facebookAuthURL     = "https://www.facebook.com/v12.0/dialog/oauth"
	facebookTokenURL    = "https://graph.facebook.com/v12.0/oauth/access_token"
	facebookUserInfoURL = "https://graph.facebook.com/me"
)

// NewFacebookProvider creates a Facebook OAuth provider from config.
func NewFacebookProvider(cfg Config) *FacebookProvider {
	return &FacebookProvider{
		clientID:     cfg.FacebookClientID,
		clientSecret: cfg.FacebookClientSecret,
		redirectURL:  cfg.FacebookRedirectURL,
	}
}

func (f *FacebookProvider) Name() string { return "facebook" }

// AuthURL returns the Facebook authorization URL.
func (f *FacebookProvider) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", f.clientID)
	params.Set("redirect_uri", f.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "email public_profile")
	params.Set("state", state)

	return orDefault(f.AuthEndpoint, facebookAuthURL) + "?" + params.Encode()
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type facebookUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Exchange trades the authorization code for the user's identity.
func (f *FacebookProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", f.clientID)
	data.Set("client_secret", f.clientSecret)
	data.Set("redirect_uri", f.redirectURL)

	var tok facebookTokenResponse
	if err := postForm(ctx, f.client(), orDefault(f.TokenEndpoint, facebookTokenURL), data, &tok); err != nil {
		return Identity{}, fmt.Errorf("%w: facebook token exchange: %v", ErrOAuth, err)
	}

	infoURL := orDefault(f.UserInfoEndpoint, facebookUserInfoURL) + "?fields=id,email"
	var u facebookUser
	if err := getJSON(ctx, f.client(), infoURL, tok.AccessToken, &u); err != nil {
		return Identity{}, fmt.Errorf("%w: facebook userinfo: %v", ErrOAuth, err)
	}
	if u.Email == "" || u.ID == "" {
		return Identity{}, fmt.Errorf("%w: facebook did not provide email", ErrOAuth)
	}

	return Identity{Email: u.Email, ProviderID: u.ID}, nil
}

func (f *FacebookProvider) client() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

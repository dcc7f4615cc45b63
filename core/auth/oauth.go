package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mixvault/config"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// Identity is the normalized user record returned by the OAuth provider.
type Identity struct {
	Provider  string
	SubjectID string
	Username  string
	Email     string
	AvatarURL string
}

// OAuthClient runs the authorization-code flow against a single configured
// provider (GitHub-shaped endpoints by default).
type OAuthClient struct {
	config      *oauth2.Config
	provider    string
	userInfoURL string
	httpClient  *http.Client
}

// NewOAuthClient creates an OAuthClient from configuration.
func NewOAuthClient(cfg *config.Config) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		provider:    cfg.OAuthProvider,
		userInfoURL: cfg.OAuthUserInfoURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// withHTTPClient pins the timeout-bearing client into the context so the
// oauth2 package uses it for token requests.
func (c *OAuthClient) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL returns the provider URL the browser is redirected to.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// FetchIdentity loads the signed-in user's profile from the provider using
// the token-authenticated client.
func (c *OAuthClient) FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client := c.config.Client(c.withHTTPClient(ctx), token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	// Field names cover the common provider shapes: GitHub (id/login/
	// avatar_url) and generic OIDC (sub/name/picture).
	var raw struct {
		ID        json.Number `json:"id"`
		Sub       string      `json:"sub"`
		Login     string      `json:"login"`
		Name      string      `json:"name"`
		Email     string      `json:"email"`
		AvatarURL string      `json:"avatar_url"`
		Picture   string      `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	identity := &Identity{
		Provider:  c.provider,
		SubjectID: raw.Sub,
		Username:  raw.Login,
		Email:     strings.ToLower(raw.Email),
		AvatarURL: raw.AvatarURL,
	}
	if identity.SubjectID == "" {
		identity.SubjectID = raw.ID.String()
	}
	if identity.Username == "" {
		identity.Username = raw.Name
	}
	if identity.AvatarURL == "" {
		identity.AvatarURL = raw.Picture
	}
	if identity.SubjectID == "" || identity.SubjectID == "0" {
		return nil, fmt.Errorf("userinfo response carried no subject ID")
	}
	return identity, nil
}

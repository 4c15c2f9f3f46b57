// Package oauth implements the Google OAuth login flow.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the subset of the userinfo payload we consume.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleProvider exchanges authorization codes for Google identities.
type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle builds a provider from client credentials.
func NewGoogle(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// Enabled reports whether OAuth credentials are configured.
func (p *GoogleProvider) Enabled() bool {
	return p != nil && p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// AuthURL returns the consent-screen redirect URL for the given state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange swaps an authorization code for the authenticated Google user.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, errExchange := p.cfg.Exchange(ctx, code)
	if errExchange != nil {
		return nil, fmt.Errorf("oauth: exchange code: %w", errExchange)
	}

	client := p.cfg.Client(ctx, token)
	resp, errGet := client.Get(p.userInfoURL)
	if errGet != nil {
		return nil, fmt.Errorf("oauth: fetch userinfo: %w", errGet)
	}
	defer func() { _ = resp.Body.Close() }()

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("oauth: read userinfo: %w", errRead)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: userinfo error (status %d): %s", resp.StatusCode, string(body))
	}

	var user GoogleUser
	if errParse := json.Unmarshal(body, &user); errParse != nil {
		return nil, fmt.Errorf("oauth: parse userinfo: %w", errParse)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("oauth: userinfo missing email")
	}
	return &user, nil
}

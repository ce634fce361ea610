package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Provider defines the interface that all OAuth providers must implement
type Provider interface {
	// Name returns the provider key used in routes and user ids
	Name() string

	// GetAuthURL returns the consent screen URL for the provider
	GetAuthURL(state, redirectURI string) string

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// ValidateToken fetches the profile behind the token
	ValidateToken(ctx context.Context, token *oauth2.Token) (*models.Identity, error)
}

// baseProvider holds the OAuth2 code flow shared by every provider
type baseProvider struct {
	oauth2Config *oauth2.Config
}

func (p *baseProvider) GetAuthURL(state, redirectURI string) string {
	opts := []oauth2.AuthCodeOption{}
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	return p.oauth2Config.AuthCodeURL(state, opts...)
}

func (p *baseProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := *p.oauth2Config // copy
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	return cfg.Exchange(ctx, code)
}

func (p *baseProvider) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return p.oauth2Config.Client(ctx, token)
}

// getJSON fetches url with the authorized client and decodes the body into out
func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package providers

import (
	"context"
	"sort"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
)

// Registry holds the providers that have client credentials
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers
func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig builds every provider that has credentials. A
// provider that fails to initialize is skipped with a warning.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config) *Registry {
	var ps []Provider

	if cfg.OAuth.Google.Enabled() {
		google, err := NewGoogleProvider(ctx, cfg.OAuth.Google)
		if err != nil {
			logger.Warn("Google login disabled", zap.Error(err))
		} else {
			ps = append(ps, google)
		}
	}
	if cfg.OAuth.Facebook.Enabled() {
		ps = append(ps, NewFacebookProvider(cfg.OAuth.Facebook))
	}
	if cfg.OAuth.GitHub.Enabled() {
		ps = append(ps, NewGitHubProvider(cfg.OAuth.GitHub))
	}

	r := NewRegistry(ps...)
	logger.Info("OAuth providers configured", zap.Strings("providers", r.Names()))
	return r
}

// Get returns the provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the configured provider names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

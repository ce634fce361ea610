package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

type GitHubProvider struct {
	baseProvider
	apiURL string
}

func NewGitHubProvider(cfg config.ProviderConfig) *GitHubProvider {
	return &GitHubProvider{
		baseProvider: baseProvider{oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       cfg.Scopes,
		}},
		apiURL: githubAPIURL,
	}
}

func (p *GitHubProvider) Name() string {
	return constants.ProviderGitHub
}

// ValidateToken reads the profile. Accounts with a private email fall
// back to the primary verified address, then to <login>@github.com.
func (p *GitHubProvider) ValidateToken(ctx context.Context, token *oauth2.Token) (*models.Identity, error) {
	client := p.client(ctx, token)

	var gh struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.apiURL+"/user", &gh); err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	email := gh.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
			logger.Warn("Failed to list GitHub emails", zap.String("login", gh.Login), zap.Error(err))
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" && gh.Login != "" {
		email = strings.ToLower(gh.Login) + "@github.com"
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &models.Identity{
		Provider:   constants.ProviderGitHub,
		ProviderID: fmt.Sprintf("%d", gh.ID),
		Email:      email,
		Name:       name,
		Avatar:     gh.AvatarURL,
	}, nil
}

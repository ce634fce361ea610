package providers

import (
	"context"
	"fmt"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"

type FacebookProvider struct {
	baseProvider
	profileURL string
}

func NewFacebookProvider(cfg config.ProviderConfig) *FacebookProvider {
	return &FacebookProvider{
		baseProvider: baseProvider{oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     facebook.Endpoint,
			Scopes:       cfg.Scopes,
		}},
		profileURL: facebookProfileURL,
	}
}

func (p *FacebookProvider) Name() string {
	return constants.ProviderFacebook
}

func (p *FacebookProvider) ValidateToken(ctx context.Context, token *oauth2.Token) (*models.Identity, error) {
	var fb struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := getJSON(ctx, p.client(ctx, token), p.profileURL, &fb); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &models.Identity{
		Provider:   constants.ProviderFacebook,
		ProviderID: fb.ID,
		Email:      fb.Email,
		Name:       fb.Name,
		Avatar:     fb.Picture.Data.URL,
	}, nil
}

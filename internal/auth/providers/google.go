package providers

import (
	"context"
	"fmt"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

type GoogleProvider struct {
	baseProvider
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
}

func NewGoogleProvider(ctx context.Context, cfg config.ProviderConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &GoogleProvider{
		baseProvider: baseProvider{oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       cfg.Scopes,
		}},
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		userInfoURL: googleUserInfoURL,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return constants.ProviderGoogle
}

type googleClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (c googleClaims) identity() *models.Identity {
	return &models.Identity{
		Provider:   constants.ProviderGoogle,
		ProviderID: c.Sub,
		Email:      c.Email,
		Name:       c.Name,
		Avatar:     c.Picture,
	}
}

// ValidateToken prefers the verified ID token and falls back to the
// userinfo endpoint when the response carries none.
func (p *GoogleProvider) ValidateToken(ctx context.Context, token *oauth2.Token) (*models.Identity, error) {
	if rawIDToken, ok := token.Extra("id_token").(string); ok && p.verifier != nil {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("failed to verify ID token: %w", err)
		}

		var claims googleClaims
		if err := idToken.Claims(&claims); err != nil {
			return nil, fmt.Errorf("failed to parse claims: %w", err)
		}
		return claims.identity(), nil
	}

	logger.Debug("No id_token in token response, calling userinfo endpoint")
	var claims googleClaims
	if err := getJSON(ctx, p.client(ctx, token), p.userInfoURL, &claims); err != nil {
		logger.Error("Failed to call userinfo endpoint", zap.Error(err))
		return nil, err
	}
	return claims.identity(), nil
}

package constants

import "time"

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// TokenQueryParam is the query parameter carrying the token on OAuth redirects
	TokenQueryParam = "token"

	// ProviderQueryParam names the provider on OAuth redirects
	ProviderQueryParam = "provider"

	// ErrorQueryParam carries the failure reason on OAuth redirects
	ErrorQueryParam = "error"
)

// Cookies
const (
	// StateCookieName holds the signed OAuth state between redirect and callback
	StateCookieName = "chatbot_oauth_state"

	// SessionCookieName holds the bearer token for browser clients
	SessionCookieName = "chatbot_session"

	// StateTTL bounds how long a user may take on the consent screen
	StateTTL = 10 * time.Minute
)

// Login providers
const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderGitHub   = "github"
)

// OAuthProviders lists the providers with a redirect flow, in display order
var OAuthProviders = []string{ProviderGoogle, ProviderFacebook, ProviderGitHub}

// EmailPattern is the accepted shape of an email address
const EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

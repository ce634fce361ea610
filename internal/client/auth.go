package client

import "net/http"

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// NoAuth sends requests anonymously
type NoAuth struct{}

func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// BearerAuth sends a session token in the Authorization header
type BearerAuth struct {
	Token string
}

// ApplyAuth adds the bearer token to the request
func (a BearerAuth) ApplyAuth(req *http.Request) error {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	return nil
}

// AuthFor picks bearer auth when a token is set
func AuthFor(token string) AuthManager {
	if token == "" {
		return NoAuth{}
	}
	return BearerAuth{Token: token}
}

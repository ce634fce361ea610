package models

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned by user repositories for unknown users
	ErrUserNotFound = errors.New("user not found")
)

// Identity is a normalized external profile from any login provider
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}

// LinkedIdentity records a provider account attached to a user
type LinkedIdentity struct {
	Provider   string `bson:"provider" json:"provider"`
	ProviderID string `bson:"providerId" json:"providerId"`
}

// User is a registered account. Email is the authoritative key; every
// provider identity that logs in with the same email is linked to it.
type User struct {
	UserID     string           `bson:"userId" json:"userId"`
	Email      string           `bson:"email" json:"email"`
	Name       string           `bson:"name" json:"name"`
	Provider   string           `bson:"provider" json:"provider"`
	ProviderID string           `bson:"providerId,omitempty" json:"providerId,omitempty"`
	Avatar     string           `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsVerified bool             `bson:"isVerified" json:"isVerified"`
	Identities []LinkedIdentity `bson:"identities,omitempty" json:"identities,omitempty"`
	LastLogin  time.Time        `bson:"lastLogin" json:"lastLogin"`
	CreatedAt  time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// HasIdentity reports whether the provider account is linked to the user
func (u *User) HasIdentity(provider, providerID string) bool {
	for _, id := range u.Identities {
		if id.Provider == provider && id.ProviderID == providerID {
			return true
		}
	}
	return false
}

// PublicUser is the user view returned to clients
type PublicUser struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Provider  string     `json:"provider"`
	Avatar    *string    `json:"avatar"`
	LastLogin time.Time  `json:"lastLogin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Public converts the user to its client view
func (u *User) Public() PublicUser {
	pu := PublicUser{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Provider:  u.Provider,
		LastLogin: u.LastLogin,
	}
	if u.Avatar != "" {
		avatar := u.Avatar
		pu.Avatar = &avatar
	}
	return pu
}

// OTP is an issued one-time code. Only the bcrypt hash is stored.
type OTP struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	CodeHash  string    `bson:"codeHash"`
	CreatedAt time.Time `bson:"createdAt"`
}

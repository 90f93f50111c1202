package models

import (
	"time"
)

// AuthorizationRequestTTL is how long a pending authorization request stays valid
const AuthorizationRequestTTL = 10 * time.Minute

// AuthorizationRequest represents a pending interactive login attempt
type AuthorizationRequest struct {
	State       string    `json:"state"`
	Scopes      []string  `json:"scopes,omitempty"`
	RedirectURI string    `json:"redirect_uri"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the request can no longer be consumed
func (r *AuthorizationRequest) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// ResourceOwner is the identity returned by the provider for a token
type ResourceOwner struct {
	ID  string         `json:"id"`
	Raw map[string]any `json:"raw,omitempty"`
}

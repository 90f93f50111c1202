package models

import (
	"time"
)

// Token is an issued access token. Refreshing produces a new Token; a Token is
// never modified after it is created.
type Token struct {
	AccessToken     string         `json:"access_token"`
	RefreshToken    string         `json:"refresh_token,omitempty"`
	TokenType       string         `json:"token_type,omitempty"`
	Scope           string         `json:"scope,omitempty"`
	ResourceOwnerID string         `json:"resource_owner_id,omitempty"`
	ExpiresAt       time.Time      `json:"expires_at"`
	Raw             map[string]any `json:"raw,omitempty"`
}

func (t Token) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// Expired is advisory only. A token without a known expiry never reports expired.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

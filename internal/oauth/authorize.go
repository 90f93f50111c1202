package oauth

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/andyleap/fitauth/internal/models"
)

// stateBytes is the amount of randomness in a CSRF state value.
const stateBytes = 32

// AuthURLOption adds extra parameters to the authorize URL.
type AuthURLOption func(url.Values)

// SetAuthURLParam sets a provider specific authorize parameter.
func SetAuthURLParam(key, value string) AuthURLOption {
	return func(q url.Values) { q.Set(key, value) }
}

// AuthorizationURL builds the URL to send the user to and the pending request
// the callback must be checked against. It performs no network call.
func (c *Client) AuthorizationURL(redirectURI string, scopes []string, opts ...AuthURLOption) (string, *models.AuthorizationRequest, error) {
	state, err := c.newState()
	if err != nil {
		return "", nil, err
	}

	u, err := url.Parse(c.cfg.Endpoint.AuthURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid authorize url: %w", err)
	}

	merged := c.cfg.Scopes(scopes)

	q := u.Query()
	for _, opt := range opts {
		opt(q)
	}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	if len(merged) > 0 {
		q.Set("scope", strings.Join(merged, c.cfg.Separator()))
	}
	u.RawQuery = q.Encode()

	now := c.now()
	request := &models.AuthorizationRequest{
		State:       state,
		Scopes:      merged,
		RedirectURI: redirectURI,
		CreatedAt:   now,
		ExpiresAt:   now.Add(models.AuthorizationRequestTTL),
	}
	return u.String(), request, nil
}

func (c *Client) newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := io.ReadFull(c.random, b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

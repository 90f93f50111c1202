// Package provider holds the static per-provider data the OAuth2 engine runs
// against. A provider is a value, not a type: presets are plain Config values
// and any field can be overridden from a YAML file.
package provider

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"golang.org/x/oauth2"
)

// Config is read once when a client is constructed and never mutated after.
type Config struct {
	Name string

	// Endpoint carries the authorize and token URLs.
	Endpoint         oauth2.Endpoint
	ResourceOwnerURL string
	RevokeURL        string

	ClientID     string
	ClientSecret string

	DefaultScopes  []string
	ScopeSeparator string

	// OwnerIDField names the identity field in the resource owner payload.
	// When empty the id, user_id and _id fields are probed in that order.
	OwnerIDField string

	// TokenOwnerField names the token response field carrying the owner id.
	TokenOwnerField string

	// APIKeyHeader is sent with APIKey on resource owner and revoke calls.
	APIKeyHeader string
	APIKey       string

	// AllowInsecure permits http URLs on loopback hosts, for local test servers.
	AllowInsecure bool
}

var ErrMissingClientID = errors.New("provider: client id is required")

// Validate checks that every configured URL is absolute https and that the
// client credentials are present.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return ErrMissingClientID
	}

	urls := []struct {
		name, value string
		required    bool
	}{
		{"authorize", c.Endpoint.AuthURL, true},
		{"token", c.Endpoint.TokenURL, true},
		{"resource owner", c.ResourceOwnerURL, false},
		{"revoke", c.RevokeURL, false},
	}
	for _, u := range urls {
		if u.value == "" {
			if u.required {
				return fmt.Errorf("provider %s: %s url is required", c.Name, u.name)
			}
			continue
		}
		if err := c.checkURL(u.value); err != nil {
			return fmt.Errorf("provider %s: %s url: %w", c.Name, u.name, err)
		}
	}
	return nil
}

func (c Config) checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not absolute", raw)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if c.AllowInsecure && isLoopback(u.Hostname()) {
			return nil
		}
	}
	return fmt.Errorf("%q must use https", raw)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Separator returns the scope separator, defaulting to a single space.
func (c Config) Separator() string {
	if c.ScopeSeparator == "" {
		return " "
	}
	return c.ScopeSeparator
}

// Scopes returns requested merged with the default scopes.
func (c Config) Scopes(requested []string) []string {
	return MergeScopes(requested, c.DefaultScopes)
}

// MergeScopes returns requested followed by defaults, without duplicates or
// empty entries, keeping first occurrence order.
func MergeScopes(requested, defaults []string) []string {
	seen := make(map[string]bool, len(requested)+len(defaults))
	out := make([]string, 0, len(requested)+len(defaults))
	for _, list := range [][]string{requested, defaults} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// OAuth2Config exposes the provider to callers that drive golang.org/x/oauth2 directly.
func (c Config) OAuth2Config(redirectURL string, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     c.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       c.Scopes(scopes),
	}
}

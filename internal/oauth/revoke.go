package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/transport"
)

// Revoke invalidates tok at the provider for subjectUserID, falling back to
// the owner id carried by the token. A 404 means the grant is already gone and
// counts as success.
func (c *Client) Revoke(ctx context.Context, tok models.Token, subjectUserID string) (err error) {
	start := time.Now()
	defer func() { c.observe(opRevoke, start, err) }()

	if c.cfg.RevokeURL == "" {
		return fmt.Errorf("revoke: %w", ErrNoEndpoint)
	}
	if tok.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if subjectUserID == "" {
		subjectUserID = tok.ResourceOwnerID
	}
	if subjectUserID == "" {
		return ErrMissingSubject
	}

	u, err := url.Parse(c.cfg.RevokeURL)
	if err != nil {
		return fmt.Errorf("invalid revoke url: %w", err)
	}
	q := u.Query()
	q.Set("user_id", subjectUserID)
	q.Set("client_id", c.cfg.ClientID)
	u.RawQuery = q.Encode()

	_, _, err = c.send(ctx, opRevoke, &transport.Request{
		Method: http.MethodDelete,
		URL:    u.String(),
		Header: c.bearerHeader(tok.AccessToken),
	})
	if IsNotFound(err) {
		c.logger.Debug("Token already revoked", "user_id", subjectUserID)
		return nil
	}
	return err
}

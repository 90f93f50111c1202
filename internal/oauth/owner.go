package oauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/transport"
)

// defaultOwnerIDFields is the probe order used when no id field is configured.
var defaultOwnerIDFields = []string{"id", "user_id", "_id"}

// FetchOwner loads the identity behind tok from the resource owner endpoint.
func (c *Client) FetchOwner(ctx context.Context, tok models.Token) (owner models.ResourceOwner, err error) {
	start := time.Now()
	defer func() { c.observe(opOwner, start, err) }()

	if c.cfg.ResourceOwnerURL == "" {
		return models.ResourceOwner{}, fmt.Errorf("resource owner: %w", ErrNoEndpoint)
	}
	if tok.AccessToken == "" {
		return models.ResourceOwner{}, ErrMissingAccessToken
	}

	values, _, err := c.send(ctx, opOwner, &transport.Request{
		Method: http.MethodGet,
		URL:    c.cfg.ResourceOwnerURL,
		Header: c.bearerHeader(tok.AccessToken),
	})
	if err != nil {
		return models.ResourceOwner{}, err
	}

	fields := defaultOwnerIDFields
	if c.cfg.OwnerIDField != "" {
		fields = []string{c.cfg.OwnerIDField}
	}
	for _, field := range fields {
		if id, ok := stringValue(values[field]); ok {
			return models.ResourceOwner{ID: id, Raw: values}, nil
		}
	}
	return models.ResourceOwner{}, fmt.Errorf("%w (looked for %v)", ErrMissingIdentityField, fields)
}

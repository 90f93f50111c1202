package oauth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/transport"
	"golang.org/x/oauth2"
)

const (
	opExchange = "exchange"
	opRefresh  = "refresh"
	opOwner    = "owner"
	opRevoke   = "revoke"
)

// ExchangeCode trades an authorization code for a token. receivedState is the
// state echoed back on the callback; it must match req.State or the exchange
// fails with ErrInvalidState before anything is sent. Authorization codes are
// single use, so a failed exchange must not be retried with the same code.
func (c *Client) ExchangeCode(ctx context.Context, code string, req *models.AuthorizationRequest, receivedState string) (tok models.Token, err error) {
	start := time.Now()
	defer func() { c.observe(opExchange, start, err) }()

	if req == nil || req.State == "" || receivedState == "" ||
		subtle.ConstantTimeCompare([]byte(req.State), []byte(receivedState)) != 1 {
		return models.Token{}, ErrInvalidState
	}
	if req.Expired(c.now()) {
		return models.Token{}, fmt.Errorf("authorization request expired: %w", ErrInvalidState)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", req.RedirectURI)

	return c.requestToken(ctx, opExchange, form)
}

// Refresh uses tok's refresh token to obtain a new Token. tok itself is left
// as is; whether the provider invalidates it is up to the provider.
func (c *Client) Refresh(ctx context.Context, tok models.Token) (next models.Token, err error) {
	start := time.Now()
	defer func() { c.observe(opRefresh, start, err) }()

	if !tok.HasRefreshToken() {
		return models.Token{}, ErrMissingRefreshToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", tok.RefreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	next, err = c.requestToken(ctx, opRefresh, form)
	if err != nil {
		return models.Token{}, err
	}
	// providers may omit the refresh token when it is not rotated
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}
	if next.ResourceOwnerID == "" {
		next.ResourceOwnerID = tok.ResourceOwnerID
	}
	return next, nil
}

func (c *Client) requestToken(ctx context.Context, operation string, form url.Values) (models.Token, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Accept", "application/json")
	if c.cfg.Endpoint.AuthStyle == oauth2.AuthStyleInHeader {
		r := http.Request{Header: h}
		r.SetBasicAuth(url.QueryEscape(c.cfg.ClientID), url.QueryEscape(c.cfg.ClientSecret))
		form.Del("client_id")
		form.Del("client_secret")
	}

	values, resp, err := c.send(ctx, operation, &transport.Request{
		Method: http.MethodPost,
		URL:    c.cfg.Endpoint.TokenURL,
		Header: h,
		Body:   []byte(form.Encode()),
	})
	if err != nil {
		return models.Token{}, err
	}
	return c.parseToken(resp, values)
}

// oauth2Epoch is the publication date of RFC 6749 (2012-10-01) as a unix time.
const oauth2Epoch = 1349067600

// maxSeconds is the largest second count a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// seconds converts n to a Duration, clamping instead of overflowing.
func seconds(n int64) time.Duration {
	switch {
	case n > maxSeconds:
		n = maxSeconds
	case n < -maxSeconds:
		n = -maxSeconds
	}
	return time.Duration(n) * time.Second
}

var tokenFields = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token_type":    true,
	"scope":         true,
	"expires_in":    true,
	"expires":       true,
}

func (c *Client) parseToken(resp *transport.Response, values map[string]any) (models.Token, error) {
	access, ok := stringValue(values["access_token"])
	if !ok {
		if msg := errorMessage(values); msg != "" {
			return models.Token{}, &ProviderError{StatusCode: resp.StatusCode, Body: resp.Body, Message: msg}
		}
		return models.Token{}, malformed(resp.StatusCode, resp.Body, "missing access_token")
	}

	tok := models.Token{AccessToken: access}
	tok.RefreshToken, _ = stringValue(values["refresh_token"])
	tok.TokenType, _ = stringValue(values["token_type"])
	tok.Scope, _ = stringValue(values["scope"])

	now := c.now()
	if n, ok := intValue(values["expires_in"]); ok {
		tok.ExpiresAt = now.Add(seconds(n))
	} else if n, ok := intValue(values["expires"]); ok {
		// values past the OAuth2 epoch are absolute unix times, smaller ones deltas
		if n > oauth2Epoch {
			tok.ExpiresAt = time.Unix(n, 0)
		} else {
			tok.ExpiresAt = now.Add(seconds(n))
		}
	}

	ownerField := c.cfg.TokenOwnerField
	if ownerField != "" {
		tok.ResourceOwnerID, _ = stringValue(values[ownerField])
	}

	for key, v := range values {
		if tokenFields[key] || key == ownerField {
			continue
		}
		if tok.Raw == nil {
			tok.Raw = make(map[string]any)
		}
		tok.Raw[key] = v
	}
	return tok, nil
}

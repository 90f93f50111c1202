// Package oauth implements the OAuth2 authorization-code client engine:
// authorize URL construction, code and refresh-token exchange, resource owner
// lookup and revocation. A Client is immutable and safe for concurrent use;
// it keeps no per-login state and never retries on its own.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/andyleap/fitauth/internal/provider"
	"github.com/andyleap/fitauth/internal/transport"
)

// Observer is told about every engine operation once it completes.
type Observer interface {
	Observe(operation string, duration time.Duration, err error)
}

type Client struct {
	cfg       provider.Config
	transport transport.Transport
	logger    *slog.Logger
	observer  Observer
	now       func() time.Time
	random    io.Reader
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRandom replaces crypto/rand as the state source, for tests.
func WithRandom(r io.Reader) Option {
	return func(c *Client) { c.random = r }
}

// New validates cfg and returns a client sending requests through t.
func New(cfg provider.Config, t transport.Transport, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("oauth: transport is required")
	}

	cfg.DefaultScopes = append([]string(nil), cfg.DefaultScopes...)
	c := &Client{
		cfg:       cfg,
		transport: t,
		logger:    slog.Default(),
		now:       time.Now,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns a copy of the provider configuration.
func (c *Client) Config() provider.Config {
	cfg := c.cfg
	cfg.DefaultScopes = append([]string(nil), c.cfg.DefaultScopes...)
	return cfg
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.Observe(operation, time.Since(start), err)
	}
}

// send issues req and runs the response through Classify.
func (c *Client) send(ctx context.Context, operation string, req *transport.Request) (map[string]any, *transport.Response, error) {
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		var terr *transport.TransportError
		if !errors.As(err, &terr) {
			err = &transport.TransportError{Method: req.Method, URL: req.URL, Err: err}
		}
		c.logger.Warn("Provider request failed", "operation", operation, "method", req.Method, "error", err)
		return nil, nil, err
	}

	c.logger.Debug("Provider request", "operation", operation, "method", req.Method, "url", req.URL, "status", resp.StatusCode)

	values, err := Classify(resp.StatusCode, resp.ContentType, resp.Body)
	if err != nil {
		// revoke treats 404 as success, so leave that one to the caller
		if !(operation == opRevoke && resp.StatusCode == http.StatusNotFound) {
			c.logger.Warn("Provider returned an error", "operation", operation, "status", resp.StatusCode, "error", err)
		}
		return nil, resp, err
	}
	return values, resp, nil
}

func (c *Client) bearerHeader(tok string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	h.Set("Accept", "application/json")
	if c.cfg.APIKeyHeader != "" && c.cfg.APIKey != "" {
		h.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
	}
	return h
}

// stringValue converts a decoded scalar to a non-empty string.
func stringValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	case []string:
		if len(v) > 0 && v[0] != "" {
			return v[0], true
		}
	}
	return "", false
}

// intValue reads a number that may arrive as JSON or as a form string.
func intValue(v any) (int64, bool) {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return floatToInt(f)
		}
	case float64:
		return floatToInt(v)
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// floatToInt rounds f to the nearest integer, saturating at the int64 range.
func floatToInt(f float64) (int64, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	}
	return int64(math.Round(f)), true
}

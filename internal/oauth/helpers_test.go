package oauth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/andyleap/fitauth/internal/provider"
	"github.com/andyleap/fitauth/internal/transport"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// fakeTransport records requests and answers every one with the same response.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*transport.Request
	resp     *transport.Response
	err      error
}

func (f *fakeTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTransport) last() *transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{StatusCode: status, ContentType: "application/json; charset=utf-8", Body: []byte(body)}
}

type recordedObservation struct {
	operation string
	err       error
}

type recordingObserver struct {
	mu  sync.Mutex
	got []recordedObservation
}

func (r *recordingObserver) Observe(operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recordedObservation{operation, err})
}

func testConfig() provider.Config {
	cfg := provider.UnderArmour("client-id", "client-secret")
	cfg.DefaultScopes = []string{"read", "profile"}
	cfg.APIKey = "client-id"
	return cfg
}

func newTestClient(t *testing.T, cfg provider.Config, tr transport.Transport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c, err := New(cfg, tr, opts...)
	require.NoError(t, err)
	return c
}

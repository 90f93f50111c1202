// Package transport executes the HTTP requests issued by the OAuth2 engine.
// The engine only depends on the Transport interface; HTTPTransport is the
// net/http backed implementation used outside of tests.
package transport

import (
	"context"
	"fmt"
	"net/http"
)

type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a plain function to the Transport interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// TransportError reports a failure to complete the exchange with the
// provider: DNS, TLS, connection resets, timeouts and cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

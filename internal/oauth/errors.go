package oauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/andyleap/fitauth/internal/transport"
)

var (
	// ErrInvalidState means the callback state did not match the pending
	// request. The login must be restarted.
	ErrInvalidState = errors.New("oauth: invalid state")

	ErrMissingRefreshToken  = errors.New("oauth: token has no refresh token")
	ErrMissingIdentityField = errors.New("oauth: resource owner payload has no identity field")
	ErrMalformedResponse    = errors.New("oauth: malformed response")

	ErrMissingAccessToken = errors.New("oauth: token has no access token")
	ErrMissingSubject     = errors.New("oauth: no user id to revoke")
	ErrNoEndpoint         = errors.New("oauth: endpoint not configured")
)

// ProviderError is returned for any non-success answer from the provider:
// a status outside 200-202, an explicit error body, or a body that cannot be
// decoded under its declared content type.
type ProviderError struct {
	StatusCode int
	Body       []byte
	Message    string

	// Err is ErrMalformedResponse for undecodable bodies.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("oauth: provider error (status %d): %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func malformed(status int, body []byte, format string, args ...any) *ProviderError {
	return &ProviderError{
		StatusCode: status,
		Body:       body,
		Message:    "malformed response: " + fmt.Sprintf(format, args...),
		Err:        ErrMalformedResponse,
	}
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound && perr.Err == nil
}

// Outcome names the failure class of err, for metrics and logs.
func Outcome(err error) string {
	var terr *transport.TransportError
	var perr *ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &terr):
		return "transport_error"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrMissingRefreshToken):
		return "missing_refresh_token"
	case errors.Is(err, ErrMissingIdentityField):
		return "missing_identity_field"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.As(err, &perr):
		return "provider_error"
	default:
		return "error"
	}
}

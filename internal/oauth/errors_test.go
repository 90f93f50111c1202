package oauth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/andyleap/fitauth/internal/transport"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&transport.TransportError{Err: errors.New("dial")}, "transport_error"},
		{fmt.Errorf("wrapped: %w", ErrInvalidState), "invalid_state"},
		{ErrMissingRefreshToken, "missing_refresh_token"},
		{ErrMissingIdentityField, "missing_identity_field"},
		{malformed(200, nil, "bad"), "malformed_response"},
		{&ProviderError{StatusCode: 400}, "provider_error"},
		{ErrNoEndpoint, "error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Outcome(tc.err), "%v", tc.err)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&ProviderError{StatusCode: 404}))
	assert.True(t, IsNotFound(fmt.Errorf("revoke: %w", &ProviderError{StatusCode: 404})))
	assert.False(t, IsNotFound(&ProviderError{StatusCode: 400}))
	assert.False(t, IsNotFound(malformed(404, nil, "bad")))
	assert.False(t, IsNotFound(errors.New("404")))
}

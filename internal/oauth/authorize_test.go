package oauth

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationURL(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(t, testConfig(), tr)

	raw, req, err := c.AuthorizationURL("https://app.example/callback?x=1", []string{"workouts", "read"})
	require.NoError(t, err)
	assert.Zero(t, tr.calls())

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "www.mapmyfitness.com", u.Host)
	assert.Equal(t, "/v7.1/oauth2/authorize/", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example/callback?x=1", q.Get("redirect_uri"))
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, "workouts,read,profile", q.Get("scope"))

	assert.Equal(t, []string{"workouts", "read", "profile"}, req.Scopes)
	assert.Equal(t, "https://app.example/callback?x=1", req.RedirectURI)
	assert.Equal(t, fixedNow, req.CreatedAt)
	assert.Equal(t, fixedNow.Add(models.AuthorizationRequestTTL), req.ExpiresAt)
	assert.Len(t, req.State, 2*stateBytes)
}

func TestAuthorizationURLScopeUnion(t *testing.T) {
	cases := []struct {
		name      string
		requested []string
		defaults  []string
		want      []string
	}{
		{"defaults only", nil, []string{"read", "profile"}, []string{"read", "profile"}},
		{"requested first", []string{"b", "a"}, []string{"c"}, []string{"b", "a", "c"}},
		{"dedupe across", []string{"profile", "x"}, []string{"read", "profile"}, []string{"profile", "x", "read"}},
		{"dedupe within", []string{"x", "x", "y", "x"}, nil, []string{"x", "y"}},
		{"drops empty", []string{"", "x"}, []string{""}, []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ScopeSeparator = " "
			cfg.DefaultScopes = tc.defaults
			c := newTestClient(t, cfg, &fakeTransport{})

			raw, req, err := c.AuthorizationURL("https://app.example/cb", tc.requested)
			require.NoError(t, err)
			u, _ := url.Parse(raw)
			assert.Equal(t, tc.want, strings.Split(u.Query().Get("scope"), " "))
			assert.Equal(t, tc.want, req.Scopes)
		})
	}
}

func TestAuthorizationURLNoScopes(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultScopes = nil
	c := newTestClient(t, cfg, &fakeTransport{})

	raw, _, err := c.AuthorizationURL("https://app.example/cb", nil)
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	_, present := u.Query()["scope"]
	assert.False(t, present)
}

func TestAuthorizationURLExtraParams(t *testing.T) {
	c := newTestClient(t, testConfig(), &fakeTransport{})

	raw, req, err := c.AuthorizationURL("https://app.example/cb", nil,
		SetAuthURLParam("approval_prompt", "auto"),
		SetAuthURLParam("state", "attacker-chosen"),
	)
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	assert.Equal(t, "auto", u.Query().Get("approval_prompt"))
	assert.Equal(t, req.State, u.Query().Get("state"))
}

func TestAuthorizationURLStateUniqueness(t *testing.T) {
	c := newTestClient(t, testConfig(), &fakeTransport{})

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		_, req, err := c.AuthorizationURL("https://app.example/cb", nil)
		require.NoError(t, err)
		require.False(t, seen[req.State], "duplicate state after %d calls", i)
		seen[req.State] = true
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestAuthorizationURLRandomFailure(t *testing.T) {
	c := newTestClient(t, testConfig(), &fakeTransport{}, WithRandom(failingReader{}))
	_, req, err := c.AuthorizationURL("https://app.example/cb", nil)
	assert.Error(t, err)
	assert.Nil(t, req)
}

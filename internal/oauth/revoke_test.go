package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevoke(t *testing.T) {
	tr := &fakeTransport{resp: jsonResponse(200, `{}`)}
	c := newTestClient(t, testConfig(), tr)

	err := c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "42")
	require.NoError(t, err)

	sent := tr.last()
	assert.Equal(t, http.MethodDelete, sent.Method)
	assert.Equal(t, "Bearer abc", sent.Header.Get("Authorization"))
	assert.Equal(t, "client-id", sent.Header.Get("Api-Key"))

	u, err := url.Parse(sent.URL)
	require.NoError(t, err)
	assert.Equal(t, "api.ua.com", u.Host)
	assert.Equal(t, "/v7.1/oauth2/connection/", u.Path)
	assert.Equal(t, url.Values{"user_id": {"42"}, "client_id": {"client-id"}}, u.Query())
	assert.Nil(t, sent.Body)
}

func TestRevokeNotFoundIsAcknowledged(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, testConfig(), &fakeTransport{resp: jsonResponse(404, `{"error":"not_found"}`)}, WithObserver(obs))

	err := c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "42")
	assert.NoError(t, err)
	require.Len(t, obs.got, 1)
	assert.NoError(t, obs.got[0].err)
}

func TestRevokeFailures(t *testing.T) {
	for _, status := range []int{203, 400, 401, 500} {
		c := newTestClient(t, testConfig(), &fakeTransport{resp: jsonResponse(status, ``)})
		err := c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "42")
		var perr *ProviderError
		require.True(t, errors.As(err, &perr), "status %d", status)
		assert.Equal(t, status, perr.StatusCode)
	}

	c := newTestClient(t, testConfig(), &fakeTransport{err: context.DeadlineExceeded})
	err := c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "42")
	var terr *transport.TransportError
	require.True(t, errors.As(err, &terr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRevokeSubjectFallback(t *testing.T) {
	tr := &fakeTransport{resp: jsonResponse(200, ``)}
	c := newTestClient(t, testConfig(), tr)

	err := c.Revoke(context.Background(), models.Token{AccessToken: "abc", ResourceOwnerID: "99"}, "")
	require.NoError(t, err)
	u, _ := url.Parse(tr.last().URL)
	assert.Equal(t, "99", u.Query().Get("user_id"))

	err = c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "")
	assert.ErrorIs(t, err, ErrMissingSubject)
	assert.Equal(t, 1, tr.calls())
}

func TestRevokeWithoutAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	tr := &fakeTransport{resp: jsonResponse(200, ``)}
	c := newTestClient(t, cfg, tr)

	require.NoError(t, c.Revoke(context.Background(), models.Token{AccessToken: "abc"}, "42"))
	_, present := tr.last().Header["Api-Key"]
	assert.False(t, present)
}

func TestRevokeAgainstServer(t *testing.T) {
	revoked := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.Header.Get("Authorization") != "Bearer abc" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		user := r.URL.Query().Get("user_id")
		if revoked[user] {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		revoked[user] = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.AllowInsecure = true
	cfg.RevokeURL = server.URL + "/v7.1/oauth2/connection/"
	c := newTestClient(t, cfg, transport.NewHTTPTransport(server.Client()))

	tok := models.Token{AccessToken: "abc"}
	require.NoError(t, c.Revoke(context.Background(), tok, "42"))
	require.NoError(t, c.Revoke(context.Background(), tok, "42"))

	err := c.Revoke(context.Background(), models.Token{AccessToken: "other"}, "42")
	assert.Error(t, err)
}

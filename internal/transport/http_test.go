package transport

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "a=b", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(nil)
	resp, err := tr.Send(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Header: http.Header{"Authorization": {"Bearer abc"}},
		Body:   []byte("a=b"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestHTTPTransportGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("access_token=abc"))
		gz.Close()
	}))
	defer server.Close()

	tr := NewHTTPTransport(&http.Client{Transport: &http.Transport{DisableCompression: true}})
	resp, err := tr.Send(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "access_token=abc", string(resp.Body))
}

func TestHTTPTransportBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", n)))
	}))
	defer server.Close()

	tr := NewHTTPTransport(nil)
	send := func(n int) (*Response, error) {
		return tr.Send(context.Background(), &Request{Method: http.MethodGet, URL: server.URL + "?n=" + strconv.Itoa(n)})
	}

	resp, err := send(MaxBodySize)
	require.NoError(t, err)
	assert.Len(t, resp.Body, MaxBodySize)

	_, err = send(MaxBodySize + 1)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestHTTPTransportCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPTransport(nil).Send(ctx, &Request{Method: http.MethodGet, URL: server.URL})
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.MethodGet, terr.Method)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPTransport(nil).Send(context.Background(), &Request{Method: http.MethodGet, URL: url})
	var terr *TransportError
	assert.True(t, errors.As(err, &terr))
}

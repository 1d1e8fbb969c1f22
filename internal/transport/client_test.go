package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/internal/transport"
	"github.com/agentstation/eventmerge/pkg/errors"
)

func TestFetchOK(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	c := transport.New(transport.WithAuth(&transport.BearerAuth{}, "tok"))
	body, err := c.Fetch(context.Background(), "google-sheets", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
	assert.Equal(t, transport.DefaultUserAgent, gotUA)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestFetchNoTokenSkipsAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := transport.New(transport.WithAuth(&transport.BearerAuth{}, ""), transport.WithUserAgent("test"))
	_, err := c.Fetch(context.Background(), "google-sheets", srv.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
		rateLimited bool
	}{
		{"not found", http.StatusNotFound, "no such sheet", false, false},
		{"rate limited", http.StatusTooManyRequests, "", false, true},
		{"server error", http.StatusBadGateway, "upstream", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := transport.New().Fetch(context.Background(), "google-sheets", srv.URL)
			var apiErr *errors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, srv.URL, apiErr.Endpoint)
			assert.Equal(t, "google-sheets", apiErr.Provider)
			assert.Equal(t, tt.unavailable, errors.IsProviderUnavailable(err))
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))
		})
	}
}

func TestFetchTruncatesLongErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	_, err := transport.New().Fetch(context.Background(), "google-sheets", srv.URL)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1024)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := transport.New(transport.WithTimeout(time.Second)).Fetch(context.Background(), "google-sheets", url)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
	assert.NotNil(t, apiErr.Err)
}

func TestFetchErrorOmitsQueryToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/export?tqx=out:csv"
	srv.Close()

	c := transport.New(
		transport.WithTimeout(time.Second),
		transport.WithAuth(&transport.QueryAuth{Param: "key"}, "s3cret-token"),
	)
	_, err := c.Fetch(context.Background(), "google-sheets", endpoint)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret-token")
	assert.Contains(t, err.Error(), "tqx=out:csv")
}

func TestFetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := transport.New().Fetch(ctx, "google-sheets", srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetBadURL(t *testing.T) {
	_, err := transport.New().Fetch(context.Background(), "google-sheets", "://bad")
	var resErr *errors.ResourceError
	assert.ErrorAs(t, err, &resErr)
}

// Package transport provides the HTTP client used to fetch remote sources.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// DefaultUserAgent identifies eventmerge to remote hosts.
const DefaultUserAgent = "eventmerge/1.0"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client provides HTTP client functionality with authentication.
type Client struct {
	http      *http.Client
	auth      Authenticator
	token     string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuth applies auth with token to every request. An empty token
// disables authentication.
func WithAuth(auth Authenticator, token string) Option {
	return func(c *Client) {
		c.auth = auth
		c.token = token
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		auth:      &NoAuth{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication applied. Logs and
// transport errors show the URL as it was before authentication, so a
// query-parameter token never leaves the request.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	display := req.URL.Redacted()
	if c.token != "" && c.auth != nil {
		c.auth.Apply(req, c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/csv, */*;q=0.5")

	logging.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("url", display).
		Msg("HTTP request")

	resp, err := c.http.Do(req.WithContext(ctx))
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = display
	}
	return resp, err
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+endpoint, err)
	}
	return c.Do(ctx, req)
}

// Fetch GETs endpoint and returns the response body. provider labels
// errors. Transport failures and non-200 responses become APIErrors.
func (c *Client) Fetch(ctx context.Context, provider, endpoint string) ([]byte, error) {
	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var resErr *errors.ResourceError
		if errors.As(err, &resErr) {
			return nil, err
		}
		return nil, &errors.APIError{
			Provider: provider,
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}
	return ReadBody(resp, provider, endpoint)
}

// ReadBody reads and closes resp.Body. Non-200 statuses become an APIError
// carrying the start of the body.
func ReadBody(resp *http.Response, provider, endpoint string) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &errors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    msg,
		}
	}

	return body, nil
}

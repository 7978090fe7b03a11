package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
)

// maxBodySize caps the decoded response size.
const maxBodySize = 8 << 20

var (
	// ErrEmptyResponse is returned when the feed answers 2xx with no lines.
	ErrEmptyResponse = errors.New("empty response")
	// ErrUnreachable wraps transport-level failures such as refused connections or timeouts.
	ErrUnreachable = errors.New("feed unreachable")

	// errFeedURLRequired is returned when the client has no endpoint.
	errFeedURLRequired = errors.New("feed url must be provided")
)

// StatusError reports a non-2xx answer from the feed.
type StatusError struct {
	// Code is the HTTP status code of the final response.
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("feed responded with status %d", e.Code)
}

// Client fetches line statuses over HTTP.
type Client struct {
	// feedURL is the status endpoint.
	feedURL string
	// appKey is appended as the app_key query parameter when set.
	appKey string
	// http performs requests; its transport usually carries the retry policy.
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithAppKey sets the app_key query parameter.
func WithAppKey(key string) Option {
	return func(c *Client) {
		c.appKey = key
	}
}

// NewClient builds a client for feedURL. By default every attempt waits at most
// timeout for response headers and transient failures are retried by RetryTransport.
// The timeout is applied per attempt so backoff delays do not consume it.
func NewClient(feedURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if feedURL == "" {
		return nil, errFeedURLRequired
	}

	base, _ := http.DefaultTransport.(*http.Transport)
	base = base.Clone()

	if timeout > 0 {
		base.ResponseHeaderTimeout = timeout
		base.TLSHandshakeTimeout = timeout
	}

	c := &Client{
		feedURL: feedURL,
		http:    &http.Client{Transport: NewRetryTransport(base)},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchLines performs one logical fetch and maps the answer to line statuses.
// Errors are ErrUnreachable, *StatusError, ErrEmptyResponse or a decode error.
func (c *Client) FetchLines(ctx context.Context) ([]line.Status, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload []lineDTO
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyResponse
		}

		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	if len(payload) == 0 {
		return nil, ErrEmptyResponse
	}

	statuses := make([]line.Status, 0, len(payload))
	for i := range payload {
		statuses = append(statuses, payload[i].toDomain())
	}

	return statuses, nil
}

// endpoint returns the feed URL with the app key applied.
func (c *Client) endpoint() (string, error) {
	if c.appKey == "" {
		return c.feedURL, nil
	}

	u, err := url.Parse(c.feedURL)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}

	query := u.Query()
	query.Set("app_key", c.appKey)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

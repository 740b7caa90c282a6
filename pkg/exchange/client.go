// Package exchange performs the provider's token-endpoint exchanges.
package exchange

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

// Result is the raw upstream response to a token exchange. The body is an
// opaque value: on success it is the provider's token JSON, passed through to
// the plugin unparsed; on failure it is the provider's reason, surfaced to
// the caller unmodified.
type Result struct {
	Status int
	Body   []byte
}

// OK reports whether the upstream answered 200.
func (r *Result) OK() bool {
	return r.Status == http.StatusOK
}

// Client posts form-encoded token requests to a provider endpoint.
// It performs exactly one attempt per call: no retries, no backoff.
type Client struct {
	httpClient *http.Client
}

// NewClient creates an exchange client with a configured HTTP client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Exchange sends params as a single form-encoded POST to endpoint and
// returns the raw upstream status and body. An error is returned only for
// transport failure; a non-200 upstream answer is a valid Result the caller
// passes through.
func (c *Client) Exchange(ctx context.Context, endpoint string, params url.Values) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		Status: resp.StatusCode,
		Body:   body,
	}, nil
}

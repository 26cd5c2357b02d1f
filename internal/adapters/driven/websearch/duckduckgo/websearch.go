// Package duckduckgo provides internet-search augmentation backed by
// the DuckDuckGo instant-answer API.
package duckduckgo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// DefaultBaseURL is the instant-answer API endpoint.
const DefaultBaseURL = "https://api.duckduckgo.com/"

// DefaultTimeout bounds one search request.
const DefaultTimeout = 10 * time.Second

// requestsPerSecond caps the outbound request rate.
const requestsPerSecond = 1

// Client queries the instant-answer API for a short abstract snippet.
// It implements the WebSearcher interface: every failure is swallowed
// and reported as "no snippet," never as an error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

var _ driven.WebSearcher = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a new DuckDuckGo search client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(requestsPerSecond, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// instantAnswer is the subset of the API response we read.
type instantAnswer struct {
	AbstractText string `json:"AbstractText"`
}

// Search returns the abstract text for the query, or "" and false when
// no snippet is available for any reason.
func (c *Client) Search(ctx context.Context, query string) (string, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		logger.Debug("Web search rate limit wait: %v", err)
		return "", false
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		logger.Debug("Web search bad base URL %q: %v", c.baseURL, err)
		return "", false
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		logger.Debug("Web search request build: %v", err)
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Web search request: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("Web search status %d", resp.StatusCode)
		return "", false
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		logger.Debug("Web search payload: %v", err)
		return "", false
	}

	if answer.AbstractText == "" {
		return "", false
	}
	return answer.AbstractText, true
}

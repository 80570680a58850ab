// Package yodlee is a typed client for the Yodlee aggregation REST API
// (srest v1.0). It covers the scripted account-linking sequence: cobrand
// login, user registration or login, site search, login-form retrieval and
// site-account creation. Responses are kept as opaque JSON documents with
// narrow accessors over the few fields the flow consumes.
package yodlee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// DefaultBaseURL is the production endpoint of the aggregation REST API.
const DefaultBaseURL = "https://rest.developer.yodlee.com/services/srest/restserver/v1.0"

// Config carries the knobs for building a Client.
type Config struct {
	// BaseURL overrides DefaultBaseURL, e.g. to point at a local sandbox.
	BaseURL string

	// HTTPClient, when set, is used as-is. It should carry a cookie jar so
	// the aggregator can correlate the calls of one flow.
	HTTPClient *http.Client

	// Logger receives debug lines. Only the request path and response status
	// are logged; form bodies carry credentials and never reach the logger.
	Logger *slog.Logger
}

// Client talks to the aggregation REST API. A Client owns the cookie state
// of one logical linking flow; concurrent flows need separate Clients.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// New builds a Client. When cfg.HTTPClient is nil a cookie-jar-backed client
// is installed, so the session context lives and dies with this Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("new cookie jar: %w", err)
		}
		httpc = &http.Client{Jar: jar}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{baseURL: baseURL, httpc: httpc, logger: logger}, nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// post issues one form-encoded POST and decodes the JSON reply. Transport
// errors are returned as-is so callers see them unwrapped; a body that does
// not parse maps to ErrInvalidResponse.
func (c *Client) post(ctx context.Context, path string, form url.Values) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "path", path, "status", resp.StatusCode)

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return doc, nil
}

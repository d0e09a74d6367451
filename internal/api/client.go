// Package api is a client for the warehouse REST API: authentication,
// engine and database management, and the engine query endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultEndpoint is the public API endpoint.
const DefaultEndpoint = "https://api.app.firebolt.io"

// DefaultTimeout bounds management API requests. Queries use the caller's
// context only.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	Endpoint    string
	Username    string
	Password    string
	AccountName string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the management API on behalf of one user and account.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	username    string
	password    string
	accountName string
	http        *http.Client
	logger      *slog.Logger

	mu        sync.Mutex
	token     string
	accountID string
}

// New creates a Client. Authentication happens lazily on the first request.
func New(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:     strings.TrimRight(endpoint, "/"),
		username:    opts.Username,
		password:    opts.Password,
		accountName: opts.AccountName,
		http:        httpClient,
		logger:      logger,
	}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.baseURL
}

// request describes one management API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// anonymous requests skip authentication.
	anonymous bool
}

// do sends req and decodes a JSON response into out, which may be nil.
// A 401 response triggers one re-login.
func (c *Client) do(ctx context.Context, req request, out any) error {
	retried := false
	for {
		token := ""
		if !req.anonymous {
			var err error
			if token, err = c.accessToken(ctx); err != nil {
				return err
			}
		}

		err := c.send(ctx, req, token, out)
		var apiErr *APIError
		if !retried && !req.anonymous && asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.logger.Debug("access token rejected, logging in again")
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			retried = true
			continue
		}
		return err
	}
}

func (c *Client) send(ctx context.Context, req request, token string, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Op: req.method + " " + req.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.path, err)
	}
	return nil
}

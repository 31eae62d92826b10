// Package foreman is a minimal client for the three Foreman API resources the
// plugin reads: the dashboard, host search and fact value search.
package foreman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PerPage is the page size of search requests. Only the first page is read.
	PerPage = 1000

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 60 * time.Second

	PathDashboard  = "/dashboard"
	PathHosts      = "/hosts"
	PathFactValues = "/fact_values"

	// RequestIDHeader carries the id logged for each request.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// APIError is returned when Foreman answers with a non-2xx status.
type APIError struct {
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %s", e.Path, e.Status)
	}
	return fmt.Sprintf("GET %s: %s: %s", e.Path, e.Status, e.Body)
}

// Client issues authenticated GET requests against a Foreman API endpoint
// such as https://foreman.example.com/api.
type Client struct {
	baseURL    string
	user       string
	password   string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for endpoint using basic authentication.
func NewClient(endpoint, user, password string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		user:       user,
		password:   password,
		userAgent:  "check_foreman",
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dashboard fetches the host status summary.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.get(ctx, PathDashboard, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SearchHosts runs a host search query.
func (c *Client) SearchHosts(ctx context.Context, search string) (*HostSearch, error) {
	var s HostSearch
	if err := c.get(ctx, PathHosts, searchParams(search), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FactValues runs a fact value search query.
func (c *Client) FactValues(ctx context.Context, search string) (*FactSearch, error) {
	var f FactSearch
	if err := c.get(ctx, PathFactValues, searchParams(search), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func searchParams(search string) url.Values {
	params := url.Values{}
	params.Set("search", search)
	params.Set("per_page", fmt.Sprint(PerPage))
	return params
}

// URL returns the absolute URL of an API path with its query string.
func (c *Client) URL(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.URL(path, params)
	requestID := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Foreman API request completed",
		"request_id", requestID,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}
	c.logger.Debug("Foreman API response", "request_id", requestID, "body", string(body))

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/txexport/internal/logging"
	"github.com/jeranaias/txexport/internal/util"
)

// Client configuration defaults.
const (
	// DefaultTimeout bounds the preflight request. Downloads are bounded by
	// their context only.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond is the client-side request budget.
	DefaultRequestsPerSecond = 2.0

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 512
)

// newTransport returns the pooled transport shared by both HTTP clients.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Client talks to the export endpoint: a HEAD preflight for the row count
// and a GET for the file itself.
type Client struct {
	httpClient     *http.Client
	downloadClient *http.Client
	limiter        *rate.Limiter
	logger         *log.Logger
	userAgent      string
}

// NewClient creates a client with default timeout and rate limit.
func NewClient() *Client {
	transport := newTransport()
	return &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout, Transport: transport},
		downloadClient: &http.Client{Transport: transport},
		limiter:        rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		logger:         logging.Discard(),
		userAgent:      "txexport",
	}
}

// WithTimeout sets the preflight timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithRateLimit sets the outbound request budget. Zero or less disables it.
func (c *Client) WithRateLimit(perSecond float64) *Client {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithUserAgent sets the User-Agent header value.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithHTTPClient replaces both underlying clients, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.downloadClient = hc
	return c
}

// =============================================================================
// PREFLIGHT
// =============================================================================

// ExpectedRows issues a bodiless request and returns the row count the
// backend announces. A missing or malformed header counts as zero.
func (c *Client) ExpectedRows(ctx context.Context, rawURL, token string) (int, error) {
	resp, err := c.do(ctx, c.httpClient, http.MethodHead, rawURL, token)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	header := strings.TrimSpace(resp.Header.Get(RowsHeader))
	if header == "" {
		c.logger.Warn("preflight response has no row count", "header", RowsHeader)
		return 0, nil
	}
	rows, err := strconv.Atoi(header)
	if err != nil {
		c.logger.Warn("preflight row count is not a number", "value", header)
		return 0, nil
	}
	return rows, nil
}

// =============================================================================
// DOWNLOAD
// =============================================================================

// ProgressFunc wraps the response body, e.g. to drive a progress bar. size is
// -1 when the server does not announce a length.
type ProgressFunc func(body io.Reader, size int64) io.Reader

// Download fetches rawURL and writes the payload atomically to dst.
func (c *Client) Download(ctx context.Context, rawURL, token, dst string, progress ProgressFunc) (int64, error) {
	resp, err := c.do(ctx, c.downloadClient, http.MethodGet, rawURL, token)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	var body io.Reader = resp.Body
	if progress != nil {
		body = progress(resp.Body, resp.ContentLength)
	}

	n, err := util.AtomicWriteReader(dst, body, 0644)
	if err != nil {
		return n, fmt.Errorf("save %s: %w", dst, err)
	}
	return n, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) do(ctx context.Context, hc *http.Client, method, rawURL, token string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", c.userAgent)

	// Never log headers or query values: the URL may carry account slugs and
	// the headers carry the token.
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Error("export request failed", "method", method, "path", req.URL.Path, "err", err)
		return nil, err
	}
	c.logger.Info("export request", "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))
	return resp, nil
}

// checkStatus maps non-2xx responses onto the package's error values.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	method := http.MethodGet
	if resp.Request != nil {
		method = resp.Request.Method
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, redact(resp.Request), ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, redact(resp.Request), ErrNotFound)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPStatusError{
		Method: method,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}

// redact drops the query string from a request URL for error messages.
func redact(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	u := url.URL{Scheme: req.URL.Scheme, Host: req.URL.Host, Path: req.URL.Path}
	return u.String()
}

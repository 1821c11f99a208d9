// Package ghapi provides the GitHub REST client and the paginated fetchers used by a run.
//
// This file (client.go) implements the rate-aware fetch client. Every request is authenticated
// with a bearer token, non-2xx responses surface as *UpstreamError carrying the response body,
// and each successful call is followed by a pause sized from the X-RateLimit-Remaining header.
// Requests are never retried.
package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mona-actions/gh-community-metrics/internal/state"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Client defaults.
const (
	DefaultUserAgent = "gh-community-metrics"
	DefaultTimeout   = 30 * time.Second

	apiVersion = "2022-11-28"
)

// Pacing applied after each successful call, keyed off the remaining quota.
const (
	pauseHighQuota    = 200 * time.Millisecond  // remaining > 500
	pauseMediumQuota  = 400 * time.Millisecond  // 100 < remaining <= 500
	pauseLowQuota     = 1000 * time.Millisecond // remaining <= 100
	pauseUnknownQuota = 500 * time.Millisecond  // header absent or unparsable

	highQuotaThreshold   = 500
	mediumQuotaThreshold = 100
)

// ErrCredentialMissing is returned by NewClient when no token is configured.
var ErrCredentialMissing = errors.New("GitHub token is not configured")

// UpstreamError is returned for any non-2xx response.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GitHub API %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("GitHub API %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ClientConfig configures a Client.
type ClientConfig struct {
	Token     string
	BaseURL   string        // defaults to DefaultBaseURL
	UserAgent string        // defaults to DefaultUserAgent
	Timeout   time.Duration // per request, defaults to DefaultTimeout

	// Status receives API call counts and quota reports. A fresh Status is used when nil.
	Status *state.Status
	// Sleep replaces the pacing wait, mainly for tests.
	Sleep SleepFunc
	// HTTPClient supplies the base transport that the bearer-token transport wraps.
	HTTPClient *http.Client
}

// Client performs authenticated GET requests against the GitHub REST API.
//
// A Client is meant to be used by a single goroutine; pacing assumes requests are sequential.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	status    *state.Status
	sleep     SleepFunc
}

// NewClient builds a client. It fails with ErrCredentialMissing before any network activity
// when cfg.Token is empty.
func NewClient(cfg ClientConfig) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrCredentialMissing
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	status := cfg.Status
	if status == nil {
		status = state.New()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	httpClient.Timeout = timeout

	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		userAgent: userAgent,
		status:    status,
		sleep:     sleep,
	}, nil
}

// Status returns the run status the client reports to.
func (c *Client) Status() *state.Status {
	return c.status
}

// Get fetches endpoint (a path with optional query, e.g. "/orgs/octo/repos?page=1") and decodes
// the JSON body into v. On success it pauses according to the remaining quota before returning.
// A pause cut short by ctx still returns nil: v holds a complete response, and the caller sees
// the cancellation on its next request.
func (c *Client) Get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.status.IncrementAPICalls()
	c.recordRateLimit(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	pterm.Debug.Printf("GET %s -> %d (remaining: %s)\n", endpoint, resp.StatusCode, headerOr(resp.Header, "X-RateLimit-Remaining", "n/a"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}

	if err := c.sleep(ctx, pauseFor(resp.Header.Get("X-RateLimit-Remaining"))); err != nil {
		pterm.Debug.Printf("pause after %s interrupted: %v\n", endpoint, err)
	}
	return nil
}

// recordRateLimit forwards the quota headers to the run status when present.
func (c *Client) recordRateLimit(h http.Header) {
	remaining, err := strconv.ParseInt(h.Get("X-RateLimit-Remaining"), 10, 64)
	if err != nil {
		return
	}
	limit, _ := strconv.ParseInt(h.Get("X-RateLimit-Limit"), 10, 64)

	var reset time.Time
	if epoch, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		reset = time.Unix(epoch, 0)
	}
	c.status.UpdateRateLimit(limit, remaining, reset)
}

// pauseFor maps the X-RateLimit-Remaining header value to the post-call pause.
func pauseFor(remainingHeader string) time.Duration {
	remaining, err := strconv.Atoi(strings.TrimSpace(remainingHeader))
	if err != nil {
		return pauseUnknownQuota
	}
	switch {
	case remaining > highQuotaThreshold:
		return pauseHighQuota
	case remaining > mediumQuotaThreshold:
		return pauseMediumQuota
	default:
		return pauseLowQuota
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func headerOr(h http.Header, key, fallback string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return fallback
}

// Package directus reads entities from the Directus-backed content API.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RemoteClient = (*Client)(nil)

const (
	// DefaultMaxAttempts caps requests per call while the API answers 429.
	DefaultMaxAttempts = 3

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the content API root, e.g. https://cms.example.org
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// CountryID scopes every request to one site. Zero means unscoped.
	CountryID int64

	// MaxAttempts bounds the requests made per call while rate limited.
	MaxAttempts int

	HTTPClient *http.Client

	// Sleep waits between rate-limited attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now is used to resolve HTTP-date Retry-After values.
	Now func() time.Time

	Logger *slog.Logger
}

// Client implements driven.RemoteClient over HTTP.
type Client struct {
	baseURL     string
	token       string
	countryID   int64
	maxAttempts int
	httpClient  *http.Client
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	logger      *slog.Logger
}

// NewClient creates a new content API client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: remote url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	c := &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		token:       cfg.Token,
		countryID:   cfg.CountryID,
		maxAttempts: cfg.MaxAttempts,
		httpClient:  cfg.HTTPClient,
		sleep:       cfg.Sleep,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// FetchEntities returns the entities of a kind changed after since.
func (c *Client) FetchEntities(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
	query := url.Values{}
	if since != nil {
		query.Set("since", since.String())
	}
	if c.countryID > 0 {
		query.Set("country", strconv.FormatInt(c.countryID, 10))
	}

	path := "/" + kind.Plural()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}

	entities, err := decodeEntities(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrRemoteUnavailable, kind, err)
	}
	return entities, nil
}

// FetchSite returns the country document. Without a country it returns nil.
func (c *Client) FetchSite(ctx context.Context) (json.RawMessage, error) {
	if c.countryID <= 0 {
		return nil, nil
	}

	body, err := c.get(ctx, "/country/"+strconv.FormatInt(c.countryID, 10))
	if err != nil {
		return nil, fmt.Errorf("fetch site: %w", err)
	}

	site, err := unwrapData(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode site: %w", domain.ErrRemoteUnavailable, err)
	}
	if isNull(site) {
		return nil, nil
	}
	return site, nil
}

// Ping checks the Directus health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/server/ping")
	return err
}

// get performs a GET and returns the body of a 2xx response.
// 429 responses are retried after their Retry-After delay, up to maxAttempts.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		c.logger.Debug("remote request", "path", path, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			header := resp.Header.Get("Retry-After")
			drain(resp)

			if attempt >= c.maxAttempts {
				return nil, fmt.Errorf("%w: %w: %s still 429 after %d attempts",
					domain.ErrRemoteUnavailable, domain.ErrRateLimited, path, attempt)
			}

			wait := retryAfter(header, c.now())
			c.logger.Info("rate limited, waiting",
				"path", path,
				"attempt", attempt,
				"retry_after", header,
				"wait", wait,
			)
			if wait > 0 {
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %w", domain.ErrRemoteUnavailable, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if len(body) > maxErrorBody {
				body = body[:maxErrorBody]
			}
			return nil, fmt.Errorf("%w: %s returned %d: %s",
				domain.ErrRemoteUnavailable, path, resp.StatusCode, bytes.TrimSpace(body))
		}
		return body, nil
	}
}

// maxRetryAfter caps the wait a server can ask for.
const maxRetryAfter = 10 * time.Minute

// retryAfter parses a Retry-After value given in (possibly fractional)
// seconds or as an HTTP date. Dates in the past and unparseable values
// mean no wait; anything longer than maxRetryAfter is capped.
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil {
		switch {
		case math.IsNaN(secs) || secs <= 0:
			return 0
		case secs >= maxRetryAfter.Seconds():
			return maxRetryAfter
		}
		return time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := t.Sub(now); d > 0 {
			return min(d, maxRetryAfter)
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// decodeEntities accepts a bare array, a {"data": [...]} envelope, or null.
func decodeEntities(body []byte) ([]*domain.Entity, error) {
	raw, err := unwrapData(body)
	if err != nil {
		return nil, err
	}

	entities := make([]*domain.Entity, 0)
	if isNull(raw) {
		return entities, nil
	}

	var decoded []*domain.Entity
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	for _, e := range decoded {
		if e != nil {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

// unwrapData strips the Directus {"data": ...} envelope when present.
func unwrapData(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return body, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if raw, ok := fields["errors"]; ok && !isNull(raw) {
		var apiErrors []struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &apiErrors); err == nil && len(apiErrors) > 0 {
			return nil, errors.New(apiErrors[0].Message)
		}
	}
	data, ok := fields["data"]
	if !ok {
		// A bare document such as the country record.
		return body, nil
	}
	return data, nil
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

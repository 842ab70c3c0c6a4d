package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

const (
	// maxAttempts bounds the retry loop for GET requests that fail with a
	// transient 5xx status.
	maxAttempts = 5

	// retryBaseDelay is the first backoff step; subsequent attempts double it.
	retryBaseDelay = 300 * time.Millisecond
)

// GammaClient is the REST client for the Polymarket Gamma API, which provides
// event and market discovery.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EventQuery selects which events to list.
type EventQuery struct {
	TagSlug  string
	Active   bool
	Archived bool
	Limit    int
	Offset   int
}

// ListEvents returns one page of events matching the query, with their
// markets embedded.
func (g *GammaClient) ListEvents(ctx context.Context, q EventQuery) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("archived", strconv.FormatBool(q.Archived))
	params.Set("active", strconv.FormatBool(q.Active))
	params.Set("includeMarkets", "true")
	if q.TagSlug != "" {
		params.Set("tag_slug", q.TagSlug)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	params.Set("offset", strconv.Itoa(q.Offset))

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: list events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// GetEventBySlug returns a single event looked up by its URL slug, with
// markets embedded. It returns domain.ErrNotFound when the slug matches
// nothing.
func (g *GammaClient) GetEventBySlug(ctx context.Context, slug string) (APIEvent, error) {
	params := url.Values{}
	params.Set("slug", slug)
	params.Set("includeMarkets", "true")

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return APIEvent{}, fmt.Errorf("polymarket/gamma: get event by slug %s: %w", slug, err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return APIEvent{}, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	if len(events) == 0 {
		return APIEvent{}, fmt.Errorf("polymarket/gamma: %w: slug=%s", domain.ErrNotFound, slug)
	}
	return events[0], nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API, retrying
// transient 5xx responses with exponential backoff.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	delay := retryBaseDelay
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, retryable, err := g.getOnce(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// getOnce performs a single GET. The bool return reports whether the failure
// is worth retrying (network error or 5xx).
func (g *GammaClient) getOnce(ctx context.Context, path string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, resp.StatusCode >= 500, err
	}
	return body, false, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

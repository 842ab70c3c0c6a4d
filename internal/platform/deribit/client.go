package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

const (
	// maxAttempts bounds the retry loop for requests that fail with a
	// transient 5xx status.
	maxAttempts = 5

	// retryBaseDelay is the first backoff step; subsequent attempts double it.
	retryBaseDelay = 300 * time.Millisecond
)

// Client is a REST client for the public (unauthenticated) Deribit API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Deribit client.
//
// baseURL is the API root including the version prefix, e.g.
// "https://www.deribit.com/api/v2".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetBookSummaries returns the top-of-book summary for every live option
// instrument on the given currency ("BTC", "ETH").
func (c *Client) GetBookSummaries(ctx context.Context, currency string) ([]BookSummary, error) {
	params := url.Values{}
	params.Set("currency", currency)
	params.Set("kind", "option")

	raw, err := c.doGet(ctx, "/public/get_book_summary_by_currency?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("deribit: book summaries %s: %w", currency, err)
	}

	var summaries []BookSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return nil, fmt.Errorf("deribit: decode book summaries: %w", err)
	}
	return summaries, nil
}

// GetIndexPrice returns the current index price for an index name such as
// "btc_usd".
func (c *Client) GetIndexPrice(ctx context.Context, indexName string) (float64, error) {
	params := url.Values{}
	params.Set("index_name", indexName)

	raw, err := c.doGet(ctx, "/public/get_index_price?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("deribit: index price %s: %w", indexName, err)
	}

	var result struct {
		IndexPrice float64 `json:"index_price"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("deribit: decode index price: %w", err)
	}
	return result.IndexPrice, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// rpcEnvelope is the JSON-RPC style wrapper every Deribit response uses.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// doGet sends a GET request and unwraps the JSON-RPC envelope, retrying
// transient 5xx responses with exponential backoff.
func (c *Client) doGet(ctx context.Context, path string) (json.RawMessage, error) {
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

		raw, retryable, err := c.getOnce(ctx, path)
		if err == nil {
			return raw, nil
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
func (c *Client) getOnce(ctx context.Context, path string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("%w: %s", domain.ErrRateLimited, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Error != nil {
		return nil, false, fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return envelope.Result, false, nil
}

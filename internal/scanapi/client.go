package scanapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the scanner backend. Every method is a single outbound
// read: no caching, no retry, no auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	prefix     string
}

// NewClient returns a client for the backend at baseURL. apiPrefix is the
// path all endpoints live under, normally "/api".
func NewClient(baseURL, apiPrefix string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     apiPrefix,
	}
}

// Universes fetches the list of selectable universes.
func (c *Client) Universes(ctx context.Context) ([]Universe, error) {
	var universes []Universe
	if err := c.get(ctx, "/universes", nil, &universes); err != nil {
		return nil, err
	}
	return universes, nil
}

// Stocks fetches the raw constituent list for one universe. An unknown key
// is not an error: the backend answers with Count 0.
func (c *Client) Stocks(ctx context.Context, universeKey string) (StockList, error) {
	q := url.Values{}
	q.Set("universe", universeKey)
	var list StockList
	if err := c.get(ctx, "/stocks", q, &list); err != nil {
		return StockList{}, err
	}
	return list, nil
}

// Chart fetches the OHLCV payload for one symbol and timeframe. A payload
// with an empty date series means the backend has no rows; that case returns
// (nil, nil) so callers can clear the chart without treating it as a failure.
// Payloads whose co-indexed series disagree on length are rejected here and
// never reach the caller.
func (c *Client) Chart(ctx context.Context, symbol, tf string) (*ChartPayload, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("tf", tf)
	var payload ChartPayload
	if err := c.get(ctx, "/chart", q, &payload); err != nil {
		return nil, err
	}
	if payload.Len() == 0 {
		return nil, nil
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("chart %s %s: %w", symbol, tf, err)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + c.prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d, body: %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

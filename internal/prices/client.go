package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client fetches daily closing prices and issuer fundamentals from the
// market data API. Calls are rate limited and carry a per-request timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a market data client.
func NewClient(baseURL, apiKey string, requestsPerSecond float64, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// DailyCloses returns every closing price recorded for the single calendar
// day. An empty result means the market was closed that day.
func (c *Client) DailyCloses(ctx context.Context, ticker string, day time.Time) ([]decimal.Decimal, error) {
	d := day.Format("2006-01-02")
	addr := fmt.Sprintf("%s/api/eod/%s?fmt=json&from=%s&to=%s&api_token=%s",
		c.baseURL, url.PathEscape(ticker), d, d, c.apiKey)

	type row struct {
		Date  string          `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	rows := make([]row, 0)
	if err := c.getJSON(ctx, addr, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch closes for %s on %s: %w", ticker, d, err)
	}

	closes := make([]decimal.Decimal, 0, len(rows))
	for _, r := range rows {
		closes = append(closes, r.Close)
	}
	return closes, nil
}

// Profile returns the issuer's industry and sector.
func (c *Client) Profile(ctx context.Context, ticker string) (*Profile, error) {
	addr := fmt.Sprintf("%s/api/fundamentals/%s?fmt=json&filter=General&api_token=%s",
		c.baseURL, url.PathEscape(ticker), c.apiKey)

	var payload struct {
		Industry string `json:"Industry"`
		Sector   string `json:"Sector"`
	}
	if err := c.getJSON(ctx, addr, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", ticker, err)
	}
	return &Profile{Industry: payload.Industry, Sector: payload.Sector}, nil
}

func (c *Client) getJSON(ctx context.Context, addr string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

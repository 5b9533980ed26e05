package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned when the quote API answers but has no
// usable price for the symbol (unknown ticker, throttled, empty payload).
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Client talks to the market data API (Alpha Vantage query shape). Base URL
// and key are injected at construction; no call reads global state.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient builds a quote client with a bounded per-call timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

// GetPrice fetches the current market price for a symbol. Failures are per
// call; the caller decides how to degrade.
func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.APIKey)

	var out globalQuoteResponse
	if err := c.getJSON(ctx, q, &out); err != nil {
		return decimal.Zero, err
	}
	if out.GlobalQuote.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}
	price, err := decimal.NewFromString(out.GlobalQuote.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price for %s: %w", symbol, err)
	}
	return price, nil
}

// SymbolMatch is one search result.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol   string `json:"1. symbol"`
		Name     string `json:"2. name"`
		Type     string `json:"3. type"`
		Region   string `json:"4. region"`
		Currency string `json:"8. currency"`
	} `json:"bestMatches"`
}

// SearchSymbols proxies a ticker/company search to the market data API.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	q := url.Values{}
	q.Set("function", "SYMBOL_SEARCH")
	q.Set("keywords", query)
	q.Set("apikey", c.APIKey)

	var out symbolSearchResponse
	if err := c.getJSON(ctx, q, &out); err != nil {
		return nil, err
	}
	matches := make([]SymbolMatch, 0, len(out.BestMatches))
	for _, m := range out.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     m.Type,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}
	return matches, nil
}

func (c *Client) getJSON(ctx context.Context, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Ticker resolution statuses.
const (
	TickerValid    = "valid"
	TickerNotFound = "not_found"
	TickerInvalid  = "invalid"
)

// TickerInfo is the result of a ticker lookup. Failures are surfaced in
// the Error field rather than an error return; callers must check it.
type TickerInfo struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// YahooClient resolves tickers and quote documents from the Yahoo
// Finance search and quote endpoints.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewYahooClient creates a Yahoo Finance client.
func NewYahooClient(timeout time.Duration, logger *logrus.Logger) *YahooClient {
	return &YahooClient{
		baseURL: "https://query2.finance.yahoo.com",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ResolveTicker looks up the most likely ticker for a company name.
func (c *YahooClient) ResolveTicker(ctx context.Context, companyName string) TickerInfo {
	params := url.Values{}
	params.Add("q", companyName)
	params.Add("quotesCount", "1")
	params.Add("newsCount", "0")

	var response struct {
		Quotes []struct {
			Symbol   string `json:"symbol"`
			Exchange string `json:"exchange"`
		} `json:"quotes"`
	}

	err := c.getJSON(ctx, fmt.Sprintf("%s/v1/finance/search?%s", c.baseURL, params.Encode()), &response)
	if err != nil {
		c.logger.Warnf("Ticker resolution failed for %q: %v", companyName, err)
		return TickerInfo{Status: TickerInvalid, Error: err.Error()}
	}

	if len(response.Quotes) == 0 || response.Quotes[0].Symbol == "" {
		return TickerInfo{Status: TickerNotFound}
	}

	return TickerInfo{
		Ticker:   response.Quotes[0].Symbol,
		Exchange: response.Quotes[0].Exchange,
		Status:   TickerValid,
	}
}

// GetQuoteDocument fetches a quote as an opaque JSON document for
// fallback-chain lookups.
func (c *YahooClient) GetQuoteDocument(ctx context.Context, symbol string) (interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)

	var doc interface{}
	err := c.getJSON(ctx, fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, params.Encode()), &doc)
	if err != nil {
		return nil, fmt.Errorf("quote request failed for %s: %w", symbol, err)
	}
	return doc, nil
}

func (c *YahooClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// SetBaseURL overrides the API endpoint; used by tests.
func (c *YahooClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

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

// QuoteResult carries a quote lookup. Failures are surfaced in the
// Error field, never raised to the caller's caller.
type QuoteResult struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Error  string `json:"error,omitempty"`
}

// Fields tried in order when extracting a price from a Twelve Data
// quote document.
var twelveDataPriceChain = []Lookup{
	{Source: "quote", Path: "$.close"},
	{Source: "quote", Path: "$.previous_close"},
}

// TwelveDataClient fetches quotes from the Twelve Data API.
type TwelveDataClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTwelveDataClient creates a Twelve Data client.
func NewTwelveDataClient(apiKey string, timeout time.Duration, logger *logrus.Logger) *TwelveDataClient {
	return &TwelveDataClient{
		apiKey:  apiKey,
		baseURL: "https://api.twelvedata.com",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetQuote fetches the latest quote for a symbol. The price is resolved
// through the documented fallback chain (close, then previous_close).
func (c *TwelveDataClient) GetQuote(ctx context.Context, symbol string) QuoteResult {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("apikey", c.apiKey)

	requestURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return QuoteResult{Symbol: symbol, Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf("Quote request failed for %s: %v", symbol, err)
		return QuoteResult{Symbol: symbol, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return QuoteResult{Symbol: symbol, Error: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return QuoteResult{Symbol: symbol, Error: err.Error()}
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return QuoteResult{Symbol: symbol, Error: fmt.Sprintf("bad JSON: %v", err)}
	}

	val, ok := Resolve(map[string]interface{}{"quote": doc}, twelveDataPriceChain)
	if !ok {
		return QuoteResult{Symbol: symbol, Error: "no price field in quote response"}
	}

	switch v := val.(type) {
	case string:
		return QuoteResult{Symbol: symbol, Price: v}
	case float64:
		return QuoteResult{Symbol: symbol, Price: fmt.Sprintf("%g", v)}
	default:
		return QuoteResult{Symbol: symbol, Error: fmt.Sprintf("unexpected price type %T", val)}
	}
}

// SetBaseURL overrides the API endpoint; used by tests.
func (c *TwelveDataClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

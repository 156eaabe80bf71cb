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

// FMPClient handles Financial Modeling Prep API requests.
type FMPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ETFScreenerResult is one row of the FMP stock screener.
type ETFScreenerResult struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	MarketCap   float64 `json:"marketCap"`
	Country     string  `json:"country"`
	IsETF       bool    `json:"isEtf"`
}

// CountryWeighting is one country allocation of an ETF.
type CountryWeighting struct {
	Country          string `json:"country"`
	WeightPercentage string `json:"weightPercentage"`
}

// ETFInfo is the detailed profile of an ETF.
type ETFInfo struct {
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	ISIN                  string  `json:"isin"`
	AssetClass            string  `json:"assetClass"`
	SecurityCusip         string  `json:"securityCusip"`
	Domicile              string  `json:"domicile"`
	Website               string  `json:"website"`
	ETFCompany            string  `json:"etfCompany"`
	ExpenseRatio          float64 `json:"expenseRatio"`
	AssetsUnderManagement float64 `json:"assetsUnderManagement"`
	AvgVolume             float64 `json:"avgVolume"`
	InceptionDate         string  `json:"inceptionDate"`
	NAV                   float64 `json:"nav"`
	NAVCurrency           string  `json:"navCurrency"`
	HoldingsCount         int     `json:"holdingsCount"`
	UpdatedAt             string  `json:"updatedAt"`
}

// NewFMPClient creates a new Financial Modeling Prep API client.
func NewFMPClient(apiKey string, timeout time.Duration, logger *logrus.Logger) *FMPClient {
	return &FMPClient{
		apiKey:  apiKey,
		baseURL: "https://financialmodelingprep.com/api/v3",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ScreenETFs fetches the ETF universe for a country from the screener.
func (c *FMPClient) ScreenETFs(ctx context.Context, country string) ([]ETFScreenerResult, error) {
	params := url.Values{}
	params.Add("apikey", c.apiKey)
	params.Add("isEtf", "true")
	params.Add("country", country)

	var results []ETFScreenerResult
	if err := c.getJSON(ctx, fmt.Sprintf("%s/stock-screener?%s", c.baseURL, params.Encode()), &results); err != nil {
		return nil, fmt.Errorf("screener request failed: %w", err)
	}

	c.logger.Infof("Retrieved %d %s ETFs from screener", len(results), country)
	return results, nil
}

// GetCountryWeightings fetches an ETF's country allocations.
func (c *FMPClient) GetCountryWeightings(ctx context.Context, symbol string) ([]CountryWeighting, error) {
	params := url.Values{}
	params.Add("apikey", c.apiKey)
	params.Add("symbol", symbol)

	var weightings []CountryWeighting
	if err := c.getJSON(ctx, fmt.Sprintf("%s/etf/country-weightings?%s", c.baseURL, params.Encode()), &weightings); err != nil {
		return nil, fmt.Errorf("country weightings request failed for %s: %w", symbol, err)
	}
	return weightings, nil
}

// GetETFInfo fetches an ETF's detailed profile.
func (c *FMPClient) GetETFInfo(ctx context.Context, symbol string) (*ETFInfo, error) {
	params := url.Values{}
	params.Add("apikey", c.apiKey)
	params.Add("symbol", symbol)

	var infos []ETFInfo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/etf/info?%s", c.baseURL, params.Encode()), &infos); err != nil {
		return nil, fmt.Errorf("etf info request failed for %s: %w", symbol, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no etf info found for %s", symbol)
	}
	return &infos[0], nil
}

// GetProfileDocument fetches a company profile as an opaque JSON
// document for fallback-chain lookups.
func (c *FMPClient) GetProfileDocument(ctx context.Context, symbol string) (interface{}, error) {
	params := url.Values{}
	params.Add("apikey", c.apiKey)

	var doc interface{}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/profile/%s?%s", c.baseURL, symbol, params.Encode()), &doc); err != nil {
		return nil, fmt.Errorf("profile request failed for %s: %w", symbol, err)
	}
	return doc, nil
}

func (c *FMPClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

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
func (c *FMPClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

package scrape

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

const treasuriesPage = `<html><body><table>
<tr><th>Name</th><th>Symbol</th><th>Market Cap</th><th>EV</th><th>BTC</th><th>BTC/Share</th><th>Cost Basis</th><th>USD Value</th><th>NgU</th><th>mNAV</th><th>MCap Ratio</th><th>21m Ratio</th></tr>
<tr><td>Strategy</td><td>MSTR</td><td>$90B</td><td>$95B</td><td>226,331</td><td>0.0011</td><td>$35,000</td><td>$14.6B</td><td>1.2</td><td>1.8</td><td>0.9</td><td>1.1%</td></tr>
<tr><td>Strategy</td><td>MSTR</td><td>$90B</td><td>$95B</td><td>226,331</td><td>0.0011</td><td>$35,000</td><td>$14.6B</td><td>1.2</td><td>1.8</td><td>0.9</td><td>1.1%</td></tr>
<tr><td>Metaplanet</td><td>3350.T</td><td>$4B</td><td>$4.2B</td><td>20,000</td><td>0.002</td><td>$60,000</td><td>$2.1B</td><td>1.1</td><td>1.4</td><td>0.8</td><td>0.1%</td></tr>
<tr><td>Short Row</td><td>X</td></tr>
</table></body></html>`

func TestTreasuryScraperScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(treasuriesPage))
	}))
	defer srv.Close()

	s := NewTreasuryScraper(nil, "bitcoin_treasuries", testLogger())
	s.SetSourceURL(srv.URL)

	entries, err := s.Scrape()
	require.NoError(t, err)

	// The header row, the short row and the repeated company all drop out.
	require.Len(t, entries, 2)

	assert.Equal(t, "Strategy", entries[0].CompanyName)
	assert.Equal(t, "strategy", entries[0].NormalizedName)
	assert.Equal(t, "MSTR", entries[0].Ticker)
	assert.Equal(t, "226,331", entries[0].BTCHoldings)
	assert.Equal(t, "$14.6B", entries[0].USDValue)
	assert.Equal(t, "Public Company", entries[0].EntityType)
	assert.Equal(t, "Unknown", entries[0].Country)

	assert.Equal(t, "Metaplanet", entries[1].CompanyName)
	assert.Equal(t, "$4B", entries[1].MarketCap)
}

func TestValid(t *testing.T) {
	entries := []Entry{
		{CompanyName: "Strategy", Country: "Unknown", BTCHoldings: "226,331"},
		{CompanyName: "", Country: "Unknown", BTCHoldings: "100"},
		{CompanyName: "No Holdings", Country: "Unknown", BTCHoldings: "n/a"},
		{CompanyName: "No Country", Country: "", BTCHoldings: "100"},
	}

	out := Valid(entries)
	require.Len(t, out, 1)
	assert.Equal(t, "Strategy", out[0].CompanyName)
}

func TestDedupe(t *testing.T) {
	entries := []Entry{
		{CompanyName: "Marathon Digital", NormalizedName: "marathon digital"},
		{CompanyName: "Marathon Digitol", NormalizedName: "marathon digitol"},
		{CompanyName: "Riot Platforms", NormalizedName: "riot platforms"},
		{CompanyName: "", NormalizedName: ""},
	}

	out := Dedupe(entries)
	require.Len(t, out, 2)
	assert.Equal(t, "Marathon Digital", out[0].CompanyName)
	assert.Equal(t, "Riot Platforms", out[1].CompanyName)
}

const yieldmaxPage = `<html><body>
<table><tr><th>Unrelated</th></tr><tr><td>skip me</td></tr></table>
<table>
<tr><th>wdt_ID</th><th>Ticker</th><th>Fund Name</th><th>Reference Asset</th><th>Distribution Rate</th><th>30-Day SEC Yield</th><th>Expense Ratio</th></tr>
<tr><td>1</td><td>MSTY</td><td>YieldMax MSTR Option Income Strategy ETF</td><td>MSTR</td><td>[92.35%]</td><td>4.10%</td><td>0.99%</td></tr>
<tr><td>2</td><td>TSLY</td><td>YieldMax TSLA Option Income Strategy ETF</td><td>TSLA</td><td>—</td><td>-</td><td></td></tr>
<tr><td>3</td><td></td><td>Nameless</td><td>X</td><td>1%</td><td>1%</td><td>1%</td></tr>
</table></body></html>`

func TestYieldMaxScraperScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yieldmaxPage))
	}))
	defer srv.Close()

	s := NewYieldMaxScraper(nil, testLogger())
	s.SetSourceURL(srv.URL)

	rows, err := s.Scrape()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "MSTY", rows[0].Ticker)
	assert.Equal(t, "MSTR", rows[0].ReferenceAsset)
	assert.Equal(t, "92.35%", rows[0].DistributionRate, "bracket artifacts stripped")
	assert.Equal(t, "0.99%", rows[0].ExpenseRatio)

	// Dash and empty placeholders normalize to a zero rate.
	assert.Equal(t, "TSLY", rows[1].Ticker)
	assert.Equal(t, "0.00%", rows[1].DistributionRate)
	assert.Equal(t, "0.00%", rows[1].SECYield)
	assert.Equal(t, "0.00%", rows[1].ExpenseRatio)
}

func TestCleanPercent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[92.35%]", "92.35%"},
		{"-", "0.00%"},
		{"—", "0.00%"},
		{"", "0.00%"},
		{" 4.10% ", "4.10%"},
	}
	for _, tt := range tests {
		if got := cleanPercent(tt.input); got != tt.expected {
			t.Errorf("cleanPercent(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

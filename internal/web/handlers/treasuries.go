package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/btc-treasury/internal/dedupe"
	"github.com/btc-treasury/internal/scrape"
)

// TreasuryRow is one listing entry returned by the API.
type TreasuryRow struct {
	CompanyName     string `json:"company_name"`
	BTCHoldings     string `json:"btc_holdings"`
	USDValue        string `json:"usd_value"`
	EntityURL       string `json:"entity_url,omitempty"`
	Ticker          string `json:"ticker,omitempty"`
	MarketCap       string `json:"market_cap,omitempty"`
	EnterpriseValue string `json:"enterprise_value,omitempty"`
	BTCPerShare     string `json:"btc_per_share,omitempty"`
	CostBasis       string `json:"cost_basis,omitempty"`
	NGU             string `json:"ngu,omitempty"`
	MNAV            string `json:"mnav,omitempty"`
	McapRatio       string `json:"mcap_ratio,omitempty"`
	Ratio21M        string `json:"ratio_21m,omitempty"`
}

// TreasuriesHandler serves the holdings listing and the manual batch
// triggers.
type TreasuriesHandler struct {
	DB       *sql.DB
	Table    string
	Scraper  *scrape.TreasuryScraper
	Pipeline *dedupe.Pipeline
	Logger   *logrus.Logger
}

// ListTreasuries returns all rows sorted by BTC holdings descending.
// Holdings are stored as display strings, so the sort parses them.
func (h *TreasuriesHandler) ListTreasuries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(fmt.Sprintf(`
		SELECT company_name, btc_holdings, usd_value,
		       COALESCE(entity_url, ''), COALESCE(ticker, ''),
		       COALESCE(market_cap, ''), COALESCE(enterprise_value, ''),
		       COALESCE(btc_per_share, ''), COALESCE(cost_basis, ''),
		       COALESCE(ngu, ''), COALESCE(mnav, ''),
		       COALESCE(mcap_ratio, ''), COALESCE(ratio_21m, '')
		FROM %q`, h.Table))
	if err != nil {
		h.Logger.Errorf("Failed to query treasuries: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var out []TreasuryRow
	for rows.Next() {
		var t TreasuryRow
		err := rows.Scan(&t.CompanyName, &t.BTCHoldings, &t.USDValue, &t.EntityURL,
			&t.Ticker, &t.MarketCap, &t.EnterpriseValue, &t.BTCPerShare,
			&t.CostBasis, &t.NGU, &t.MNAV, &t.McapRatio, &t.Ratio21M)
		if err != nil {
			h.Logger.Errorf("Failed to scan treasury row: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	sort.SliceStable(out, func(i, j int) bool {
		return parseBTC(out[i].BTCHoldings) > parseBTC(out[j].BTCHoldings)
	})

	writeJSON(w, http.StatusOK, out)
}

// TriggerScrape runs the treasuries scrape synchronously.
func (h *TreasuriesHandler) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	written, err := h.Scraper.Run()
	if err != nil {
		h.Logger.Errorf("Manual scrape failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Manual scrape failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Manual scrape completed",
		"written": written,
	})
}

// TriggerDedupe runs one dedup batch synchronously.
func (h *TreasuriesHandler) TriggerDedupe(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Pipeline.Run(r.Context())
	if err != nil {
		h.Logger.Errorf("Manual dedup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Dedup run failed"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health reports server and database liveness.
func (h *TreasuriesHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseBTC pulls a sortable number out of a display string such as
// "226,331 BTC".
func parseBTC(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

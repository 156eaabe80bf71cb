package scrape

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/btc-treasury/internal/dedupe"
	"github.com/btc-treasury/internal/normalize"
)

// Entry is one scraped holdings row before it reaches the database.
type Entry struct {
	CompanyName     string
	NormalizedName  string
	Country         string
	EntityType      string
	Ticker          string
	BTCHoldings     string
	USDValue        string
	MarketCap       string
	EnterpriseValue string
	BTCPerShare     string
	CostBasis       string
	NGU             string
	MNAV            string
	McapRatio       string
	Ratio21M        string
}

// TreasuryScraper pulls the public-company holdings table from
// bitcointreasuries.net and upserts it into the treasuries table.
type TreasuryScraper struct {
	collector  *colly.Collector
	db         *sql.DB
	normalizer *normalize.CompanyNormalizer
	table      string
	sourceURL  string
	logger     *logrus.Logger
}

// NewTreasuryScraper creates a treasuries scraper writing into table.
func NewTreasuryScraper(db *sql.DB, table string, logger *logrus.Logger) *TreasuryScraper {
	return &TreasuryScraper{
		collector:  colly.NewCollector(),
		db:         db,
		normalizer: normalize.NewCompanyNormalizer(),
		table:      table,
		sourceURL:  "https://bitcointreasuries.net/",
		logger:     logger,
	}
}

// SetSourceURL overrides the listing page; used by tests.
func (s *TreasuryScraper) SetSourceURL(u string) {
	s.sourceURL = u
}

// Scrape fetches the listing page and returns the parsed rows, deduped
// within the batch by normalized company name.
func (s *TreasuryScraper) Scrape() ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)

	s.collector.OnHTML("table tr", func(e *colly.HTMLElement) {
		cells := e.ChildTexts("td")
		// Header rows carry th cells; data rows carry at least the 12
		// listing columns.
		if len(cells) < 12 {
			return
		}

		name := strings.TrimSpace(cells[0])
		normalized := s.normalizer.Canonical(name)
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true

		entries = append(entries, Entry{
			CompanyName:     name,
			NormalizedName:  normalized,
			Country:         "Unknown",
			EntityType:      "Public Company",
			Ticker:          strings.TrimSpace(cells[1]),
			MarketCap:       strings.TrimSpace(cells[2]),
			EnterpriseValue: strings.TrimSpace(cells[3]),
			BTCHoldings:     strings.TrimSpace(cells[4]),
			BTCPerShare:     strings.TrimSpace(cells[5]),
			CostBasis:       strings.TrimSpace(cells[6]),
			USDValue:        strings.TrimSpace(cells[7]),
			NGU:             strings.TrimSpace(cells[8]),
			MNAV:            strings.TrimSpace(cells[9]),
			McapRatio:       strings.TrimSpace(cells[10]),
			Ratio21M:        strings.TrimSpace(cells[11]),
		})
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		s.logger.Errorf("Error scraping %s: %v", r.Request.URL, err)
	})

	if err := s.collector.Visit(s.sourceURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.sourceURL, err)
	}
	s.collector.Wait()

	s.logger.Infof("Parsed %d company rows", len(entries))
	return entries, nil
}

// Run scrapes the listing and upserts every valid row in one
// transaction. Returns the number of rows written.
func (s *TreasuryScraper) Run() (int, error) {
	entries, err := s.Scrape()
	if err != nil {
		return 0, err
	}
	entries = Dedupe(Valid(entries))

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin scrape transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %q
			(company_name, normalized_company_name, country, entity_type, ticker,
			 btc_holdings, usd_value, market_cap, enterprise_value, btc_per_share,
			 cost_basis, ngu, mnav, mcap_ratio, ratio_21m, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (normalized_company_name) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			country = EXCLUDED.country,
			btc_holdings = EXCLUDED.btc_holdings,
			usd_value = EXCLUDED.usd_value,
			market_cap = EXCLUDED.market_cap,
			enterprise_value = EXCLUDED.enterprise_value,
			btc_per_share = EXCLUDED.btc_per_share,
			cost_basis = EXCLUDED.cost_basis,
			ngu = EXCLUDED.ngu,
			mnav = EXCLUDED.mnav,
			mcap_ratio = EXCLUDED.mcap_ratio,
			ratio_21m = EXCLUDED.ratio_21m,
			last_updated = NOW()`, s.table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, e := range entries {
		_, err := stmt.Exec(e.CompanyName, e.NormalizedName, e.Country, e.EntityType,
			e.Ticker, e.BTCHoldings, e.USDValue, e.MarketCap, e.EnterpriseValue,
			e.BTCPerShare, e.CostBasis, e.NGU, e.MNAV, e.McapRatio, e.Ratio21M)
		if err != nil {
			s.logger.Errorf("Failed to upsert %s: %v", e.CompanyName, err)
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scrape: %w", err)
	}

	s.logger.Infof("Upserted %d of %d scraped companies", written, len(entries))
	return written, nil
}

// Valid filters out rows without a usable name, country or numeric
// holdings figure.
func Valid(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.CompanyName == "" || e.Country == "" {
			continue
		}
		if _, err := strconv.ParseFloat(numericOnly(e.BTCHoldings), 64); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Dedupe drops near-duplicate rows within one batch: a row is kept only
// when its normalized name is not 90%-similar to any already-kept name.
func Dedupe(entries []Entry) []Entry {
	var out []Entry
	var kept []string
	for _, e := range entries {
		if e.NormalizedName == "" {
			continue
		}
		dup := false
		for _, k := range kept {
			if dedupe.Ratio(e.NormalizedName, k) > 90 {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, e)
		kept = append(kept, e.NormalizedName)
	}
	return out
}

func numericOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

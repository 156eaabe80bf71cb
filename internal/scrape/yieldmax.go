package scrape

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// FundRow is one parsed row from the YieldMax ETF listing table.
type FundRow struct {
	Ticker           string
	FundName         string
	ReferenceAsset   string
	DistributionRate string
	SECYield         string
	ExpenseRatio     string
}

// YieldMaxScraper pulls the fund listing from yieldmaxetfs.com and
// maintains the fallback_etf_data table used when the primary dividend
// sources come up empty.
type YieldMaxScraper struct {
	collector *colly.Collector
	db        *sql.DB
	sourceURL string
	logger    *logrus.Logger
}

// NewYieldMaxScraper creates a YieldMax listing scraper.
func NewYieldMaxScraper(db *sql.DB, logger *logrus.Logger) *YieldMaxScraper {
	return &YieldMaxScraper{
		collector: colly.NewCollector(),
		db:        db,
		sourceURL: "https://www.yieldmaxetfs.com/our-etfs/",
		logger:    logger,
	}
}

// SetSourceURL overrides the listing page; used by tests.
func (s *YieldMaxScraper) SetSourceURL(u string) {
	s.sourceURL = u
}

// EnsureSchema creates the fallback table when missing.
func (s *YieldMaxScraper) EnsureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fallback_etf_data (
			id SERIAL PRIMARY KEY,
			ticker VARCHAR(20) UNIQUE,
			fund_name VARCHAR(255),
			reference_asset VARCHAR(255),
			distribution_rate VARCHAR(50),
			sec_yield VARCHAR(50),
			expense_ratio VARCHAR(50)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create fallback_etf_data: %w", err)
	}
	return nil
}

// Scrape fetches the listing page and parses the fund table. Only the
// table whose headers include a ticker and a distribution rate column is
// read; other tables on the page are ignored.
func (s *YieldMaxScraper) Scrape() ([]FundRow, error) {
	var rows []FundRow

	s.collector.OnHTML("table", func(e *colly.HTMLElement) {
		headers := e.ChildTexts("th")
		joined := strings.ToLower(strings.Join(headers, " "))
		if !strings.Contains(joined, "ticker") || !strings.Contains(joined, "distribution rate") {
			return
		}

		e.ForEach("tr:not(:first-child)", func(i int, el *colly.HTMLElement) {
			cells := el.ChildTexts("td")
			// First cell is the table widget's row id.
			if len(cells) < 7 {
				return
			}
			row := FundRow{
				Ticker:           strings.TrimSpace(cells[1]),
				FundName:         strings.TrimSpace(cells[2]),
				ReferenceAsset:   strings.TrimSpace(cells[3]),
				DistributionRate: cleanPercent(cells[4]),
				SECYield:         cleanPercent(cells[5]),
				ExpenseRatio:     cleanPercent(cells[6]),
			}
			if row.Ticker == "" || row.FundName == "" {
				return
			}
			rows = append(rows, row)
		})
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		s.logger.Errorf("Error scraping %s: %v", r.Request.URL, err)
	})

	if err := s.collector.Visit(s.sourceURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.sourceURL, err)
	}
	s.collector.Wait()

	s.logger.Infof("Parsed %d fund rows", len(rows))
	return rows, nil
}

// Run scrapes the listing and upserts every fund row.
func (s *YieldMaxScraper) Run() (int, error) {
	if err := s.EnsureSchema(); err != nil {
		return 0, err
	}

	rows, err := s.Scrape()
	if err != nil {
		return 0, err
	}

	written := 0
	for _, r := range rows {
		_, err := s.db.Exec(`
			INSERT INTO fallback_etf_data
				(ticker, fund_name, reference_asset, distribution_rate, sec_yield, expense_ratio)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (ticker) DO UPDATE SET
				fund_name = EXCLUDED.fund_name,
				reference_asset = EXCLUDED.reference_asset,
				distribution_rate = EXCLUDED.distribution_rate,
				sec_yield = EXCLUDED.sec_yield,
				expense_ratio = EXCLUDED.expense_ratio`,
			r.Ticker, r.FundName, r.ReferenceAsset, r.DistributionRate, r.SECYield, r.ExpenseRatio)
		if err != nil {
			s.logger.Errorf("Failed to upsert fund %s: %v", r.Ticker, err)
			continue
		}
		written++
	}

	s.logger.Infof("Upserted %d of %d fund rows", written, len(rows))
	return written, nil
}

// cleanPercent strips bracket artifacts from the listing widget and
// normalizes empty or dash placeholders to a zero rate.
func cleanPercent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "[", "")
	s = strings.ReplaceAll(s, "]", "")
	switch s {
	case "", "-", "—":
		return "0.00%"
	}
	return s
}

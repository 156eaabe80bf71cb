package fetch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ETFIngestor loads the US ETF universe into the usa_etfs table:
// screener rows, per-country weightings and detailed profiles.
type ETFIngestor struct {
	db     *sql.DB
	client *FMPClient
	logger *logrus.Logger
}

// NewETFIngestor creates an ingestor.
func NewETFIngestor(db *sql.DB, client *FMPClient, logger *logrus.Logger) *ETFIngestor {
	return &ETFIngestor{db: db, client: client, logger: logger}
}

// EnsureSchema creates the usa_etfs table when missing.
func (ing *ETFIngestor) EnsureSchema() error {
	_, err := ing.db.Exec(`
		CREATE TABLE IF NOT EXISTS usa_etfs (
			symbol VARCHAR(20) NOT NULL,
			country VARCHAR(100) NOT NULL DEFAULT '',
			weight_percentage VARCHAR(10),
			name VARCHAR(255),
			description TEXT,
			isin VARCHAR(50),
			asset_class VARCHAR(100),
			security_cusip VARCHAR(50),
			domicile VARCHAR(10),
			website TEXT,
			etf_company VARCHAR(100),
			expense_ratio NUMERIC(10,6),
			assets_under_management BIGINT,
			avg_volume BIGINT,
			inception_date DATE,
			nav NUMERIC(12,2),
			nav_currency VARCHAR(10),
			holdings_count INT,
			updated_at TIMESTAMPTZ,
			PRIMARY KEY (symbol, country)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create usa_etfs: %w", err)
	}
	return nil
}

// Run ingests the ETF universe. ETFs already present are skipped;
// per-symbol failures are logged and the batch continues with partial
// results.
func (ing *ETFIngestor) Run(ctx context.Context, country string) (int, error) {
	etfs, err := ing.client.ScreenETFs(ctx, country)
	if err != nil {
		return 0, err
	}

	ingested := 0
	for _, etf := range etfs {
		if etf.Symbol == "" {
			continue
		}

		var exists bool
		err := ing.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM usa_etfs WHERE symbol = $1)`, etf.Symbol).Scan(&exists)
		if err != nil {
			return ingested, fmt.Errorf("failed to check for %s: %w", etf.Symbol, err)
		}
		if exists {
			ing.logger.Infof("ETF %s already exists, skipping", etf.Symbol)
			continue
		}

		if err := ing.ingestSymbol(ctx, etf.Symbol); err != nil {
			ing.logger.Errorf("Failed to ingest %s: %v", etf.Symbol, err)
			continue
		}
		ingested++
	}

	ing.logger.Infof("Ingested %d of %d screened ETFs", ingested, len(etfs))
	return ingested, nil
}

func (ing *ETFIngestor) ingestSymbol(ctx context.Context, symbol string) error {
	weightings, err := ing.client.GetCountryWeightings(ctx, symbol)
	if err != nil {
		return err
	}
	if len(weightings) == 0 {
		return fmt.Errorf("no allocation data for %s", symbol)
	}

	for _, w := range weightings {
		_, err := ing.db.Exec(`
			INSERT INTO usa_etfs (symbol, country, weight_percentage)
			VALUES ($1, $2, $3)
			ON CONFLICT (symbol, country) DO UPDATE SET weight_percentage = EXCLUDED.weight_percentage
		`, symbol, w.Country, w.WeightPercentage)
		if err != nil {
			return fmt.Errorf("failed to insert weighting: %w", err)
		}
	}

	info, err := ing.client.GetETFInfo(ctx, symbol)
	if err != nil {
		// Weightings are already stored; profile detail is best-effort.
		ing.logger.Warnf("No detailed ETF info for %s: %v", symbol, err)
		return nil
	}

	_, err = ing.db.Exec(`
		UPDATE usa_etfs SET
			name = $1, description = $2, isin = $3, asset_class = $4,
			security_cusip = $5, domicile = $6, website = $7, etf_company = $8,
			expense_ratio = $9, assets_under_management = $10, avg_volume = $11,
			inception_date = NULLIF($12, '')::date, nav = $13, nav_currency = $14,
			holdings_count = $15, updated_at = NOW()
		WHERE symbol = $16
	`, info.Name, info.Description, info.ISIN, info.AssetClass,
		info.SecurityCusip, info.Domicile, info.Website, info.ETFCompany,
		info.ExpenseRatio, int64(info.AssetsUnderManagement), int64(info.AvgVolume),
		info.InceptionDate, info.NAV, info.NAVCurrency,
		info.HoldingsCount, symbol)
	if err != nil {
		return fmt.Errorf("failed to update etf info: %w", err)
	}

	return nil
}

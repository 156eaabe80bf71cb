package fetch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// BackfillTickers resolves tickers for rows that have none and stores
// ticker, exchange and resolution status. Lookup failures are recorded
// in ticker_status and never abort the batch.
func BackfillTickers(ctx context.Context, db *sql.DB, table string, yahoo *YahooClient, logger *logrus.Logger) (int, error) {
	rows, err := db.Query(fmt.Sprintf(
		`SELECT id, company_name FROM %q WHERE ticker IS NULL OR ticker = ''`, table))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	type pending struct {
		id   int64
		name string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			return 0, fmt.Errorf("failed to scan row: %w", err)
		}
		todo = append(todo, p)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range todo {
		info := yahoo.ResolveTicker(ctx, p.name)
		if info.Error != "" {
			logger.Warnf("Ticker lookup for %q: %s", p.name, info.Error)
		}
		_, err := db.Exec(fmt.Sprintf(
			`UPDATE %q SET ticker = $1, exchange = $2, ticker_status = $3 WHERE id = $4`, table),
			info.Ticker, info.Exchange, info.Status, p.id)
		if err != nil {
			logger.Errorf("Failed to update %q: %v", p.name, err)
			continue
		}
		if info.Status == TickerValid {
			updated++
		}
	}

	logger.Infof("Resolved %d of %d missing tickers", updated, len(todo))
	return updated, nil
}

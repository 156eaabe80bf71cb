package fetch

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Completer answers a single free-text prompt. The production
// implementation is a Gemini model; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NoDividends is the sentinel stored when every source agrees the
// security pays no dividend.
const NoDividends = "No Dividends"

// Chain tried in order when resolving a dividend rate from the fetched
// quote/profile documents. The LLM fallback runs only when the whole
// chain comes up empty.
var dividendRateChain = []Lookup{
	{Source: "yahoo", Path: "$.quoteResponse.result[0].trailingAnnualDividendRate"},
	{Source: "yahoo", Path: "$.quoteResponse.result[0].dividendRate"},
	{Source: "fmp", Path: "$[0].lastDiv"},
}

// DividendResolver resolves a security's forward dividend rate through
// the documented source order: Yahoo quote, FMP profile, then a
// single-turn LLM answer.
type DividendResolver struct {
	yahoo     *YahooClient
	fmp       *FMPClient
	completer Completer
	logger    *logrus.Logger
}

// NewDividendResolver assembles a resolver. Either client and the
// completer may be nil; nil sources are skipped.
func NewDividendResolver(yahoo *YahooClient, fmp *FMPClient, completer Completer, logger *logrus.Logger) *DividendResolver {
	return &DividendResolver{yahoo: yahoo, fmp: fmp, completer: completer, logger: logger}
}

// Resolve returns the dividend rate for a ticker as a decimal string,
// or NoDividends when no source yields a number.
func (r *DividendResolver) Resolve(ctx context.Context, ticker string) string {
	docs := make(map[string]interface{})

	if r.yahoo != nil {
		if doc, err := r.yahoo.GetQuoteDocument(ctx, ticker); err == nil {
			docs["yahoo"] = doc
		} else {
			r.logger.Warnf("Yahoo quote unavailable for %s: %v", ticker, err)
		}
	}
	if r.fmp != nil {
		if doc, err := r.fmp.GetProfileDocument(ctx, ticker); err == nil {
			docs["fmp"] = doc
		} else {
			r.logger.Warnf("FMP profile unavailable for %s: %v", ticker, err)
		}
	}

	if val, ok := Resolve(docs, dividendRateChain); ok {
		switch v := val.(type) {
		case float64:
			if v > 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		case string:
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				return v
			}
		}
	}

	return r.resolveWithCompleter(ctx, ticker)
}

func (r *DividendResolver) resolveWithCompleter(ctx context.Context, ticker string) string {
	if r.completer == nil {
		return NoDividends
	}

	prompt := fmt.Sprintf(
		`Does the security %q pay regular dividends? If yes, provide the current forward dividend rate per share in US dollars (e.g., "1.25"). If no, reply with "No Dividends". Respond with only the number or "No Dividends".`,
		ticker)

	answer, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warnf("LLM dividend lookup failed for %s: %v", ticker, err)
		return NoDividends
	}

	answer = strings.TrimSpace(answer)
	if _, err := strconv.ParseFloat(answer, 64); err != nil {
		return NoDividends
	}
	return answer
}

// BackfillDividends walks the high-yield ETF table and fills missing
// dividend rates. Per-row failures are logged and skipped; the batch
// always runs to completion.
func BackfillDividends(ctx context.Context, db *sql.DB, table string, resolver *DividendResolver, logger *logrus.Logger) (int, error) {
	rows, err := db.Query(fmt.Sprintf(
		`SELECT ticker FROM %q WHERE dividend_rate IS NULL OR distribution_frequency = 'unknown'`, table))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return 0, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, ticker := range tickers {
		rate := resolver.Resolve(ctx, ticker)
		if rate == NoDividends {
			logger.Infof("No dividend rate found for %s", ticker)
			continue
		}
		_, err := db.Exec(fmt.Sprintf(`UPDATE %q SET dividend_rate = $1 WHERE ticker = $2`, table), rate, ticker)
		if err != nil {
			logger.Errorf("Failed to update %s: %v", ticker, err)
			continue
		}
		logger.Infof("Updated %s with dividend rate %s", ticker, rate)
		updated++
	}

	return updated, nil
}

// ExportDividendCSV writes a CSV backup of the dividend table. Written
// regardless of how the database update fared, as in the original
// batch job.
func ExportDividendCSV(db *sql.DB, table, path string) error {
	rows, err := db.Query(fmt.Sprintf(
		`SELECT ticker, distribution_frequency, dividend_rate FROM %q`, table))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ticker", "distribution_frequency", "dividend_rate"}); err != nil {
		return err
	}

	for rows.Next() {
		var ticker string
		var freq, rate sql.NullString
		if err := rows.Scan(&ticker, &freq, &rate); err != nil {
			return fmt.Errorf("failed to scan dividend row: %w", err)
		}
		if err := w.Write([]string{ticker, freq.String, rate.String}); err != nil {
			return err
		}
	}
	return rows.Err()
}

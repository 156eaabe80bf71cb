package estimate

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset types with distinct default growth-rate profiles.
const (
	AssetCrypto = "crypto"
	AssetStock  = "stock"
	AssetETF    = "etf"
)

// CAGR is a two-phase compound annual growth rate: one rate through
// 2035, a slower one after.
type CAGR struct {
	Early float64
	Late  float64
}

// Scenario holds the three growth scenarios used for an asset class.
type Scenario struct {
	Conservative CAGR
	Base         CAGR
	Bullish      CAGR
}

// DefaultScenario returns the growth profile for an asset type.
// Unrecognized types fall back to the stock profile.
func DefaultScenario(assetType string) Scenario {
	switch strings.ToLower(assetType) {
	case AssetCrypto:
		return Scenario{
			Conservative: CAGR{0.0925, 0.05},
			Base:         CAGR{0.20, 0.10},
			Bullish:      CAGR{0.34, 0.15},
		}
	case AssetETF:
		return Scenario{
			Conservative: CAGR{0.03, 0.02},
			Base:         CAGR{0.10, 0.05},
			Bullish:      CAGR{0.15, 0.08},
		}
	default:
		return Scenario{
			Conservative: CAGR{0.05, 0.03},
			Base:         CAGR{0.15, 0.08},
			Bullish:      CAGR{0.25, 0.12},
		}
	}
}

// Estimate is the projected price band for one year.
type Estimate struct {
	Year         int
	Conservative int64
	Base         int64
	Bullish      int64
}

// Generator produces long-range price estimates and the SQL script that
// stores them.
type Generator struct {
	StartYear int
	EndYear   int
	// Growth switches from the early to the late rate after this year.
	BreakYear int
}

// NewGenerator returns a generator covering 2025 through 2075.
func NewGenerator() *Generator {
	return &Generator{StartYear: 2025, EndYear: 2075, BreakYear: 2035}
}

// Calculate compounds the starting price year by year under each
// scenario, rounding to whole dollars.
func (g *Generator) Calculate(startingPrice float64, s Scenario) []Estimate {
	price := decimal.NewFromFloat(startingPrice)

	var estimates []Estimate
	for year := g.StartYear; year <= g.EndYear; year++ {
		elapsed := year - g.StartYear
		estimates = append(estimates, Estimate{
			Year:         year,
			Conservative: g.compound(price, s.Conservative, year, elapsed),
			Base:         g.compound(price, s.Base, year, elapsed),
			Bullish:      g.compound(price, s.Bullish, year, elapsed),
		})
	}
	return estimates
}

func (g *Generator) compound(price decimal.Decimal, c CAGR, year, elapsed int) int64 {
	rate := c.Early
	if year > g.BreakYear {
		rate = c.Late
	}
	growth := decimal.NewFromFloat(1 + rate).Pow(decimal.NewFromInt(int64(elapsed)))
	return price.Mul(growth).Round(0).IntPart()
}

// SQLScript renders the estimates as a CREATE TABLE plus bulk INSERT
// for the <ticker>_estimates table.
func (g *Generator) SQLScript(ticker string, estimates []Estimate) string {
	table := SanitizeTicker(ticker) + "_estimates"
	upper := strings.ToUpper(SanitizeTicker(ticker))

	var b strings.Builder
	fmt.Fprintf(&b, "-- Creating table to store %s price estimates\n", upper)
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
	b.WriteString("    year INT PRIMARY KEY,\n")
	b.WriteString("    conservative_usd BIGINT,\n")
	b.WriteString("    base_usd BIGINT,\n")
	b.WriteString("    bullish_usd BIGINT\n")
	b.WriteString(");\n\n")
	fmt.Fprintf(&b, "-- Inserting %s price estimates from %d to %d\n", upper, g.StartYear, g.EndYear)
	fmt.Fprintf(&b, "INSERT INTO %s (year, conservative_usd, base_usd, bullish_usd) VALUES\n", table)

	for i, e := range estimates {
		sep := ","
		if i == len(estimates)-1 {
			sep = ";"
		}
		fmt.Fprintf(&b, "(%d, %d, %d, %d)%s\n", e.Year, e.Conservative, e.Base, e.Bullish, sep)
	}
	return b.String()
}

// WriteScript generates the full script for a ticker and writes it to
// path. Returns the artifact id assigned to the run.
func (g *Generator) WriteScript(ticker string, startingPrice float64, assetType, path string) (uuid.UUID, error) {
	estimates := g.Calculate(startingPrice, DefaultScenario(assetType))
	script := g.SQLScript(ticker, estimates)

	artifactID := uuid.New()
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return uuid.Nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return artifactID, nil
}

// SanitizeTicker makes a ticker safe for use in a table name.
func SanitizeTicker(ticker string) string {
	s := strings.ToLower(strings.TrimSpace(ticker))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	return s
}

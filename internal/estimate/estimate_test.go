package estimate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCalculateFirstYearIsStartingPrice(t *testing.T) {
	gen := NewGenerator()
	estimates := gen.Calculate(100000, DefaultScenario(AssetCrypto))

	if len(estimates) != 51 {
		t.Fatalf("expected 51 years of estimates, got %d", len(estimates))
	}
	first := estimates[0]
	if first.Year != 2025 {
		t.Errorf("first year = %d, want 2025", first.Year)
	}
	// Zero years elapsed: every scenario starts at the input price.
	if first.Conservative != 100000 || first.Base != 100000 || first.Bullish != 100000 {
		t.Errorf("first-year estimates %+v should all equal the starting price", first)
	}
}

func TestCalculateCompounds(t *testing.T) {
	gen := NewGenerator()
	estimates := gen.Calculate(1000, DefaultScenario(AssetStock))

	// Stock base CAGR is 15% through 2035: 1000 * 1.15 = 1150.
	second := estimates[1]
	if second.Base != 1150 {
		t.Errorf("2026 base = %d, want 1150", second.Base)
	}

	// Scenarios are ordered for every year.
	for _, e := range estimates {
		if e.Conservative > e.Base || e.Base > e.Bullish {
			t.Errorf("year %d scenarios out of order: %+v", e.Year, e)
		}
	}
}

func TestCalculateGrowthSlowsAfterBreakYear(t *testing.T) {
	gen := NewGenerator()
	s := DefaultScenario(AssetCrypto)
	estimates := gen.Calculate(100000, s)

	byYear := make(map[int]Estimate, len(estimates))
	for _, e := range estimates {
		byYear[e.Year] = e
	}

	// Ratio between consecutive years reflects the active rate: the
	// early base rate before the break year, the late one after.
	early := float64(byYear[2030].Base) / float64(byYear[2029].Base)
	late := float64(byYear[2050].Base) / float64(byYear[2049].Base)
	if early <= late {
		t.Errorf("growth should slow after the break year: early=%f late=%f", early, late)
	}
}

func TestDefaultScenarioFallsBackToStock(t *testing.T) {
	if DefaultScenario("bond") != DefaultScenario(AssetStock) {
		t.Error("unknown asset types should use the stock profile")
	}
}

func TestSQLScript(t *testing.T) {
	gen := NewGenerator()
	estimates := gen.Calculate(100000, DefaultScenario(AssetCrypto))
	script := gen.SQLScript("BTC-USD", estimates)

	if !strings.Contains(script, "CREATE TABLE btc_usd_estimates (") {
		t.Error("script missing sanitized table name")
	}
	if !strings.Contains(script, "INSERT INTO btc_usd_estimates") {
		t.Error("script missing insert statement")
	}
	if !strings.Contains(script, "(2025, 100000, 100000, 100000),") {
		t.Error("script missing first-year row")
	}
	if !strings.HasSuffix(strings.TrimSpace(script), ";") {
		t.Error("last value row must terminate the statement")
	}
}

func TestWriteScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.sql")

	gen := NewGenerator()
	id, err := gen.WriteScript("MSTR", 400, AssetStock, path)
	if err != nil {
		t.Fatalf("WriteScript failed: %v", err)
	}
	if id.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("artifact id not assigned")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("script not written: %v", err)
	}
	if !strings.Contains(string(data), "mstr_estimates") {
		t.Error("written script missing ticker table")
	}
}

func TestSanitizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"BTC-USD", "btc_usd"},
		{"BRK.B", "brk_b"},
		{" MSTY ", "msty"},
	}
	for _, tt := range tests {
		if got := SanitizeTicker(tt.input); got != tt.expected {
			t.Errorf("SanitizeTicker(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

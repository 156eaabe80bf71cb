package normalize

import "testing"

func TestCanonical(t *testing.T) {
	n := NewCompanyNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"alias sovereign", "United States Government", "united states"},
		{"alias artifact", "The Text P", "united states"},
		{"alias usa", "USA", "united states"},
		{"alias uk", "UK Government", "united kingdom"},
		{"alias rebrand", "MicroStrategy", "strategy"},
		{"legal suffix stripped", "Tesla, Inc.", "tesla"},
		{"corporation stripped", "Marathon Digital Holdings Corp.", "marathon digital"},
		{"leading article", "The Blockchain Group", "blockchain"},
		{"plain name", "Metaplanet", "metaplanet"},
		{"whitespace", "  Coinbase  ", "coinbase"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Canonical(tt.input); got != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalCustomAliases(t *testing.T) {
	n := NewCompanyNormalizerWithAliases(map[string]string{
		"Block Inc": "block",
	})

	if got := n.Canonical("Block Inc"); got != "block" {
		t.Errorf("custom alias not applied, got %q", got)
	}
	// Defaults survive the merge.
	if got := n.Canonical("USA"); got != "united states" {
		t.Errorf("default alias lost after merge, got %q", got)
	}
}

func TestExtractOrganization(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Tesla, Inc.", "tesla"},
		{"Galaxy Digital Holdings Ltd", "galaxy digital"},
		{"Nexon Co., Ltd.", "nexon"},
		{"Inc.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractOrganization(tt.input); got != tt.expected {
			t.Errorf("ExtractOrganization(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCountry(t *testing.T) {
	if got := Country("  United States "); got != "united states" {
		t.Errorf("Country() = %q", got)
	}
}

package handlers

import "testing"

func TestParseBTC(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"226,331 BTC", 226331},
		{"226331", 226331},
		{"1,234.5", 1234.5},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		if got := parseBTC(tt.input); got != tt.expected {
			t.Errorf("parseBTC(%q) = %f, want %f", tt.input, got, tt.expected)
		}
	}
}

package dedupe

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"identical", "strategy", "strategy", 100},
		{"both empty", "", "", 100},
		{"one empty", "strategy", "", 0},
		{"single edit", "tesla", "tesle", 80},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.expected {
				t.Errorf("Ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"marathon digital", "marathon digital holdings"},
		{"tesla", "tesle"},
		{"", "x"},
	}
	for _, p := range pairs {
		if Ratio(p[0], p[1]) != Ratio(p[1], p[0]) {
			t.Errorf("Ratio not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestTFIDFVectorsNormalized(t *testing.T) {
	vectors := TFIDFVectors([]string{
		"marathon digital holdings",
		"riot platforms",
		"marathon digital",
	})

	for i, v := range vectors {
		var norm float64
		for _, w := range v {
			norm += w * w
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
			t.Errorf("vector %d not L2-normalized, norm=%f", i, math.Sqrt(norm))
		}
	}
}

func TestCosine(t *testing.T) {
	vectors := TFIDFVectors([]string{
		"marathon digital",
		"marathon digital",
		"riot platforms",
	})

	if sim := Cosine(vectors[0], vectors[1]); math.Abs(sim-1) > 1e-9 {
		t.Errorf("identical docs should have cosine 1, got %f", sim)
	}
	if sim := Cosine(vectors[0], vectors[2]); sim != 0 {
		t.Errorf("disjoint docs should have cosine 0, got %f", sim)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"1234.5", 1234.5, false},
		{"$1,234.5", 1234.5, false},
		{"450 BTC", 450, false},
		{"2.5K", 2500, false},
		{"1.2M", 1200000, false},
		{"3B", 3000000000, false},
		{"$14.6M USD", 14600000, false},
		{"", 0, true},
		{"n/a", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) expected error, got %f", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ParseAmount(%q) = %f, want %f", tt.input, got, tt.expected)
		}
	}
}

func TestStddev(t *testing.T) {
	if got := stddev(nil); got != 0 {
		t.Errorf("stddev(nil) = %f", got)
	}
	if got := stddev([]float64{5, 5, 5}); got != 0 {
		t.Errorf("stddev of constants = %f", got)
	}
	// Population stddev of {2, 4} is 1.
	if got := stddev([]float64{2, 4}); math.Abs(got-1) > 1e-9 {
		t.Errorf("stddev({2,4}) = %f, want 1", got)
	}
}

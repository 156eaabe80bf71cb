package dedupe

import "testing"

func TestTFIDFGenerateFlagsSameCountryPairs(t *testing.T) {
	run := testRun(
		testRecord("Marathon Digital", "United States", "Public Company", "13000", "$800M", "MARA"),
		testRecord("Marathon Digital", "United States", "Public Company", "13726", "$850M", "MARA"),
		testRecord("Riot Platforms", "United States", "Public Company", "9000", "$500M", "RIOT"),
	)

	pairs := NewTFIDFGenerator(0, testLogger()).Generate(run)

	if pairs != 1 {
		t.Fatalf("expected 1 pair, got %d", pairs)
	}
	// The higher index of the pair is the one removed.
	if run.Removals.Has(0) || !run.Removals.Has(1) {
		t.Errorf("expected index 1 removed in favour of index 0")
	}
	removals := run.Removals.List()
	if removals[0].Method != MethodTFIDF || removals[0].SurvivorIndex != 0 {
		t.Errorf("unexpected removal %+v", removals[0])
	}
}

func TestTFIDFGenerateCountryMustMatchExactly(t *testing.T) {
	// Candidate keys are case-folded, but this stage gates on the raw
	// country bytes: "USA" and "Usa" must not pair.
	run := testRun(
		testRecord("Semler Scientific", "USA", "Public Company", "4264", "$250M", "SMLR"),
		testRecord("Semler Scientific", "Usa", "Public Company", "4264", "$250M", "SMLR"),
	)

	if pairs := NewTFIDFGenerator(0, testLogger()).Generate(run); pairs != 0 {
		t.Errorf("raw-country mismatch must never pair, got %d", pairs)
	}
	if run.Removals.Len() != 0 {
		t.Errorf("expected no removals, got %d", run.Removals.Len())
	}
}

func TestTFIDFGenerateSkipsAlreadyRemoved(t *testing.T) {
	run := testRun(
		testRecord("Metaplanet", "Japan", "Public Company", "1000", "$60M", "3350"),
		testRecord("Metaplanet", "Japan", "Public Company", "1000", "$60M", "3350"),
	)
	run.Removals.Add(Removal{Index: 1, SurvivorIndex: 0, Method: MethodFuzzy})

	if pairs := NewTFIDFGenerator(0, testLogger()).Generate(run); pairs != 0 {
		t.Errorf("already-removed rows must not be re-paired, got %d", pairs)
	}
}

func TestTFIDFGenerateThreshold(t *testing.T) {
	// Names share one token out of two; with smoothed IDF the cosine
	// lands well below the 0.85 default.
	run := testRun(
		testRecord("Galaxy Digital", "United States", "Public Company", "8100", "$480M", "GLXY"),
		testRecord("Marathon Digital", "United States", "Public Company", "13726", "$850M", "MARA"),
	)

	if pairs := NewTFIDFGenerator(0, testLogger()).Generate(run); pairs != 0 {
		t.Errorf("partially overlapping names must stay below threshold, got %d", pairs)
	}
}

package dedupe

import "testing"

func TestExactGenerateKeepsValidNameOverTickerEcho(t *testing.T) {
	// Two rows with identical columns; the first row's name is just its
	// ticker echoed back by a failed enrichment.
	run := testRun(
		testRecord("MSTR", "United States", "Public Company", "226331", "$14B", "MSTR"),
		testRecord("Strategy Inc", "United States", "Public Company", "226331", "$14B", "MSTR"),
	)

	groups := NewExactGenerator(testLogger()).Generate(run)

	if groups != 1 {
		t.Fatalf("expected 1 group, got %d", groups)
	}
	if !run.Removals.Has(0) || run.Removals.Has(1) {
		t.Errorf("ticker-echo row must lose to the real name")
	}
}

func TestExactGeneratePlaceholderNamesLose(t *testing.T) {
	tests := []struct {
		name        string
		invalidName string
	}{
		{"apology", "Sorry, I cannot find this company"},
		{"not found", "Company Not Found"},
		{"error", "ERROR fetching name"},
		{"no data", "no data available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := testRun(
				testRecord(tt.invalidName, "Japan", "Public Company", "1000", "$60M", "3350"),
				testRecord("Metaplanet", "Japan", "Public Company", "1000", "$60M", "3350"),
			)
			NewExactGenerator(testLogger()).Generate(run)
			if !run.Removals.Has(0) || run.Removals.Has(1) {
				t.Errorf("placeholder name %q must lose to the real name", tt.invalidName)
			}
		})
	}
}

func TestExactGenerateAllInvalidKeepsFirst(t *testing.T) {
	// When no member has a valid name the first row is kept anyway; a
	// group never deletes all of its members.
	run := testRun(
		testRecord("MARA", "United States", "Public Company", "13726", "$850M", "MARA"),
		testRecord("MARA", "United States", "Public Company", "13726", "$850M", "MARA"),
	)

	NewExactGenerator(testLogger()).Generate(run)

	if run.Removals.Has(0) {
		t.Error("first member must survive an all-invalid group")
	}
	if !run.Removals.Has(1) {
		t.Error("second member should be removed")
	}
}

func TestExactGenerateDifferentColumnsNeverGroup(t *testing.T) {
	run := testRun(
		testRecord("Metaplanet", "Japan", "Public Company", "1000", "$60M", "3350"),
		testRecord("Metaplanet", "Japan", "Public Company", "1001", "$60M", "3350"),
	)

	if groups := NewExactGenerator(testLogger()).Generate(run); groups != 0 {
		t.Errorf("differing holdings must not group, got %d", groups)
	}
}

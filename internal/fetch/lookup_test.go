package fetch

import (
	"encoding/json"
	"testing"
)

func doc(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test document: %v", err)
	}
	return v
}

func TestResolveFirstSourceWins(t *testing.T) {
	docs := map[string]interface{}{
		"yahoo": doc(t, `{"quoteResponse":{"result":[{"trailingAnnualDividendRate":1.25}]}}`),
		"fmp":   doc(t, `[{"lastDiv":0.8}]`),
	}

	val, ok := Resolve(docs, dividendRateChain)
	if !ok {
		t.Fatal("expected a resolution")
	}
	if val.(float64) != 1.25 {
		t.Errorf("expected the yahoo rate, got %v", val)
	}
}

func TestResolveFallsThroughMissingFields(t *testing.T) {
	docs := map[string]interface{}{
		"yahoo": doc(t, `{"quoteResponse":{"result":[{"symbol":"MSTY"}]}}`),
		"fmp":   doc(t, `[{"lastDiv":0.8}]`),
	}

	val, ok := Resolve(docs, dividendRateChain)
	if !ok {
		t.Fatal("expected the fmp fallback to resolve")
	}
	if val.(float64) != 0.8 {
		t.Errorf("expected the fmp rate, got %v", val)
	}
}

func TestResolveSkipsMissingDocuments(t *testing.T) {
	docs := map[string]interface{}{
		"fmp": doc(t, `[{"lastDiv":0.8}]`),
	}

	val, ok := Resolve(docs, dividendRateChain)
	if !ok || val.(float64) != 0.8 {
		t.Errorf("missing source documents must just advance the chain, got %v/%v", val, ok)
	}
}

func TestResolveExhaustedChain(t *testing.T) {
	docs := map[string]interface{}{
		"yahoo": doc(t, `{"quoteResponse":{"result":[]}}`),
	}

	if _, ok := Resolve(docs, dividendRateChain); ok {
		t.Error("exhausted chain must report no resolution")
	}
}

func TestResolveNullValueAdvances(t *testing.T) {
	docs := map[string]interface{}{
		"yahoo": doc(t, `{"quoteResponse":{"result":[{"trailingAnnualDividendRate":null,"dividendRate":0.55}]}}`),
	}

	val, ok := Resolve(docs, dividendRateChain)
	if !ok || val.(float64) != 0.55 {
		t.Errorf("null leaf must advance to the next lookup, got %v/%v", val, ok)
	}
}

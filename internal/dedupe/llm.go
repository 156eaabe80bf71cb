package dedupe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Adjudicator answers which row of a duplicate group to keep. The
// production implementation is a Gemini chat; tests substitute fakes.
type Adjudicator interface {
	PickSurvivor(ctx context.Context, prompt string) (string, error)
}

// GeminiAdjudicator asks a Gemini model in a single turn.
type GeminiAdjudicator struct {
	client *genai.Client
	model  string
}

// NewGeminiAdjudicator wraps a genai client for group adjudication.
func NewGeminiAdjudicator(client *genai.Client, model string) *GeminiAdjudicator {
	return &GeminiAdjudicator{client: client, model: model}
}

// PickSurvivor sends the group summary and returns the raw answer text.
func (g *GeminiAdjudicator) PickSurvivor(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// LLMThresholds gate which exact-name groups are worth an LLM call.
// Groups whose numeric spread stays under both limits are treated as
// upstream noise, not duplicates needing adjudication.
type LLMThresholds struct {
	HoldingsDeviation float64 // BTC units
	ValueDeviation    float64 // USD units
}

// DefaultLLMThresholds returns the production gates.
func DefaultLLMThresholds() *LLMThresholds {
	return &LLMThresholds{
		HoldingsDeviation: 10,
		ValueDeviation:    10_000,
	}
}

// LLMGenerator refines groups of records sharing an exact canonical
// name. Every failure path (numeric parse, request, answer parse,
// out-of-group answer) leaves the group untouched: ambiguous groups are
// never auto-deleted.
type LLMGenerator struct {
	adj    Adjudicator
	tiers  *LLMThresholds
	logger *logrus.Logger
}

// NewLLMGenerator creates an LLM-assisted generator. A nil adjudicator
// disables the stage.
func NewLLMGenerator(adj Adjudicator, tiers *LLMThresholds, logger *logrus.Logger) *LLMGenerator {
	if tiers == nil {
		tiers = DefaultLLMThresholds()
	}
	return &LLMGenerator{adj: adj, tiers: tiers, logger: logger}
}

// Generate groups candidates by exact canonical name and asks the
// adjudicator to pick the most complete record of each group whose
// numeric spread exceeds the thresholds. Returns the number of groups
// adjudicated and the number skipped under the noise gate.
func (g *LLMGenerator) Generate(ctx context.Context, run *Run) (adjudicated, skipped int) {
	if g.adj == nil {
		g.logger.Warn("LLM adjudicator not configured; skipping refinement stage")
		return 0, 0
	}

	byName := make(map[string][]int)
	for i, cand := range run.Candidates {
		if run.Removals.Has(cand.Index) || cand.Name == "" {
			continue
		}
		byName[cand.Name] = append(byName[cand.Name], i)
	}

	names := make([]string, 0, len(byName))
	for name, members := range byName {
		if len(members) > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		members := byName[name]

		holdings, values, err := g.groupNumerics(run, members)
		if err != nil {
			g.logger.Warnf("Skipping group %q: %v", name, err)
			continue
		}
		if stddev(holdings) < g.tiers.HoldingsDeviation && stddev(values) < g.tiers.ValueDeviation {
			skipped++
			continue
		}

		prompt := g.buildPrompt(run, name, members)
		answer, err := g.adj.PickSurvivor(ctx, prompt)
		if err != nil {
			g.logger.Warnf("Adjudication failed for group %q, leaving untouched: %v", name, err)
			continue
		}

		pick, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil || pick < 0 || pick >= len(members) {
			g.logger.Warnf("Unusable adjudication answer %q for group %q, leaving untouched", answer, name)
			continue
		}

		survivor := members[pick]
		for _, m := range members {
			if m == survivor {
				continue
			}
			run.Removals.Add(Removal{
				Index:         run.Candidates[m].Index,
				SurvivorIndex: run.Candidates[survivor].Index,
				Method:        MethodLLM,
				Detail:        fmt.Sprintf("group %q, kept row %d", name, pick),
			})
		}
		adjudicated++
	}

	return adjudicated, skipped
}

// groupNumerics parses the two numeric columns for every group member.
// Any parse failure poisons the whole group (fail-open).
func (g *LLMGenerator) groupNumerics(run *Run, members []int) (holdings, values []float64, err error) {
	for _, m := range members {
		rec := run.Record(run.Candidates[m])
		h, err := ParseAmount(rec.BTCHoldings)
		if err != nil {
			return nil, nil, fmt.Errorf("unparseable btc_holdings %q: %w", rec.BTCHoldings, err)
		}
		v, err := ParseAmount(rec.USDValue)
		if err != nil {
			return nil, nil, fmt.Errorf("unparseable usd_value %q: %w", rec.USDValue, err)
		}
		holdings = append(holdings, h)
		values = append(values, v)
	}
	return holdings, values, nil
}

func (g *LLMGenerator) buildPrompt(run *Run, name string, members []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following rows describe the same entity %q with conflicting figures.\n", name)
	b.WriteString("Answer with only the number of the row to keep (the most complete and current record).\n\n")
	for i, m := range members {
		rec := run.Record(run.Candidates[m])
		fmt.Fprintf(&b, "%d: name=%q country=%q entity_type=%q btc_holdings=%q usd_value=%q\n",
			i, rec.CompanyName, rec.Country, rec.EntityType, rec.BTCHoldings, rec.USDValue)
	}
	return b.String()
}

// ParseAmount parses a formatted amount ("$1,234.5", "1.2M", "450 BTC")
// into a float, stripping currency symbols, thousands separators and
// magnitude suffixes.
func ParseAmount(s string) (float64, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.NewReplacer("$", "", ",", "", " ", "", "BTC", "", "USD", "").Replace(t)
	if t == "" {
		return 0, fmt.Errorf("empty amount")
	}

	mult := decimal.NewFromInt(1)
	switch t[len(t)-1] {
	case 'K':
		mult = decimal.NewFromInt(1_000)
		t = t[:len(t)-1]
	case 'M':
		mult = decimal.NewFromInt(1_000_000)
		t = t[:len(t)-1]
	case 'B':
		mult = decimal.NewFromInt(1_000_000_000)
		t = t[:len(t)-1]
	}

	d, err := decimal.NewFromString(t)
	if err != nil {
		return 0, err
	}
	return d.Mul(mult).InexactFloat64(), nil
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

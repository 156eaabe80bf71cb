package dedupe

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// TFIDFGenerator flags duplicate pairs by TF-IDF cosine similarity on
// canonical names, gated by an exact raw country match.
type TFIDFGenerator struct {
	minSimilarity float64
	logger        *logrus.Logger
}

// NewTFIDFGenerator creates a TF-IDF generator. A minSimilarity of 0
// selects the default of 0.85.
func NewTFIDFGenerator(minSimilarity float64, logger *logrus.Logger) *TFIDFGenerator {
	if minSimilarity == 0 {
		minSimilarity = 0.85
	}
	return &TFIDFGenerator{minSimilarity: minSimilarity, logger: logger}
}

// Generate vectorizes the canonical names of the surviving rows and
// flags every pair (i, j), i < j, with cosine >= threshold and byte-equal
// raw country strings. The higher index is always the one removed; there
// is no survivor ranking in this stage.
func (g *TFIDFGenerator) Generate(run *Run) int {
	// Vectorize only rows that are still standing so the corpus (and
	// therefore the IDF weights) reflects the surviving set.
	var live []int
	for i, cand := range run.Candidates {
		if !run.Removals.Has(cand.Index) {
			live = append(live, i)
		}
	}

	docs := make([]string, len(live))
	for k, i := range live {
		docs[k] = run.Candidates[i].Name
	}
	vectors := TFIDFVectors(docs)

	pairs := 0
	for a := 0; a < len(live); a++ {
		i := live[a]
		if run.Removals.Has(run.Candidates[i].Index) {
			continue
		}
		for b := a + 1; b < len(live); b++ {
			j := live[b]
			if run.Removals.Has(run.Candidates[j].Index) {
				continue
			}
			if run.Record(run.Candidates[i]).Country != run.Record(run.Candidates[j]).Country {
				continue
			}
			sim := Cosine(vectors[a], vectors[b])
			if sim < g.minSimilarity {
				continue
			}
			if run.Removals.Add(Removal{
				Index:         run.Candidates[j].Index,
				SurvivorIndex: run.Candidates[i].Index,
				Method:        MethodTFIDF,
				Detail:        fmt.Sprintf("cosine=%.3f vs %q", sim, run.Candidates[i].Name),
			}) {
				pairs++
			}
		}
	}

	if pairs > 0 {
		g.logger.Infof("TF-IDF generator flagged %d pairs", pairs)
	}
	return pairs
}

package dedupe

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// FuzzyThresholds configure the pairwise fuzzy generator.
type FuzzyThresholds struct {
	NameSimilarity    int // 0-100, canonical name vs canonical name
	CountrySimilarity int // 0-100, lowercased country vs country
}

// DefaultFuzzyThresholds returns the production thresholds.
func DefaultFuzzyThresholds() *FuzzyThresholds {
	return &FuzzyThresholds{
		NameSimilarity:    90,
		CountrySimilarity: 85,
	}
}

// FuzzyGenerator flags duplicate pairs by Levenshtein ratio on the
// canonical name and country.
type FuzzyGenerator struct {
	tiers  *FuzzyThresholds
	logger *logrus.Logger
}

// NewFuzzyGenerator creates a fuzzy generator.
func NewFuzzyGenerator(tiers *FuzzyThresholds, logger *logrus.Logger) *FuzzyGenerator {
	if tiers == nil {
		tiers = DefaultFuzzyThresholds()
	}
	return &FuzzyGenerator{tiers: tiers, logger: logger}
}

// Generate runs a single greedy left-to-right pass: each ungrouped
// record seeds a group and collects every later record that matches it
// directly; collected records never reseed. The clustering is
// deliberately not a transitive closure - a record joins a group only
// when it matches the seed itself, so chains of marginal matches do not
// merge. The survivor is the member with the largest non-empty
// character mass, ties going to the first index encountered.
func (g *FuzzyGenerator) Generate(run *Run) int {
	grouped := make([]bool, len(run.Candidates))
	groups := 0

	for i, seed := range run.Candidates {
		if grouped[i] || run.Removals.Has(seed.Index) {
			continue
		}

		members := []int{i}
		for j := i + 1; j < len(run.Candidates); j++ {
			cand := run.Candidates[j]
			if grouped[j] || run.Removals.Has(cand.Index) {
				continue
			}
			if Ratio(seed.Name, cand.Name) >= g.tiers.NameSimilarity &&
				Ratio(seed.Country, cand.Country) >= g.tiers.CountrySimilarity {
				members = append(members, j)
				grouped[j] = true
			}
		}

		if len(members) < 2 {
			continue
		}
		grouped[i] = true
		groups++

		// Survivor: largest character mass, first index on ties.
		survivor := members[0]
		bestMass := run.Record(run.Candidates[survivor]).CharacterMass()
		for _, m := range members[1:] {
			if mass := run.Record(run.Candidates[m]).CharacterMass(); mass > bestMass {
				survivor = m
				bestMass = mass
			}
		}

		for _, m := range members {
			if m == survivor {
				continue
			}
			run.Removals.Add(Removal{
				Index:         run.Candidates[m].Index,
				SurvivorIndex: run.Candidates[survivor].Index,
				Method:        MethodFuzzy,
				Detail: fmt.Sprintf("name=%q matched seed=%q",
					run.Candidates[m].Name, seed.Name),
			})
		}

		g.logger.Infof("Fuzzy group of %d for %q (survivor mass %d)",
			len(members), seed.Name, bestMass)
	}

	return groups
}

package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/btc-treasury/internal/treasury"
)

// Substrings that mark a company name as a failed upstream enrichment
// rather than a real name. Matched case-insensitively.
var placeholderMarkers = []string{
	"sorry",
	"i cannot",
	"i can't",
	"not found",
	"unknown company",
	"error",
	"no data",
}

// ExactGenerator flags duplicates among records whose holdings, value,
// entity type and country are all byte-identical.
type ExactGenerator struct {
	logger *logrus.Logger
}

// NewExactGenerator creates an exact-column generator.
func NewExactGenerator(logger *logrus.Logger) *ExactGenerator {
	return &ExactGenerator{logger: logger}
}

// Generate groups surviving records by the exact column tuple. Within a
// multi-member group the survivor is the first row with a valid name;
// when none is valid the first row is kept regardless, so a group never
// deletes all of its members.
func (g *ExactGenerator) Generate(run *Run) int {
	byKey := make(map[string][]int)
	for i, cand := range run.Candidates {
		if run.Removals.Has(cand.Index) {
			continue
		}
		rec := run.Record(cand)
		key := strings.Join([]string{rec.BTCHoldings, rec.USDValue, rec.EntityType, rec.Country}, "\x1f")
		byKey[key] = append(byKey[key], i)
	}

	keys := make([]string, 0, len(byKey))
	for key, members := range byKey {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	groups := 0
	for _, key := range keys {
		members := byKey[key]

		survivor := members[0]
		for _, m := range members {
			if validName(run.Record(run.Candidates[m])) {
				survivor = m
				break
			}
		}

		for _, m := range members {
			if m == survivor {
				continue
			}
			run.Removals.Add(Removal{
				Index:         run.Candidates[m].Index,
				SurvivorIndex: run.Candidates[survivor].Index,
				Method:        MethodExact,
				Detail:        fmt.Sprintf("identical columns, kept %q", run.Record(run.Candidates[survivor]).CompanyName),
			})
		}
		groups++
	}

	if groups > 0 {
		g.logger.Infof("Exact-column generator collapsed %d groups", groups)
	}
	return groups
}

// validName rejects names that merely echo the ticker or contain
// placeholder/error phrasing from a failed enrichment.
func validName(rec *treasury.Record) bool {
	name := strings.TrimSpace(rec.CompanyName)
	if name == "" || name == strings.TrimSpace(rec.Ticker) {
		return false
	}
	lowered := strings.ToLower(name)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	return true
}

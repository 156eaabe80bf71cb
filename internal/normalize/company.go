package normalize

import (
	"regexp"
	"strings"
)

// Static alias table mapping raw lowercase names to canonical keys.
// Covers sovereign holders that appear under many spellings and the
// known artifacts left behind by failed upstream enrichment.
var defaultAliases = map[string]string{
	"united states government":         "united states",
	"united states of america":         "united states",
	"us government":                    "united states",
	"usa":                              "united states",
	"the text p":                       "united states",
	"uk government":                    "united kingdom",
	"government of the united kingdom": "united kingdom",
	"el salvador government":           "el salvador",
	"bhutan royal government":          "bhutan",
	"kingdom of bhutan":                "bhutan",
	"ukraine government":               "ukraine",
	"microstrategy":                    "strategy",
	"microstrategy inc":                "strategy",
	"strategy inc":                     "strategy",
}

// Legal suffixes stripped before the organization heuristic runs.
var reLegalSuffix = regexp.MustCompile(`(?i)\b(inc\.?|incorporated|corp\.?|corporation|llc|ltd\.?|limited|plc|s\.?a\.?|ag|gmbh|co\.?|holdings?|group)\b`)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

var reSpaces = regexp.MustCompile(`\s+`)

// CompanyNormalizer resolves raw company names to canonical lowercase
// keys used for duplicate matching.
type CompanyNormalizer struct {
	aliases map[string]string
}

// NewCompanyNormalizer creates a normalizer with the default alias table.
func NewCompanyNormalizer() *CompanyNormalizer {
	return &CompanyNormalizer{aliases: defaultAliases}
}

// NewCompanyNormalizerWithAliases creates a normalizer with a custom
// alias table merged over the defaults.
func NewCompanyNormalizerWithAliases(aliases map[string]string) *CompanyNormalizer {
	merged := make(map[string]string, len(defaultAliases)+len(aliases))
	for k, v := range defaultAliases {
		merged[k] = v
	}
	for k, v := range aliases {
		merged[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &CompanyNormalizer{aliases: merged}
}

// Canonical produces the canonical lowercase key for a raw company name.
// Order: alias table on the exact lowercase name, then the organization
// extraction heuristic, then the lowercased/trimmed raw string.
func (n *CompanyNormalizer) Canonical(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}
	if alias, ok := n.aliases[lowered]; ok {
		return alias
	}
	if org := ExtractOrganization(name); org != "" {
		if alias, ok := n.aliases[org]; ok {
			return alias
		}
		return org
	}
	return lowered
}

// Country canonicalizes a country string for matching.
func Country(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

// ExtractOrganization is the entity-extraction pass used when the alias
// table misses: strip legal suffixes and punctuation and return the
// remaining name span lowercased. Returns "" when nothing survives, so
// the caller can fall back to the raw string.
func ExtractOrganization(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = reLegalSuffix.ReplaceAllString(s, " ")
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	// Leading articles carry no entity information.
	s = strings.TrimPrefix(s, "the ")
	return strings.TrimSpace(s)
}

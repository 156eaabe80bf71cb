package dedupe

import (
	"sort"
	"time"

	"github.com/btc-treasury/internal/treasury"
)

// Method identifies which generator flagged a duplicate.
type Method string

const (
	MethodFuzzy Method = "fuzzy"
	MethodTFIDF Method = "tfidf"
	MethodLLM   Method = "llm"
	MethodExact Method = "exact"
)

// Candidate is one dedup-eligible row: its index into the loaded table
// plus the derived matching key. The key is recomputed each run and
// never persisted.
type Candidate struct {
	Index   int
	Name    string // canonical company name
	Country string // lowercased country
}

// Removal marks one record for deletion in favour of a survivor.
type Removal struct {
	Index         int
	SurvivorIndex int
	Method        Method
	Detail        string
}

// RemovalSet is the union of the generators' duplicate flags. A record
// appears at most once, and a record already designated as a survivor
// is never accepted for removal (conservative: keep both rather than
// risk deleting a group's keeper).
type RemovalSet struct {
	removals  map[int]Removal
	survivors map[int]bool
}

// NewRemovalSet creates an empty removal set.
func NewRemovalSet() *RemovalSet {
	return &RemovalSet{
		removals:  make(map[int]Removal),
		survivors: make(map[int]bool),
	}
}

// Add flags a record for removal. Returns false when the record is
// already flagged or is a designated survivor of an earlier group.
func (rs *RemovalSet) Add(r Removal) bool {
	if rs.survivors[r.Index] {
		return false
	}
	if _, ok := rs.removals[r.Index]; ok {
		return false
	}
	rs.removals[r.Index] = r
	rs.survivors[r.SurvivorIndex] = true
	return true
}

// Has reports whether the record at index is flagged for removal.
func (rs *RemovalSet) Has(index int) bool {
	_, ok := rs.removals[index]
	return ok
}

// Len returns the number of flagged records.
func (rs *RemovalSet) Len() int {
	return len(rs.removals)
}

// List returns the removals ordered by record index.
func (rs *RemovalSet) List() []Removal {
	out := make([]Removal, 0, len(rs.removals))
	for _, r := range rs.removals {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Run carries the in-flight state of one dedup batch: the loaded table,
// the dedup-eligible candidates and the accumulating removal set.
type Run struct {
	Table      *treasury.Table
	Candidates []Candidate
	Removals   *RemovalSet
}

// Record resolves a candidate back to its table row.
func (r *Run) Record(c Candidate) *treasury.Record {
	return &r.Table.Records[c.Index]
}

// Stats summarizes a pipeline run.
type Stats struct {
	Loaded      int
	Excluded    int
	FuzzyGroups int
	TFIDFPairs  int
	LLMGroups   int
	LLMSkipped  int
	ExactGroups int
	Removed     int
	Deleted     int
	Survivors   int
	Relabeled   int
	Duration    time.Duration
}

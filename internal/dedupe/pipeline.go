package dedupe

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/btc-treasury/internal/audit"
	"github.com/btc-treasury/internal/normalize"
	"github.com/btc-treasury/internal/treasury"
)

// Entity types the sovereign relabel leaves alone.
var relabelExempt = map[string]bool{
	"sovereign":      true,
	"government":     true,
	"public company": true,
}

// Pipeline runs one dedup batch end to end: load, normalize, the four
// candidate generators in sequence, then the reducer. Single-threaded
// and run-to-completion; it assumes exclusive write access to the
// source tables for the duration of a run.
type Pipeline struct {
	store       *treasury.Store
	normalizer  *normalize.CompanyNormalizer
	fuzzy       *FuzzyGenerator
	tfidf       *TFIDFGenerator
	llm         *LLMGenerator
	exact       *ExactGenerator
	tracker     *audit.Tracker
	logger      *logrus.Logger
	sourceTable string
	db          *sql.DB
}

// NewPipeline assembles a pipeline with default thresholds. The
// adjudicator may be nil, which disables the LLM stage. The tracker may
// be nil, which disables the audit trail.
func NewPipeline(db *sql.DB, store *treasury.Store, adj Adjudicator, tracker *audit.Tracker, sourceTable string, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		normalizer:  normalize.NewCompanyNormalizer(),
		fuzzy:       NewFuzzyGenerator(nil, logger),
		tfidf:       NewTFIDFGenerator(0, logger),
		llm:         NewLLMGenerator(adj, nil, logger),
		exact:       NewExactGenerator(logger),
		tracker:     tracker,
		logger:      logger,
		sourceTable: sourceTable,
		db:          db,
	}
}

// Run executes one batch over the source table.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	started := time.Now()
	stats := &Stats{}

	table, err := treasury.Load(p.db, p.sourceTable)
	if err != nil {
		return nil, err
	}
	stats.Loaded = len(table.Records)
	p.logger.Infof("Loaded %d rows from %s", stats.Loaded, p.sourceTable)

	if !table.HasID {
		p.logger.Warnf("Table %s has no id column; duplicate rows will be flagged but not deleted", p.sourceTable)
	}

	run := p.prepare(table)
	stats.Excluded = stats.Loaded - len(run.Candidates)

	stats.FuzzyGroups = p.fuzzy.Generate(run)
	stats.TFIDFPairs = p.tfidf.Generate(run)
	stats.LLMGroups, stats.LLMSkipped = p.llm.Generate(ctx, run)
	stats.ExactGroups = p.exact.Generate(run)
	stats.Removed = run.Removals.Len()

	if err := p.reduce(run, stats); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(started)
	p.logger.Infof("Dedup run complete: %d loaded, %d removed, %d survivors, %d relabeled in %v",
		stats.Loaded, stats.Removed, stats.Survivors, stats.Relabeled, stats.Duration)

	p.recordAudit(run, stats, started)
	return stats, nil
}

// prepare builds the candidate set: country/government rows are excluded
// from company dedup, and every remaining row gets its normalized key.
func (p *Pipeline) prepare(table *treasury.Table) *Run {
	run := &Run{Table: table, Removals: NewRemovalSet()}
	for i := range table.Records {
		rec := &table.Records[i]
		if rec.IsGovernmentEntity() {
			continue
		}
		run.Candidates = append(run.Candidates, Candidate{
			Index:   i,
			Name:    p.normalizer.Canonical(rec.CompanyName),
			Country: normalize.Country(rec.Country),
		})
	}
	return run
}

// reduce applies the union of the generators' removal sets: delete the
// losers, back-fill the countries reference table, relabel sovereign
// rows and replace the cleaned table.
func (p *Pipeline) reduce(run *Run, stats *Stats) error {
	removed := make(map[int]bool)
	for _, r := range run.Removals.List() {
		removed[r.Index] = true
	}

	if run.Table.HasID {
		if err := p.deleteFlagged(run, stats); err != nil {
			return err
		}
	}

	var survivors []treasury.Record
	for i := range run.Table.Records {
		if !removed[i] {
			survivors = append(survivors, run.Table.Records[i])
		}
	}
	stats.Survivors = len(survivors)

	known, err := p.store.KnownCountries()
	if err != nil {
		return err
	}
	for i := range survivors {
		country := strings.TrimSpace(survivors[i].Country)
		if country == "" {
			continue
		}
		if !known[strings.ToLower(country)] {
			if err := p.store.InsertCountry(country); err != nil {
				return err
			}
			known[strings.ToLower(country)] = true
			p.logger.Infof("Discovered new country %q", country)
		}
	}

	// Sovereign relabel: any remaining row whose country is known and
	// whose classification is not already sovereign-like.
	for i := range survivors {
		rec := &survivors[i]
		if !known[strings.ToLower(strings.TrimSpace(rec.Country))] {
			continue
		}
		if relabelExempt[strings.ToLower(strings.TrimSpace(rec.EntityType))] {
			continue
		}
		run.Table.SetEntityType(rec, "Sovereign")
		stats.Relabeled++
	}

	return p.store.ReplaceCleaned(run.Table, survivors)
}

// deleteFlagged issues one DELETE per removed record inside a single
// commit boundary. A partial commit on failure is an accepted risk for
// a manual batch tool; deletions are not retried.
func (p *Pipeline) deleteFlagged(run *Run, stats *Stats) error {
	removals := run.Removals.List()
	if len(removals) == 0 {
		return nil
	}

	tx, err := p.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range removals {
		rec := &run.Table.Records[r.Index]
		if rec.ID == 0 {
			p.logger.Warnf("Record %q has no id; skipping delete", rec.CompanyName)
			continue
		}
		if err := p.store.DeleteRecord(tx, p.sourceTable, rec.ID); err != nil {
			return err
		}
		stats.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.logger.Infof("Deleted %d duplicate rows from %s", stats.Deleted, p.sourceTable)
	return nil
}

// recordAudit writes the audit trail. Audit failure is logged and never
// fails the run.
func (p *Pipeline) recordAudit(run *Run, stats *Stats, started time.Time) {
	if p.tracker == nil {
		return
	}

	var decisions []audit.Decision
	for _, r := range run.Removals.List() {
		decisions = append(decisions, audit.Decision{
			RecordID:   run.Table.Records[r.Index].ID,
			SurvivorID: run.Table.Records[r.SurvivorIndex].ID,
			Method:     string(r.Method),
			Detail:     r.Detail,
		})
	}

	err := p.tracker.RecordRun(audit.RunRecord{
		RunID:       uuid.New(),
		SourceTable: p.sourceTable,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Removed:     stats.Removed,
		Survivors:   stats.Survivors,
	}, decisions)
	if err != nil {
		p.logger.Warnf("Failed to record audit trail: %v", err)
	}
}

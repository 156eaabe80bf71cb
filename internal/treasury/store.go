package treasury

import (
	"database/sql"
	"fmt"
	"strings"
)

// Store wraps the persistent-side operations of the dedup pipeline:
// deleting flagged rows, replacing the cleaned table and maintaining the
// countries reference table.
type Store struct {
	db           *sql.DB
	countryTable string
}

// NewStore creates a store over the given connection.
func NewStore(db *sql.DB, countryTable string) *Store {
	return &Store{db: db, countryTable: countryTable}
}

// Begin starts the transaction that bounds a reducer run. Each deletion
// is its own statement inside it; a partial commit on failure is an
// accepted risk for this manual batch tool.
func (s *Store) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// DeleteRecord removes one row by id.
func (s *Store) DeleteRecord(tx *sql.Tx, table string, id int64) error {
	_, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, pqIdent(table)), id)
	if err != nil {
		return fmt.Errorf("failed to delete id %d from %s: %w", id, table, err)
	}
	return nil
}

// ReplaceCleaned drops and rebuilds <table>_cleaned from the surviving
// in-memory rows, carrying any entity-type relabels done before the call.
func (s *Store) ReplaceCleaned(t *Table, survivors []Record) error {
	cleaned := t.Name + "_cleaned"

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cleaned-table transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pqIdent(cleaned))); err != nil {
		return fmt.Errorf("failed to drop %s: %w", cleaned, err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`CREATE TABLE %s (LIKE %s INCLUDING DEFAULTS)`,
		pqIdent(cleaned), pqIdent(t.Name))); err != nil {
		return fmt.Errorf("failed to create %s: %w", cleaned, err)
	}

	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = pqIdent(c)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		pqIdent(cleaned), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare cleaned insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range survivors {
		args := make([]interface{}, len(rec.Fields))
		for i, f := range rec.Fields {
			if f.Valid {
				args[i] = f.String
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", cleaned, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cleaned table: %w", err)
	}
	return nil
}

// KnownCountries returns the reference set, keyed by lowercased name.
func (s *Store) KnownCountries() (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT name FROM %s`, pqIdent(s.countryTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.countryTable, err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		known[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return known, rows.Err()
}

// InsertCountry appends a newly observed country. The reference table is
// append-only from this pipeline; existing rows are never touched.
func (s *Store) InsertCountry(name string) error {
	_, err := s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		pqIdent(s.countryTable)), name)
	if err != nil {
		return fmt.Errorf("failed to insert country %q: %w", name, err)
	}
	return nil
}

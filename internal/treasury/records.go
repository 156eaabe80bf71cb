package treasury

import (
	"database/sql"
	"fmt"
	"strings"
)

// Record is one row of a holdings table. Core columns are broken out for
// matching; every column (core ones included) is also kept verbatim in
// Fields, in table order, so rows survive a rewrite without the loader
// knowing the full schema.
type Record struct {
	ID          int64
	CompanyName string
	Country     string
	EntityType  string
	BTCHoldings string
	USDValue    string
	Ticker      string

	Fields []sql.NullString
}

// Table is an in-memory copy of a holdings table.
type Table struct {
	Name    string
	Columns []string
	Records []Record

	// HasID reports whether an id column was found. Without it the
	// delete step is disabled (cleaned output is still written).
	HasID bool

	idIdx, typeIdx int
}

// Core column names, matched case-insensitively after whitespace strip.
const (
	colID       = "id"
	colName     = "company_name"
	colCountry  = "country"
	colType     = "entity_type"
	colHoldings = "btc_holdings"
	colValue    = "usd_value"
	colTicker   = "ticker"
)

// Load reads every row of the named table into memory.
func Load(db *sql.DB, table string) (*Table, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT * FROM %s`, pqIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	t := &Table{Name: table, Columns: cols, idIdx: -1, typeIdx: -1}

	// Case-insensitive column lookup after whitespace strip.
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[strings.ToLower(strings.TrimSpace(c))] = i
	}
	if i, ok := idx[colID]; ok {
		t.HasID = true
		t.idIdx = i
	}
	if i, ok := idx[colType]; ok {
		t.typeIdx = i
	}

	for rows.Next() {
		fields := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range fields {
			dest[i] = &fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}

		rec := Record{Fields: fields}
		get := func(name string) string {
			if i, ok := idx[name]; ok && fields[i].Valid {
				return fields[i].String
			}
			return ""
		}
		rec.CompanyName = get(colName)
		rec.Country = get(colCountry)
		rec.EntityType = get(colType)
		rec.BTCHoldings = get(colHoldings)
		rec.USDValue = get(colValue)
		rec.Ticker = get(colTicker)
		if t.HasID && fields[t.idIdx].Valid {
			fmt.Sscanf(fields[t.idIdx].String, "%d", &rec.ID)
		}

		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading %s: %w", table, err)
	}

	return t, nil
}

// SetEntityType updates both the broken-out field and the raw column so
// the cleaned-table write carries the new classification.
func (t *Table) SetEntityType(rec *Record, entityType string) {
	rec.EntityType = entityType
	if t.typeIdx >= 0 {
		rec.Fields[t.typeIdx] = sql.NullString{String: entityType, Valid: true}
	}
}

// IsGovernmentEntity reports whether a row is tagged as a country or
// government holder. Those rows are excluded from company dedup.
func (r *Record) IsGovernmentEntity() bool {
	et := strings.ToLower(strings.TrimSpace(r.EntityType))
	return strings.Contains(et, "country") || strings.Contains(et, "government")
}

// CharacterMass ranks record completeness: total characters across all
// non-empty columns, with "N/A" sentinels counted as empty.
func (r *Record) CharacterMass() int {
	mass := 0
	for _, f := range r.Fields {
		if !f.Valid {
			continue
		}
		v := strings.TrimSpace(f.String)
		if v == "" || strings.EqualFold(v, "n/a") {
			continue
		}
		mass += len(v)
	}
	return mass
}

// pqIdent quotes an identifier for interpolation into DDL/queries where
// placeholders are not allowed.
func pqIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Package catalog maintains a queryable SQL side-index of store
// segment metadata, so an analyst can ask "which segments overlap
// this range" without opening every store's ZIP archive (SPEC_FULL.md
// §3, supplementing spec.md with the teacher's reason for being: a
// SQL-queryable index over Plaso output).
package catalog

// Dialect abstracts all database-specific SQL generation, the same
// split the teacher's internal/database package draws between SQLite
// and PostgreSQL so a single Catalog implementation can drive either
// backend through database/sql.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Placeholder returns the parameter placeholder for the given
	// 1-based index. SQLite: "?" (ignoring index); PostgreSQL: "$1",
	// "$2", etc.
	Placeholder(index int) string

	// CreateSegmentsTableSQL returns DDL for the segment catalog table.
	CreateSegmentsTableSQL() string

	// UpsertSegmentSQL returns the parameterized INSERT-or-replace
	// statement for one segment row.
	UpsertSegmentSQL() string

	// CreateSavedQueryTableSQL returns DDL for the saved filter
	// expression table.
	CreateSavedQueryTableSQL() string

	// CreateExaminerNotesTableSQL returns DDL for the examiner notes
	// table, materialized as a queryable view alongside catalog
	// segments rather than archive members.
	CreateExaminerNotesTableSQL() string

	// AutoIncrementIDColumn returns the column definition used for the
	// examiner_notes primary key (dialect-specific autoincrement
	// syntax).
	AutoIncrementIDColumn() string
}

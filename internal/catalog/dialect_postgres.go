package catalog

import "fmt"

// PostgresDialect implements Dialect for PostgreSQL databases,
// grounded on the teacher's dialect_postgres.go.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string     { return "pgx" }
func (d *PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (d *PostgresDialect) CreateSegmentsTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS segments (
		store_path TEXT, segment_number INT,
		first_ts BIGINT, last_ts BIGINT, event_count INT,
		data_types TEXT, parsers TEXT,
		PRIMARY KEY (store_path, segment_number)
	)`
}

func (d *PostgresDialect) UpsertSegmentSQL() string {
	return `INSERT INTO segments
		(store_path, segment_number, first_ts, last_ts, event_count, data_types, parsers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (store_path, segment_number) DO UPDATE SET
			first_ts=excluded.first_ts, last_ts=excluded.last_ts,
			event_count=excluded.event_count, data_types=excluded.data_types,
			parsers=excluded.parsers`
}

func (d *PostgresDialect) CreateSavedQueryTableSQL() string {
	return "CREATE TABLE IF NOT EXISTS saved_queries (name TEXT PRIMARY KEY, expression TEXT)"
}

func (d *PostgresDialect) CreateExaminerNotesTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS examiner_notes (
		id SERIAL PRIMARY KEY,
		timestamp BIGINT, note TEXT, author TEXT
	)`
}

func (d *PostgresDialect) AutoIncrementIDColumn() string {
	return "id SERIAL PRIMARY KEY"
}

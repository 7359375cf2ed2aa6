package catalog

// SQLiteDialect implements Dialect for SQLite databases, grounded on
// the teacher's dialect_sqlite.go.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string      { return "sqlite" }
func (d *SQLiteDialect) Placeholder(int) string  { return "?" }

func (d *SQLiteDialect) CreateSegmentsTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS segments (
		store_path TEXT, segment_number INT,
		first_ts BIGINT, last_ts BIGINT, event_count INT,
		data_types TEXT, parsers TEXT,
		PRIMARY KEY (store_path, segment_number)
	)`
}

func (d *SQLiteDialect) UpsertSegmentSQL() string {
	return `INSERT INTO segments
		(store_path, segment_number, first_ts, last_ts, event_count, data_types, parsers)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_path, segment_number) DO UPDATE SET
			first_ts=excluded.first_ts, last_ts=excluded.last_ts,
			event_count=excluded.event_count, data_types=excluded.data_types,
			parsers=excluded.parsers`
}

func (d *SQLiteDialect) CreateSavedQueryTableSQL() string {
	return "CREATE TABLE IF NOT EXISTS saved_queries (name TEXT PRIMARY KEY, expression TEXT)"
}

func (d *SQLiteDialect) CreateExaminerNotesTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS examiner_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp BIGINT, note TEXT, author TEXT
	)`
}

func (d *SQLiteDialect) AutoIncrementIDColumn() string {
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

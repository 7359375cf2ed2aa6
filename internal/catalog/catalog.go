package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/store"
	"github.com/samber/lo"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SegmentRecord is one indexed segment row.
type SegmentRecord struct {
	StorePath     string
	SegmentNumber int
	First         int64
	Last          int64
	EventCount    int
	DataTypes     []string
	Parsers       []string
}

// SavedQuery is a persisted filter expression (spec.md §9 supplement,
// grounded in the teacher's l2t_saved_query table).
type SavedQuery struct {
	Name       string
	Expression string
}

// ExaminerNote is a manually created timeline annotation, materialized
// alongside catalog segments rather than as a store archive member
// (grounded in the teacher's CreateExaminerNotesTableSQL).
type ExaminerNote struct {
	ID        int64
	Timestamp int64
	Note      string
	Author    string
}

// Catalog is a SQL-backed segment index. It does not replace the
// authoritative store archives; it accelerates "which segments
// overlap this range"-style questions without opening every ZIP.
type Catalog struct {
	conn    *sql.DB
	dialect Dialect
}

// Open opens or creates a catalog database for the given driver
// ("sqlite" or "postgres") and data source.
func Open(driver, dsn string) (*Catalog, error) {
	var d Dialect
	var sqlDriver string
	switch driver {
	case "sqlite":
		d, sqlDriver = &SQLiteDialect{}, "sqlite"
	case "postgres":
		d, sqlDriver = &PostgresDialect{}, "pgx"
	default:
		return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
	}

	conn, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", driver, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: connect %s: %w", driver, err)
	}

	c := &Catalog{conn: conn, dialect: d}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	stmts := []string{
		c.dialect.CreateSegmentsTableSQL(),
		c.dialect.CreateSavedQueryTableSQL(),
		c.dialect.CreateExaminerNotesTableSQL(),
	}
	for _, s := range stmts {
		if _, err := c.conn.Exec(s); err != nil {
			return fmt.Errorf("catalog: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection.
func (c *Catalog) Close() error { return c.conn.Close() }

// IndexSegment records one store segment's metadata in the catalog,
// replacing any prior row for the same (storePath, segmentNumber).
func (c *Catalog) IndexSegment(storePath string, meta store.SegmentMeta) error {
	_, err := c.conn.Exec(c.dialect.UpsertSegmentSQL(),
		storePath, meta.Number, meta.First, meta.Last, meta.Count,
		strings.Join(lo.Uniq(meta.DataTypes), ","),
		strings.Join(lo.Uniq(meta.Parsers), ","))
	if err != nil {
		return fmt.Errorf("catalog: index segment %06d: %w", meta.Number, err)
	}
	return nil
}

// SegmentsOverlapping returns every indexed segment whose [First,Last]
// range intersects [lower, upper], so a caller can pick which store
// archives to open for a time-bounded query (spec.md §4.8's time-seek
// fast path, extended across stores).
func (c *Catalog) SegmentsOverlapping(lower, upper int64) ([]SegmentRecord, error) {
	rows, err := c.conn.Query(
		`SELECT store_path, segment_number, first_ts, last_ts, event_count, data_types, parsers
		 FROM segments WHERE first_ts <= `+c.dialect.Placeholder(1)+` AND last_ts >= `+c.dialect.Placeholder(2)+
			` ORDER BY store_path, segment_number`,
		upper, lower)
	if err != nil {
		return nil, fmt.Errorf("catalog: query overlapping segments: %w", err)
	}
	defer rows.Close()
	return scanSegments(rows)
}

// AllSegments returns every indexed segment for storePath, ascending
// by segment number.
func (c *Catalog) AllSegments(storePath string) ([]SegmentRecord, error) {
	rows, err := c.conn.Query(
		`SELECT store_path, segment_number, first_ts, last_ts, event_count, data_types, parsers
		 FROM segments WHERE store_path = `+c.dialect.Placeholder(1)+` ORDER BY segment_number`,
		storePath)
	if err != nil {
		return nil, fmt.Errorf("catalog: query segments for %s: %w", storePath, err)
	}
	defer rows.Close()
	return scanSegments(rows)
}

func scanSegments(rows *sql.Rows) ([]SegmentRecord, error) {
	var out []SegmentRecord
	for rows.Next() {
		var r SegmentRecord
		var dataTypes, parsers string
		if err := rows.Scan(&r.StorePath, &r.SegmentNumber, &r.First, &r.Last, &r.EventCount, &dataTypes, &parsers); err != nil {
			return nil, fmt.Errorf("catalog: scan segment row: %w", err)
		}
		if dataTypes != "" {
			r.DataTypes = strings.Split(dataTypes, ",")
		}
		if parsers != "" {
			r.Parsers = strings.Split(parsers, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MinMaxTimestamp returns the overall first/last timestamp across
// every indexed segment, mirroring the teacher's GetMinMaxDate.
func (c *Catalog) MinMaxTimestamp() (first, last int64, err error) {
	row := c.conn.QueryRow(`SELECT MIN(first_ts), MAX(last_ts) FROM segments`)
	if err := row.Scan(&first, &last); err != nil {
		return 0, 0, fmt.Errorf("catalog: min/max timestamp: %w", err)
	}
	return first, last, nil
}

// SaveQuery persists a named filter expression for cmd/psort -f,
// mirroring the teacher's l2t_saved_query table.
func (c *Catalog) SaveQuery(name, expression string) error {
	var stmt string
	switch c.dialect.DriverName() {
	case "pgx":
		stmt = `INSERT INTO saved_queries (name, expression) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET expression = excluded.expression`
	default:
		stmt = `INSERT INTO saved_queries (name, expression) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET expression = excluded.expression`
	}
	if _, err := c.conn.Exec(stmt, name, expression); err != nil {
		return fmt.Errorf("catalog: save query %q: %w", name, err)
	}
	return nil
}

// SavedQueries returns every persisted filter expression.
func (c *Catalog) SavedQueries() ([]SavedQuery, error) {
	rows, err := c.conn.Query(`SELECT name, expression FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list saved queries: %w", err)
	}
	defer rows.Close()
	var out []SavedQuery
	for rows.Next() {
		var q SavedQuery
		if err := rows.Scan(&q.Name, &q.Expression); err != nil {
			return nil, fmt.Errorf("catalog: scan saved query: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// DeleteQuery removes a persisted filter expression by name.
func (c *Catalog) DeleteQuery(name string) error {
	_, err := c.conn.Exec(`DELETE FROM saved_queries WHERE name = `+c.dialect.Placeholder(1), name)
	if err != nil {
		return fmt.Errorf("catalog: delete query %q: %w", name, err)
	}
	return nil
}

// AddExaminerNote inserts a manually authored timeline annotation.
func (c *Catalog) AddExaminerNote(timestamp int64, note, author string) error {
	var stmt string
	switch c.dialect.DriverName() {
	case "pgx":
		stmt = `INSERT INTO examiner_notes (timestamp, note, author) VALUES ($1, $2, $3)`
	default:
		stmt = `INSERT INTO examiner_notes (timestamp, note, author) VALUES (?, ?, ?)`
	}
	if _, err := c.conn.Exec(stmt, timestamp, note, author); err != nil {
		return fmt.Errorf("catalog: add examiner note: %w", err)
	}
	return nil
}

// ExaminerNotes returns every note, ordered by timestamp, so a caller
// can union them into a rendered timeline alongside evidence events.
func (c *Catalog) ExaminerNotes() ([]ExaminerNote, error) {
	rows, err := c.conn.Query(`SELECT id, timestamp, note, author FROM examiner_notes ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list examiner notes: %w", err)
	}
	defer rows.Close()
	var out []ExaminerNote
	for rows.Next() {
		var n ExaminerNote
		if err := rows.Scan(&n.ID, &n.Timestamp, &n.Note, &n.Author); err != nil {
			return nil, fmt.Errorf("catalog: scan examiner note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

package catalog

import (
	"testing"

	"github.com/cdtdelta/plaso-core/internal/store"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIndexAndQuerySegments(t *testing.T) {
	c := openTestCatalog(t)

	metas := []store.SegmentMeta{
		{Number: 1, First: 100, Last: 200, Count: 5, DataTypes: []string{"fs:stat"}, Parsers: []string{"filestat"}},
		{Number: 2, First: 300, Last: 400, Count: 3, DataTypes: []string{"fs:stat"}, Parsers: []string{"filestat"}},
	}
	for _, m := range metas {
		if err := c.IndexSegment("/evidence/store1.plaso", m); err != nil {
			t.Fatalf("index segment %d: %v", m.Number, err)
		}
	}

	all, err := c.AllSegments("/evidence/store1.plaso")
	if err != nil {
		t.Fatalf("all segments: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(all))
	}

	overlap, err := c.SegmentsOverlapping(150, 350)
	if err != nil {
		t.Fatalf("segments overlapping: %v", err)
	}
	if len(overlap) != 2 {
		t.Fatalf("expected both segments to overlap [150,350], got %d", len(overlap))
	}

	onlyFirst, err := c.SegmentsOverlapping(0, 150)
	if err != nil {
		t.Fatalf("segments overlapping: %v", err)
	}
	if len(onlyFirst) != 1 || onlyFirst[0].SegmentNumber != 1 {
		t.Fatalf("expected only segment 1, got %+v", onlyFirst)
	}

	first, last, err := c.MinMaxTimestamp()
	if err != nil {
		t.Fatalf("min/max: %v", err)
	}
	if first != 100 || last != 400 {
		t.Errorf("expected range [100,400], got [%d,%d]", first, last)
	}
}

func TestIndexSegmentUpsert(t *testing.T) {
	c := openTestCatalog(t)
	meta := store.SegmentMeta{Number: 1, First: 100, Last: 200, Count: 5, DataTypes: []string{"fs:stat"}, Parsers: []string{"filestat"}}
	if err := c.IndexSegment("/evidence/store1.plaso", meta); err != nil {
		t.Fatal(err)
	}
	meta.Count = 10
	meta.Last = 250
	if err := c.IndexSegment("/evidence/store1.plaso", meta); err != nil {
		t.Fatal(err)
	}
	all, err := c.AllSegments("/evidence/store1.plaso")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected upsert to keep a single row, got %d", len(all))
	}
	if all[0].EventCount != 10 || all[0].Last != 250 {
		t.Errorf("expected updated row, got %+v", all[0])
	}
}

func TestSavedQueries(t *testing.T) {
	c := openTestCatalog(t)
	if err := c.SaveQuery("recent-logons", `data_type == "windows:evtx:record" and timestamp > 0`); err != nil {
		t.Fatal(err)
	}
	queries, err := c.SavedQueries()
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 1 || queries[0].Name != "recent-logons" {
		t.Fatalf("unexpected saved queries: %+v", queries)
	}

	if err := c.SaveQuery("recent-logons", `data_type == "windows:evtx:record"`); err != nil {
		t.Fatal(err)
	}
	queries, err = c.SavedQueries()
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 1 || queries[0].Expression != `data_type == "windows:evtx:record"` {
		t.Fatalf("expected query overwrite, got %+v", queries)
	}

	if err := c.DeleteQuery("recent-logons"); err != nil {
		t.Fatal(err)
	}
	queries, err = c.SavedQueries()
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 0 {
		t.Fatalf("expected no saved queries after delete, got %+v", queries)
	}
}

func TestExaminerNotes(t *testing.T) {
	c := openTestCatalog(t)
	if err := c.AddExaminerNote(1_500_000_000_000_000, "confirmed exfil window", "analyst1"); err != nil {
		t.Fatal(err)
	}
	notes, err := c.ExaminerNotes()
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Note != "confirmed exfil window" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

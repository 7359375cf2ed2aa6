package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// l2tExportHeader mirrors internal/render's l2tExportHeader column
// order exactly (itself grounded in the teacher's csvparser.go
// exportHeader); column positions below are fixed by this order.
var l2tExportHeader = []string{
	"datetime", "timezone", "MACB", "source", "sourcetype", "type",
	"user", "host", "desc", "filename", "inode", "notes", "format",
	"extra", "reportnotes", "inreport", "tag", "color",
	"offset", "store_number", "store_index", "vss_store_number", "bookmark",
}

// readL2TCSV reverses internal/render's L2TCSVRenderer.WriteEvent: one
// event per data row, column index fixed by l2tExportHeader (the
// teacher's csvparser.go rowToEvent, read direction).
func readL2TCSV(r io.Reader) ([]*event.Event, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, want := range l2tExportHeader {
		if i >= len(header) || header[i] != want {
			return nil, fmt.Errorf("header mismatch at column %d: expected %q, got %q", i, want, safeIndex(header, i))
		}
	}

	var events []*event.Event
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(events)+1, err)
		}
		events = append(events, l2tRowToEvent(row))
	}
	return events, nil
}

// column positions, per l2tExportHeader: 0 datetime, 1 timezone,
// 2 MACB, 3 source, 4 sourcetype, 5 type, 6 user, 7 host, 8 desc,
// 9 filename, 10 inode, 11 notes, 12 format, 13 extra, 16 tag,
// 18 offset, 19 store_number, 20 store_index. MACB (derived from
// timestamp_desc) and the "desc" column (derived from body/data_type
// by DescriptionLong) are not reimported as attributes: "extra" is the
// renderer's direct, unambiguous copy of the body attribute.
func l2tRowToEvent(row []string) *event.Event {
	ts := parseDatetime(safeIndex(row, 0))
	ev := event.New(ts, safeIndex(row, 5), safeIndex(row, 4), safeIndex(row, 12))

	setIfNonEmpty(ev, "timezone", safeIndex(row, 1))
	setIfNonEmpty(ev, "username", safeIndex(row, 6))
	setIfNonEmpty(ev, "hostname", safeIndex(row, 7))
	setIfNonEmpty(ev, "filename", safeIndex(row, 9))
	setIfNonEmpty(ev, "inode", safeIndex(row, 10))
	setIfNonEmpty(ev, "notes", safeIndex(row, 11))
	setIfNonEmpty(ev, "body", safeIndex(row, 13))
	setIfNonEmpty(ev, "tag", safeIndex(row, 16))
	setIfNonEmpty(ev, "offset", safeIndex(row, 18))
	setIfNonEmpty(ev, "store_number", safeIndex(row, 19))
	setIfNonEmpty(ev, "store_index", safeIndex(row, 20))

	return ev
}

func safeIndex(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

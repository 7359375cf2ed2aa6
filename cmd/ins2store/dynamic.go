package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// dynamicFieldAliases maps a recognized dynamic-CSV header column name
// to the canonical field it resolves into, mirroring the teacher's
// dynamicparser.go fieldAliases table verbatim. Unlike L2T CSV, the
// dynamic format is column-order-free: the header row alone decides
// what each column means.
var dynamicFieldAliases = map[string]string{
	"datetime":         "datetime",
	"date":             "datetime",
	"timestamp_desc":   "type",
	"type":             "type",
	"source":           "source",
	"source_short":     "source",
	"sourcetype":       "sourcetype",
	"source_long":      "sourcetype",
	"message":          "desc",
	"desc":             "desc",
	"short":            "desc",
	"description":      "desc",
	"parser":           "format",
	"format":           "format",
	"display_name":     "filename",
	"filename":         "filename",
	"host":             "host",
	"hostname":         "host",
	"user":             "user",
	"username":         "user",
	"macb":             "macb",
	"tag":              "tag",
	"inode":            "inode",
	"timezone":         "timezone",
	"zone":             "timezone",
	"tz":               "timezone",
	"notes":            "notes",
	"extra":            "extra",
}

// readDynamicCSV reverses internal/render's DynamicCSVRenderer: the
// header names which columns are present and in what order, so each
// row is mapped through dynamicFieldAliases rather than a fixed index
// table (dynamicparser.go buildColumnMap, read direction).
func readDynamicCSV(r io.Reader) ([]*event.Event, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	colField := make(map[int]string, len(header))
	recognized := 0
	for i, col := range header {
		if field, ok := dynamicFieldAliases[strings.ToLower(strings.TrimSpace(col))]; ok {
			colField[i] = field
			recognized++
		}
	}
	if recognized == 0 {
		return nil, fmt.Errorf("no recognized dynamic-CSV fields in header: %s", strings.Join(header, ", "))
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
		events = append(events, dynamicRowToEvent(row, colField))
	}
	return events, nil
}

func dynamicRowToEvent(row []string, colField map[int]string) *event.Event {
	values := make(map[string]string, len(colField))
	for i, field := range colField {
		values[field] = safeIndex(row, i)
	}

	ts := parseDatetime(values["datetime"])
	ev := event.New(ts, values["type"], values["sourcetype"], values["format"])

	setIfNonEmpty(ev, "timezone", values["timezone"])
	setIfNonEmpty(ev, "username", values["user"])
	setIfNonEmpty(ev, "hostname", values["host"])
	setIfNonEmpty(ev, "filename", values["filename"])
	setIfNonEmpty(ev, "inode", values["inode"])
	setIfNonEmpty(ev, "notes", values["notes"])
	setIfNonEmpty(ev, "body", values["extra"])
	setIfNonEmpty(ev, "tag", values["tag"])

	return ev
}

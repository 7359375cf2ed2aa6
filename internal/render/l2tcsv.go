package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// l2tExportHeader mirrors the teacher's csvparser.go exportHeader
// column order exactly; this renderer is that table's read direction
// reversed (the teacher reads 4n6time export CSVs into SQL rows, this
// writes internal/event.Event records out to the same columns).
var l2tExportHeader = []string{
	"datetime", "timezone", "MACB", "source", "sourcetype", "type",
	"user", "host", "desc", "filename", "inode", "notes", "format",
	"extra", "reportnotes", "inreport", "tag", "color",
	"offset", "store_number", "store_index", "vss_store_number", "bookmark",
}

// L2TCSVRenderer writes events in log2timeline CSV ("L2T CSV") export
// format (spec.md §4.12's renderer contract; §9 "TLN / L2T-CSV /
// dynamic-CSV ingestion into the store" supplementation).
type L2TCSVRenderer struct {
	w  io.Writer
	cw *csv.Writer
	f  DefaultFormatter
}

func (r *L2TCSVRenderer) Start(w io.Writer) error {
	r.w = w
	r.cw = csv.NewWriter(w)
	return r.cw.Write(l2tExportHeader)
}

func (r *L2TCSVRenderer) WriteEvent(ev *event.Event) error {
	row := []string{
		formatDatetime(ev.Timestamp),
		attrString(ev, "timezone"),
		macbFromTimestampDesc(ev.TimestampDesc),
		r.f.SourceShort(ev),
		r.f.SourceLong(ev),
		ev.TimestampDesc,
		attrString(ev, "username"),
		attrString(ev, "hostname"),
		r.f.DescriptionLong(ev),
		attrString(ev, "filename"),
		attrString(ev, "inode"),
		attrString(ev, "notes"),
		ev.Parser,
		attrString(ev, "body"),
		"", "",
		attrString(ev, "tag"),
		"",
		attrString(ev, "offset"),
		attrString(ev, "store_number"),
		attrString(ev, "store_index"),
		"-1", "0",
	}
	if err := r.cw.Write(row); err != nil {
		return fmt.Errorf("render: l2tcsv: %w", err)
	}
	return nil
}

func (r *L2TCSVRenderer) End() error {
	r.cw.Flush()
	return r.cw.Error()
}

func attrString(ev *event.Event, name string) string {
	if v, ok := ev.Get(name); ok {
		return v.DisplayString()
	}
	return ""
}

// formatDatetime renders microseconds-since-epoch as the teacher's
// "YYYY-MM-DD HH:MM:SS" datetime column.
func formatDatetime(us int64) string {
	t := time.UnixMicro(us).UTC()
	return t.Format("2006-01-02 15:04:05")
}

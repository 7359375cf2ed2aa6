package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// dynamicHeader is the canonical column set the teacher's
// dynamicparser.go fieldAliases map resolves *into* (the right-hand
// side of that map: "datetime", "type", "source", "sourcetype",
// "desc", "format", "filename", "host", "user", "macb", "tag",
// "inode", "timezone", "notes", "extra"), except that the second
// column is written as "timestamp_desc", which that alias table maps
// to "type"; this renderer is that mapping's write direction.
var dynamicHeader = []string{
	"datetime", "timestamp_desc", "source", "sourcetype", "desc",
	"format", "filename", "host", "user", "macb", "tag", "inode",
	"timezone", "notes", "extra",
}

// DynamicCSVRenderer writes events in Plaso's free-form "dynamic" CSV
// format, where the header names the columns present rather than a
// fixed positional schema (spec.md §9 supplementation).
type DynamicCSVRenderer struct {
	w  io.Writer
	cw *csv.Writer
	f  DefaultFormatter
}

func (r *DynamicCSVRenderer) Start(w io.Writer) error {
	r.w = w
	r.cw = csv.NewWriter(w)
	return r.cw.Write(dynamicHeader)
}

func (r *DynamicCSVRenderer) WriteEvent(ev *event.Event) error {
	row := []string{
		formatDatetime(ev.Timestamp),
		ev.TimestampDesc,
		r.f.SourceShort(ev),
		r.f.SourceLong(ev),
		r.f.DescriptionLong(ev),
		ev.Parser,
		attrString(ev, "filename"),
		attrString(ev, "hostname"),
		attrString(ev, "username"),
		macbFromTimestampDesc(ev.TimestampDesc),
		attrString(ev, "tag"),
		attrString(ev, "inode"),
		attrString(ev, "timezone"),
		attrString(ev, "notes"),
		attrString(ev, "body"),
	}
	if err := r.cw.Write(row); err != nil {
		return fmt.Errorf("render: dynamic: %w", err)
	}
	return nil
}

func (r *DynamicCSVRenderer) End() error {
	r.cw.Flush()
	return r.cw.Error()
}

package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// tlnHeader mirrors the teacher's tlnparser.go L2TTLN header exactly
// ("Time|Source|Host|User|Description|TZ|Notes"); this renderer
// writes that format rather than reading it.
const tlnHeader = "Time|Source|Host|User|Description|TZ|Notes"

// TLNRenderer writes events in the pipe-delimited L2TTLN format
// (spec.md §9 supplementation).
type TLNRenderer struct {
	w *bufio.Writer
	f DefaultFormatter
}

func (r *TLNRenderer) Start(w io.Writer) error {
	r.w = bufio.NewWriter(w)
	_, err := r.w.WriteString(tlnHeader + "\n")
	return err
}

func (r *TLNRenderer) WriteEvent(ev *event.Event) error {
	fields := []string{
		strconv.FormatInt(ev.Timestamp/1_000_000, 10),
		r.f.SourceShort(ev),
		attrString(ev, "hostname"),
		attrString(ev, "username"),
		escapePipes(r.f.DescriptionLong(ev)),
		attrString(ev, "timezone"),
		escapePipes(attrString(ev, "notes")),
	}
	if _, err := r.w.WriteString(strings.Join(fields, "|") + "\n"); err != nil {
		return fmt.Errorf("render: tln: %w", err)
	}
	return nil
}

func (r *TLNRenderer) End() error {
	return r.w.Flush()
}

// escapePipes replaces '|' with a unicode pipe lookalike so a
// description cannot be mistaken for a field boundary, matching the
// teacher's ValidateFile expectation of exactly 5 or 7 fields per
// line.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "∣")
}

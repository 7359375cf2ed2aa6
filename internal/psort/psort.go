// Package psort implements the sort/filter/render output driver
// (spec.md §4.12, component C12): open one or more stores, run a
// k-way merge across them in timestamp order, apply an optional
// compiled filter with time-range hoisting, fold duplicates through
// the join/dedup buffer, and hand surviving events to a renderer.
package psort

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/cdtdelta/plaso-core/internal/dedup"
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/filter"
	"github.com/cdtdelta/plaso-core/internal/merge"
	"github.com/cdtdelta/plaso-core/internal/render"
	"github.com/cdtdelta/plaso-core/internal/store"
	"github.com/dustin/go-humanize"
)

// isBrokenPipe reports whether err is the write side of a closed pipe
// (spec.md §7/§4.12: "the output driver additionally swallows
// broken-pipe write errors"; §6: "broken pipe exits 0") -- the
// expected failure mode when output is piped into something like
// `head` that stops reading early.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

// Config selects the stores, filter expression, time bounds, and
// renderer for one psort run.
type Config struct {
	// StorePaths are opened in order and presented to the merge
	// iterator as one combined timeline (spec.md §4.12).
	StorePaths []string
	// FilterExpr is an optional filter.Parse-able expression; empty
	// means "match everything".
	FilterExpr string
	// Formatter resolves description/source field aliases the filter
	// may reference; &render.DefaultFormatter{} is a reasonable zero
	// value.
	Formatter filter.Formatter
	// RendererName selects a renderer registered in internal/render.
	RendererName string
}

// Summary reports the counters spec.md §4.12 requires at run end.
type Summary struct {
	EventsRead    int
	EventsMatched int
	Duplicates    int
}

// Run executes one psort pass, writing rendered output to w.
func Run(cfg Config, w io.Writer) (Summary, error) {
	if len(cfg.StorePaths) == 0 {
		return Summary{}, fmt.Errorf("psort: no store paths given")
	}

	readers := make([]*store.Reader, 0, len(cfg.StorePaths))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, path := range cfg.StorePaths {
		r, err := store.Open(path)
		if err != nil {
			return Summary{}, fmt.Errorf("psort: open %s: %w", path, err)
		}
		readers = append(readers, r)
	}

	matcher, err := filter.Compile(cfg.FilterExpr, cfg.Formatter)
	if err != nil {
		return Summary{}, fmt.Errorf("psort: compile filter: %w", err)
	}
	bounds := matcher.Hoist()

	renderer, err := render.Lookup(cfg.RendererName)
	if err != nil {
		return Summary{}, err
	}
	if err := renderer.Start(w); err != nil {
		if isBrokenPipe(err) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("psort: start renderer: %w", err)
	}

	src := NewMultiSource(readers)
	it, err := merge.New(src, bounds.Lower, bounds.Upper)
	if err != nil {
		return Summary{}, fmt.Errorf("psort: build merge iterator: %w", err)
	}

	var sum Summary
	var renderErr error
	var brokenPipe bool
	buf := dedup.New(func(ev *event.Event) {
		if renderErr != nil {
			return
		}
		if err := renderer.WriteEvent(ev); err != nil {
			if isBrokenPipe(err) {
				brokenPipe = true
				return
			}
			renderErr = fmt.Errorf("psort: render event: %w", err)
		}
	})

	for {
		ev, err := it.Next()
		if err != nil {
			return sum, fmt.Errorf("psort: merge: %w", err)
		}
		if ev == nil {
			break
		}
		sum.EventsRead++
		if !matcher.Matches(ev) {
			continue
		}
		sum.EventsMatched++
		buf.Append(ev)
		if brokenPipe {
			return sum, nil
		}
		if renderErr != nil {
			return sum, renderErr
		}
	}
	buf.Flush()
	if brokenPipe {
		return sum, nil
	}
	if renderErr != nil {
		return sum, renderErr
	}
	sum.Duplicates = buf.Joins()

	if err := renderer.End(); err != nil {
		if isBrokenPipe(err) {
			return sum, nil
		}
		return sum, fmt.Errorf("psort: end renderer: %w", err)
	}

	return sum, nil
}

// SummaryLine formats sum as the human-readable counter line psort
// prints at the end of a run, in the teacher's humanize-backed
// logging idiom.
func SummaryLine(sum Summary) string {
	return fmt.Sprintf("%s events read, %s matched filter, %s duplicate joins",
		humanize.Comma(int64(sum.EventsRead)),
		humanize.Comma(int64(sum.EventsMatched)),
		humanize.Comma(int64(sum.Duplicates)))
}

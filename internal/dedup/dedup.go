// Package dedup implements the single-writer join/dedup buffer
// (spec.md §4.11, component C11): events sharing a timestamp and
// equality key are joined into one record with reserved attributes
// unioned, and the buffer is flushed whenever the incoming timestamp
// advances past the current watermark.
package dedup

import (
	"sort"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/samber/lo"
)

// joinableReserved are the reserved attributes whose join semantics
// is a sorted set-union serialized as ';'-joined text (spec.md
// §4.11). All other reserved attributes are taken from the
// first-seen event.
var joinableReserved = []string{"inode", "filename", "display_name"}

// Buffer accumulates events at the current watermark timestamp,
// joining equality-key matches, and flushes to a sink when the
// watermark advances (spec.md §4.11).
type Buffer struct {
	sink func(*event.Event)

	watermark int64
	hasWatermark bool

	order []string
	byKey map[string]*event.Event

	joins int
}

// New returns a Buffer that calls sink for every event it flushes, in
// first-seen order within a watermark.
func New(sink func(*event.Event)) *Buffer {
	return &Buffer{sink: sink, byKey: make(map[string]*event.Event)}
}

// Append feeds one event from the merge iterator into the buffer
// (spec.md §4.11's "On append" procedure).
func (b *Buffer) Append(ev *event.Event) {
	if !b.hasWatermark {
		b.hasWatermark = true
		b.watermark = ev.Timestamp
	} else if ev.Timestamp != b.watermark {
		b.flush()
		b.watermark = ev.Timestamp
	}

	key := string(ev.EqualityKey())
	if existing, ok := b.byKey[key]; ok {
		b.byKey[key] = join(existing, ev)
		b.joins++
		return
	}
	b.byKey[key] = ev
	b.order = append(b.order, key)
}

// Flush writes every buffered event to the sink in first-seen order
// and resets the buffer. A final flush is required at end-of-stream
// (spec.md §4.11).
func (b *Buffer) Flush() {
	b.flush()
}

func (b *Buffer) flush() {
	for _, key := range b.order {
		b.sink(b.byKey[key])
	}
	b.order = nil
	b.byKey = make(map[string]*event.Event)
}

// Joins reports how many join operations have been performed so far
// (spec.md §4.11: "a counter of joins performed is reported at the
// end").
func (b *Buffer) Joins() int {
	return b.joins
}

// join combines first and second, which matched on equality key
// (spec.md §4.1): they already share every non-reserved attribute.
// The three set-union reserved attributes are unioned and
// ';'-joined; every other reserved attribute is kept from first.
func join(first, second *event.Event) *event.Event {
	joined := first.Clone()
	for _, name := range joinableReserved {
		merged := unionValues(first, second, name)
		if merged != "" {
			joined.Set(name, event.String(merged))
		}
	}
	return joined
}

func unionValues(first, second *event.Event, name string) string {
	var parts []string
	if v, ok := first.Get(name); ok {
		parts = append(parts, splitValue(v)...)
	}
	if v, ok := second.Get(name); ok {
		parts = append(parts, splitValue(v)...)
	}
	parts = lo.Uniq(parts)
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

func splitValue(v event.Value) []string {
	if v.Kind != event.KindString || v.Str == "" {
		return nil
	}
	return strings.Split(v.Str, ";")
}

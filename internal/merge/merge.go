// Package merge implements the k-way merge iterator (spec.md §4.9,
// component C9): selects the store segments overlapping a time range,
// preloads one event per segment into a container/heap min-heap, and
// yields events in global timestamp order, breaking ties on segment
// number then in-segment index. No third-party heap library appears
// anywhere in the example pack, so container/heap is used directly.
package merge

import (
	"container/heap"
	"fmt"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// SegmentSource is the subset of internal/store's Reader the merge
// needs, kept narrow so merge does not import store directly and can
// be tested against a fake.
type SegmentSource interface {
	Segments() []int
	ReadMeta(n int) (first, last int64, err error)
	Count(n int) (int, error)
	SeekTime(n int, lowerBound int64) (int, error)
	// TimestampAt returns a segment's i-th timestamp without
	// deserializing the event, so refilling the heap never pays the
	// deserialization cost of an event that may still be discarded.
	TimestampAt(n, i int) (int64, error)
	GetEvent(n, i int) (*event.Event, error)
	TagsFor(segment, index int) []string
}

// Iterator yields events across the selected segments in ascending
// timestamp order.
type Iterator struct {
	src         SegmentSource
	lowerBound  int64
	upperBound  int64
	h           entryHeap
	done        bool
}

type heapEntry struct {
	timestamp int64
	segment   int
	index     int
}

type entryHeap []heapEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	if h[i].segment != h[j].segment {
		return h[i].segment < h[j].segment
	}
	return h[i].index < h[j].index
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(heapEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// New selects every segment in src whose [first,last] overlaps
// [lowerBound, upperBound], preloads the first in-range event from
// each (using the time-seek fast path on that first pull), and
// returns an Iterator ready for Next (spec.md §4.9).
func New(src SegmentSource, lowerBound, upperBound int64) (*Iterator, error) {
	it := &Iterator{src: src, lowerBound: lowerBound, upperBound: upperBound}

	for _, seg := range src.Segments() {
		first, last, err := src.ReadMeta(seg)
		if err != nil {
			return nil, fmt.Errorf("merge: segment %d meta: %w", seg, err)
		}
		if last < lowerBound || first > upperBound {
			continue
		}

		startIdx, err := src.SeekTime(seg, lowerBound)
		if err != nil {
			return nil, fmt.Errorf("merge: segment %d seek: %w", seg, err)
		}
		if err := it.refill(seg, startIdx); err != nil {
			return nil, err
		}
	}
	heap.Init(&it.h)
	return it, nil
}

// refill loads event at (segment, index) into the heap if it exists
// and is within the count bound, silently skipping segments whose
// index has been exhausted.
func (it *Iterator) refill(segment, index int) error {
	count, err := it.src.Count(segment)
	if err != nil {
		return fmt.Errorf("merge: segment %d count: %w", segment, err)
	}
	if index >= count {
		return nil
	}
	ts, err := it.src.TimestampAt(segment, index)
	if err != nil {
		return fmt.Errorf("merge: segment %d timestamp %d: %w", segment, index, err)
	}
	heap.Push(&it.h, heapEntry{timestamp: ts, segment: segment, index: index})
	return nil
}

// Next pops the minimum entry, refills from its segment, and returns
// the decoded event with any tags materialized onto its tag
// attribute. Returns (nil, nil) once the iterator is exhausted or the
// next candidate's timestamp exceeds upperBound (spec.md §4.9: "if its
// timestamp exceeds upper_bound, terminate").
func (it *Iterator) Next() (*event.Event, error) {
	if it.done || it.h.Len() == 0 {
		it.done = true
		return nil, nil
	}

	top := heap.Pop(&it.h).(heapEntry)
	if top.timestamp > it.upperBound {
		it.done = true
		return nil, nil
	}

	ev, err := it.src.GetEvent(top.segment, top.index)
	if err != nil {
		return nil, fmt.Errorf("merge: segment %d index %d: %w", top.segment, top.index, err)
	}

	if tags := it.src.TagsFor(top.segment, top.index); len(tags) > 0 {
		ev.Set("tag", event.List(toValueList(tags)))
	}

	if err := it.refill(top.segment, top.index+1); err != nil {
		return nil, err
	}

	return ev, nil
}

func toValueList(tags []string) []event.Value {
	out := make([]event.Value, len(tags))
	for i, t := range tags {
		out[i] = event.String(t)
	}
	return out
}

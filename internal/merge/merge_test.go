package merge

import (
	"testing"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// fakeSource implements SegmentSource over an in-memory
// segment -> []int64 map, for testing merge ordering without the
// store package.
type fakeSource struct {
	segments map[int][]int64
	reads    map[int]int
}

func newFakeSource(segments map[int][]int64) *fakeSource {
	return &fakeSource{segments: segments, reads: make(map[int]int)}
}

func (f *fakeSource) Segments() []int {
	var out []int
	for n := range f.segments {
		out = append(out, n)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (f *fakeSource) ReadMeta(n int) (int64, int64, error) {
	ts := f.segments[n]
	return ts[0], ts[len(ts)-1], nil
}

func (f *fakeSource) Count(n int) (int, error) { return len(f.segments[n]), nil }

func (f *fakeSource) SeekTime(n int, lowerBound int64) (int, error) {
	ts := f.segments[n]
	for i, t := range ts {
		if t >= lowerBound {
			return i, nil
		}
	}
	return len(ts), nil
}

func (f *fakeSource) TimestampAt(n, i int) (int64, error) { return f.segments[n][i], nil }

func (f *fakeSource) GetEvent(n, i int) (*event.Event, error) {
	f.reads[n]++
	ts := f.segments[n][i]
	return event.New(ts, "", "test:data", "testparser"), nil
}

func (f *fakeSource) TagsFor(segment, index int) []string { return nil }

func TestMergeYieldsGlobalOrderWithinRange(t *testing.T) {
	src := newFakeSource(map[int][]int64{
		1: {100, 500, 900},
		2: {200, 400, 800},
	})

	it, err := New(src, 150, 850)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var got []int64
	for {
		ev, err := it.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if ev == nil {
			break
		}
		got = append(got, ev.Timestamp)
	}

	want := []int64{200, 400, 500, 800}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestMergeSkipsEventsOutsideSegmentNeverDeserialized(t *testing.T) {
	src := newFakeSource(map[int][]int64{
		1: {100, 500, 900},
	})
	it, err := New(src, 150, 850)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for {
		ev, err := it.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if ev == nil {
			break
		}
	}
	// Only 500 is in range; 100 and 900 must never be deserialized via
	// GetEvent because SeekTime/TimestampAt locate them first.
	if src.reads[1] != 1 {
		t.Fatalf("expected exactly 1 GetEvent call, got %d", src.reads[1])
	}
}

func TestMergeBreaksTiesOnSegmentThenIndex(t *testing.T) {
	src := newFakeSource(map[int][]int64{
		2: {100},
		1: {100},
	})
	it, err := New(src, 0, 1000)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	first, err := it.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if src.reads[1] != 1 || src.reads[2] != 0 {
		t.Fatalf("expected segment 1 to win the timestamp tie, reads=%v", src.reads)
	}
	second, err := it.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first == nil || second == nil {
		t.Fatalf("expected two events")
	}
}

package psort

import (
	"fmt"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/merge"
	"github.com/cdtdelta/plaso-core/internal/store"
)

// segmentFanout is the per-store multiplier a MultiSource uses to
// build a single composite segment number from (storeIndex,
// segmentNumber), exploiting the 6-digit zero-padded segment ceiling
// (spec.md §6: segment members never exceed 999999) so a composite
// key still fits comfortably in an int and decodes losslessly.
const segmentFanout = 1_000_000

// MultiSource presents several opened stores as one
// merge.SegmentSource, so a single k-way merge.Iterator can sort
// events across every store named on a psort command line (spec.md
// §4.12's "N input stores"). Composite segment numbers are
// storeIndex*segmentFanout + segmentNumber.
type MultiSource struct {
	stores []*store.Reader
}

// NewMultiSource wraps already-opened readers. The caller retains
// ownership of each Reader's lifecycle (Close).
func NewMultiSource(readers []*store.Reader) *MultiSource {
	return &MultiSource{stores: readers}
}

func (m *MultiSource) split(composite int) (storeIdx, segment int) {
	return composite / segmentFanout, composite % segmentFanout
}

func (m *MultiSource) compose(storeIdx, segment int) int {
	return storeIdx*segmentFanout + segment
}

func (m *MultiSource) Segments() []int {
	var out []int
	for i, r := range m.stores {
		for _, seg := range r.Segments() {
			out = append(out, m.compose(i, seg))
		}
	}
	return out
}

func (m *MultiSource) ReadMeta(n int) (int64, int64, error) {
	storeIdx, seg := m.split(n)
	meta, err := m.stores[storeIdx].ReadMeta(seg)
	if err != nil {
		return 0, 0, err
	}
	return meta.First, meta.Last, nil
}

func (m *MultiSource) Count(n int) (int, error) {
	storeIdx, seg := m.split(n)
	return m.stores[storeIdx].Count(seg)
}

func (m *MultiSource) SeekTime(n int, lowerBound int64) (int, error) {
	storeIdx, seg := m.split(n)
	return m.stores[storeIdx].SeekTime(seg, lowerBound)
}

func (m *MultiSource) TimestampAt(n, i int) (int64, error) {
	storeIdx, seg := m.split(n)
	return m.stores[storeIdx].TimestampAt(seg, i)
}

func (m *MultiSource) GetEvent(n, i int) (*event.Event, error) {
	storeIdx, seg := m.split(n)
	ev, err := m.stores[storeIdx].GetEvent(seg, i)
	if err != nil {
		return nil, fmt.Errorf("psort: store %d: %w", storeIdx, err)
	}
	return ev, nil
}

func (m *MultiSource) TagsFor(composite, index int) []string {
	storeIdx, seg := m.split(composite)
	refs := m.stores[storeIdx].TagsFor(seg, index)
	if len(refs) == 0 {
		return nil
	}
	var labels []string
	for _, ref := range refs {
		tag, err := m.stores[storeIdx].ReadTag(ref.Offset)
		if err != nil {
			continue
		}
		labels = append(labels, tag.Labels...)
	}
	return labels
}

var _ merge.SegmentSource = (*MultiSource)(nil)

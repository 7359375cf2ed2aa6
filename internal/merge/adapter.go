package merge

import (
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/store"
)

// StoreAdapter presents an *internal/store.Reader as a SegmentSource,
// translating SegmentMeta into (first, last) and flattening tag
// references into their label strings.
type StoreAdapter struct {
	R *store.Reader
}

func (a StoreAdapter) Segments() []int { return a.R.Segments() }

func (a StoreAdapter) ReadMeta(n int) (int64, int64, error) {
	m, err := a.R.ReadMeta(n)
	if err != nil {
		return 0, 0, err
	}
	return m.First, m.Last, nil
}

func (a StoreAdapter) Count(n int) (int, error) { return a.R.Count(n) }

func (a StoreAdapter) SeekTime(n int, lowerBound int64) (int, error) {
	return a.R.SeekTime(n, lowerBound)
}

func (a StoreAdapter) TimestampAt(n, i int) (int64, error) { return a.R.TimestampAt(n, i) }

func (a StoreAdapter) GetEvent(n, i int) (*event.Event, error) { return a.R.GetEvent(n, i) }

func (a StoreAdapter) TagsFor(segment, index int) []string {
	refs := a.R.TagsFor(segment, index)
	if len(refs) == 0 {
		return nil
	}
	var labels []string
	for _, ref := range refs {
		tag, err := a.R.ReadTag(ref.Offset)
		if err != nil {
			continue
		}
		labels = append(labels, tag.Labels...)
	}
	return labels
}

package store

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/cdtdelta/plaso-core/internal/event"
)

var protoMemberPattern = regexp.MustCompile(`^plaso_proto\.(\d{6})$`)

// Reader opens a store archive read-only and provides random and
// time-indexed access to its segments (spec.md §4.8, component C8).
type Reader struct {
	zr       *zip.ReadCloser
	members  map[string]*zip.File
	segments []int

	mu    sync.Mutex
	cache map[int]*segmentData

	serializer event.Serializer

	tagOnce sync.Once
	tagMap  map[string][]TagRef
}

// TagRef is one decoded plaso_tag_index.NNNNNN entry.
type TagRef struct {
	Segment int
	Index   int
	UUID    string
	Offset  uint32
}

type segmentData struct {
	meta       SegmentMeta
	index      []byte
	timestamps []int64
	proto      []byte
}

// Open opens path and selects the serializer recorded in its
// information.dump member's leading identifier byte, refusing a store
// whose dialect this build does not implement (spec.md §9: "pick one
// wire format and refuse the others with a clear error") rather than
// attempting a silent upgrade.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	f, ok := findMember(zr, "information.dump")
	if !ok {
		zr.Close()
		return nil, fmt.Errorf("store: open %s: missing information.dump, cannot determine serializer", path)
	}
	rc, err := f.Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("store: open %s: reading information.dump: %w", path, err)
	}
	var idByte [1]byte
	_, err = io.ReadFull(rc, idByte[:])
	rc.Close()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("store: open %s: information.dump truncated: %w", path, err)
	}
	serializer, err := event.Lookup(event.SerializerID(idByte[0]))
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return newReader(zr, serializer), nil
}

func findMember(zr *zip.ReadCloser, name string) (*zip.File, bool) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// OpenReader opens path as a read-only store archive with an
// explicitly chosen serializer, bypassing the information.dump
// auto-detection Open performs; useful for tooling that must read a
// store before a serializer byte was ever written (e.g. tests
// constructing a Writer directly).
func OpenReader(path string, serializer event.Serializer) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return newReader(zr, serializer), nil
}

func newReader(zr *zip.ReadCloser, serializer event.Serializer) *Reader {
	r := &Reader{
		zr:         zr,
		members:    make(map[string]*zip.File),
		cache:      make(map[int]*segmentData),
		serializer: serializer,
	}
	for _, f := range zr.File {
		r.members[f.Name] = f
		if m := protoMemberPattern.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			r.segments = append(r.segments, n)
		}
	}
	sort.Ints(r.segments)
	return r
}

// Close releases the underlying archive.
func (r *Reader) Close() error { return r.zr.Close() }

// Segments returns every segment number present, ascending.
func (r *Reader) Segments() []int { return r.segments }

// ReadMeta parses segment N's sidecar header (spec.md §4.8).
func (r *Reader) ReadMeta(n int) (SegmentMeta, error) {
	seg, err := r.segment(n)
	if err != nil {
		return SegmentMeta{}, err
	}
	return seg.meta, nil
}

// GetEvent seeks the index member to offset 4*i, reads the byte
// offset, seeks the proto member to that offset, and deserializes
// (spec.md §4.8).
func (r *Reader) GetEvent(n, i int) (*event.Event, error) {
	seg, err := r.segment(n)
	if err != nil {
		return nil, err
	}
	offset, err := indexOffsetOf(seg.index, i)
	if err != nil {
		return nil, fmt.Errorf("store: segment %06d: %w", n, err)
	}
	payload, err := readProtoRecordAt(seg.proto, offset)
	if err != nil {
		return nil, fmt.Errorf("store: segment %06d: %w", n, err)
	}
	return r.serializer.Deserialize(payload)
}

// TimestampAt returns timestamps[i] for segment n without
// deserializing the event, used by the merge iterator's refill step.
func (r *Reader) TimestampAt(n, i int) (int64, error) {
	seg, err := r.segment(n)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(seg.timestamps) {
		return 0, fmt.Errorf("store: segment %06d: timestamp index %d out of range", n, i)
	}
	return seg.timestamps[i], nil
}

// Count returns the number of events in segment n.
func (r *Reader) Count(n int) (int, error) {
	seg, err := r.segment(n)
	if err != nil {
		return 0, err
	}
	return len(seg.timestamps), nil
}

// SeekTime binary-walks segment n's timestamps member to find the
// first index whose timestamp is >= lowerBound, the time-seek fast
// path of spec.md §4.8 ("avoids deserializing events that will be
// discarded by the time filter"). Segments whose timestamps reach
// mmapSeekThreshold bytes are searched in a memory-mapped temp-file
// copy written from the decoded slice (see mmapSeekTime); the decoded
// slice stays cached on the Reader either way, and a failed mapping
// falls back to searching the slice.
func (r *Reader) SeekTime(n int, lowerBound int64) (int, error) {
	seg, err := r.segment(n)
	if err != nil {
		return 0, err
	}
	ts := seg.timestamps
	if len(ts)*8 >= mmapSeekThreshold {
		idx, err := mmapSeekTime(ts, lowerBound)
		if err == nil {
			return idx, nil
		}
		log.Printf("debug: store: mmap seek fallback for segment %06d: %v", n, err)
	}
	idx := sort.Search(len(ts), func(i int) bool { return ts[i] >= lowerBound })
	return idx, nil
}

func (r *Reader) segment(n int) (*segmentData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seg, ok := r.cache[n]; ok {
		return seg, nil
	}

	metaBytes, err := r.readMember(memberName("plaso_meta", n))
	if err != nil {
		return nil, err
	}
	meta, err := DecodeMeta(n, metaBytes)
	if err != nil {
		return nil, err
	}

	indexBytes, err := r.readMember(memberName("plaso_index", n))
	if err != nil {
		return nil, err
	}
	timestampBytes, err := r.readMember(memberName("plaso_timestamps", n))
	if err != nil {
		return nil, err
	}
	timestamps, err := decodeTimestamps(timestampBytes)
	if err != nil {
		return nil, err
	}
	protoBytes, err := r.readMember(memberName("plaso_proto", n))
	if err != nil {
		return nil, err
	}

	if err := validateMonotonic(n, timestamps, meta); err != nil {
		return nil, err
	}

	seg := &segmentData{meta: meta, index: indexBytes, timestamps: timestamps, proto: protoBytes}
	r.cache[n] = seg
	return seg, nil
}

func validateMonotonic(n int, timestamps []int64, meta SegmentMeta) error {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			return fmt.Errorf("store: segment %06d: timestamps not non-decreasing at index %d", n, i)
		}
	}
	if len(timestamps) > 0 {
		if timestamps[0] != meta.First || timestamps[len(timestamps)-1] != meta.Last {
			return fmt.Errorf("store: segment %06d: decoded range [%d,%d] does not match meta range [%d,%d]",
				n, timestamps[0], timestamps[len(timestamps)-1], meta.First, meta.Last)
		}
	}
	return nil
}

func (r *Reader) readMember(name string) ([]byte, error) {
	f, ok := r.members[name]
	if !ok {
		return nil, fmt.Errorf("store: missing member %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("store: open member %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("store: read member %s: %w", name, err)
	}
	return data, nil
}

// TagsFor returns every tag reference for a given event, built lazily
// on first access from the plaso_tag_index.000001 member (spec.md §4.8).
func (r *Reader) TagsFor(segment, index int) []TagRef {
	r.loadTagIndex()
	return r.tagMap[tagKey(segment, index)]
}

// TagsForUUID returns every tag reference for an event addressed by
// opaque UUID.
func (r *Reader) TagsForUUID(uuid string) []TagRef {
	r.loadTagIndex()
	return r.tagMap[uuid]
}

func (r *Reader) loadTagIndex() {
	r.tagOnce.Do(func() {
		r.tagMap = make(map[string][]TagRef)
		data, err := r.readMember("plaso_tag_index.000001")
		if err != nil {
			return
		}
		refs, err := decodeTagIndex(data)
		if err != nil {
			return
		}
		for _, ref := range refs {
			var key string
			if ref.UUID != "" {
				key = ref.UUID
			} else {
				key = tagKey(ref.Segment, ref.Index)
			}
			r.tagMap[key] = append(r.tagMap[key], ref)
		}
	})
}

func tagKey(segment, index int) string {
	return fmt.Sprintf("%d:%d", segment, index)
}

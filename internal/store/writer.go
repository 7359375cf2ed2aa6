package store

import (
	"archive/zip"
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/dustin/go-humanize"
)

// DefaultFlushThreshold is the default total-buffered-bytes trigger
// for a segment flush (spec.md §4.7: "default 196 MiB").
const DefaultFlushThreshold = 196 * 1024 * 1024

// WriterConfig controls a Writer's flush behaviour.
type WriterConfig struct {
	// FlushThreshold is the buffered-byte trigger for an automatic
	// flush. Zero selects DefaultFlushThreshold.
	FlushThreshold int64
	// SerializerID selects the wire format recorded for every segment
	// (spec.md §3: "selected by a serializer identifier written into
	// information.dump").
	SerializerID byte
}

// Writer buffers serialized events in timestamp order and flushes
// complete segments to a ZIP archive (spec.md §4.7, component C7).
type Writer struct {
	zw     *zip.Writer
	closer io.Closer
	cfg    WriterConfig

	heap        entryHeap
	bufferBytes int64

	nextSegment int
	firstSeg    int
	wroteAny    bool

	dataTypes map[string]bool
	parsers   map[string]bool

	tagBuf     bytes.Buffer
	tagIndex   bytes.Buffer
	groupBuf   bytes.Buffer
	wroteTags  bool
	wroteGroup bool
}

// CreateWriter opens path for writing as a fresh store archive.
func CreateWriter(path string, cfg WriterConfig) (*Writer, error) {
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = DefaultFlushThreshold
	}
	if cfg.SerializerID == 0 {
		cfg.SerializerID = byte(event.SerializerLengthPrefixed)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", path, err)
	}
	w := &Writer{
		zw:          zip.NewWriter(f),
		closer:      f,
		cfg:         cfg,
		nextSegment: 1,
		firstSeg:    1,
		dataTypes:   make(map[string]bool),
		parsers:     make(map[string]bool),
	}
	heap.Init(&w.heap)
	return w, nil
}

// Add buffers one event for later flush. payload is the already
// serialized event (internal/event.Serializer output).
func (w *Writer) Add(timestamp int64, dataType, parser string, payload []byte) error {
	heap.Push(&w.heap, bufferEntry{timestamp: timestamp, dataType: dataType, parser: parser, payload: payload})
	w.bufferBytes += int64(len(payload))
	w.dataTypes[dataType] = true
	w.parsers[parser] = true

	if w.bufferBytes >= w.cfg.FlushThreshold {
		return w.Flush()
	}
	return nil
}

// Flush drains the buffer into the next segment number, writing the
// four member files named in spec.md §6. A nil error guarantees the
// segment trio is fully present (spec.md §4.7: "either fully present
// or absent"); a write error mid-flush leaves the archive without
// that segment's members (the caller should treat the Writer as
// unusable and surface the error; no partial member is left behind
// since zip.Writer buffers each entry before finalizing its header).
func (w *Writer) Flush() error {
	if w.heap.Len() == 0 {
		return nil
	}

	n := w.heap.Len()
	entries := make([]bufferEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = heap.Pop(&w.heap).(bufferEntry)
	}

	var proto bytes.Buffer
	offsets := make([]uint32, n)
	timestamps := make([]int64, n)
	typeCounts := make(map[string]int)

	var offset uint32
	for i, e := range entries {
		offsets[i] = offset
		timestamps[i] = e.timestamp
		if _, err := writeProtoRecord(&proto, offset, e.payload); err != nil {
			return err
		}
		offset += 4 + uint32(len(e.payload))
		typeCounts[e.dataType]++
	}

	segment := w.nextSegment
	meta := SegmentMeta{
		Number:    segment,
		First:     timestamps[0],
		Last:      timestamps[len(timestamps)-1],
		Version:   1,
		DataTypes: sortedKeys(w.dataTypes),
		Parsers:   sortedKeys(w.parsers),
		Count:     n,
	}
	for name, c := range typeCounts {
		meta.TypeCount = append(meta.TypeCount, TypeCount{Name: name, Count: c})
	}
	sort.Slice(meta.TypeCount, func(i, j int) bool { return meta.TypeCount[i].Name < meta.TypeCount[j].Name })

	if meta.Last < meta.First {
		return &ErrInvariantViolation{Segment: segment, First: meta.First, Last: meta.Last}
	}

	if err := w.writeMember(memberName("plaso_proto", segment), proto.Bytes()); err != nil {
		return err
	}
	if err := w.writeMember(memberName("plaso_index", segment), encodeIndex(offsets)); err != nil {
		return err
	}
	if err := w.writeMember(memberName("plaso_timestamps", segment), encodeTimestamps(timestamps)); err != nil {
		return err
	}
	if err := w.writeMember(memberName("plaso_meta", segment), EncodeMeta(meta)); err != nil {
		return err
	}

	log.Printf("debug: store: flushed segment %06d (%s, %d events)", segment, humanize.Bytes(uint64(proto.Len())), n)

	w.nextSegment++
	w.bufferBytes = 0
	w.wroteAny = true
	w.dataTypes = make(map[string]bool)
	w.parsers = make(map[string]bool)
	return nil
}

// AddTag appends a serialized tag record and its tag-index entry.
// Append-only: re-tagging the same target is the caller's
// responsibility to union with prior tags before calling AddTag
// again (spec.md §3: "tag records append-only ... union with prior
// tags for the same target"). Buffered in memory and flushed to the
// archive at Close, since archive/zip cannot append to an
// already-written member.
func (w *Writer) AddTag(indexEntry []byte, serializedTag []byte) error {
	var lenBuf [4]byte
	order.PutUint32(lenBuf[:], uint32(len(serializedTag)))
	w.tagBuf.Write(lenBuf[:])
	w.tagBuf.Write(serializedTag)
	w.tagIndex.Write(indexEntry)
	w.wroteTags = true
	return nil
}

// AddGroup appends a serialized group record, buffered the same way
// as AddTag.
func (w *Writer) AddGroup(serializedGroup []byte) error {
	var lenBuf [4]byte
	order.PutUint32(lenBuf[:], uint32(len(serializedGroup)))
	w.groupBuf.Write(lenBuf[:])
	w.groupBuf.Write(serializedGroup)
	w.wroteGroup = true
	return nil
}

// Close flushes any remaining buffered events, writes buffered tag and
// group records, writes the information.dump trailer with the
// writer's store_range, and closes the archive (spec.md §4.7:
// "appended once at close").
func (w *Writer) Close(serializedPreprocess []byte) error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.wroteTags {
		if err := w.writeMember("plaso_tagging.000001", w.tagBuf.Bytes()); err != nil {
			return err
		}
		if err := w.writeMember("plaso_tag_index.000001", w.tagIndex.Bytes()); err != nil {
			return err
		}
	}
	if w.wroteGroup {
		if err := w.writeMember("plaso_grouping.000001", w.groupBuf.Bytes()); err != nil {
			return err
		}
	}
	if w.wroteAny {
		if err := w.writeMember("information.dump", w.encodeInformationDump(serializedPreprocess)); err != nil {
			return err
		}
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("store: close archive: %w", err)
	}
	return w.closer.Close()
}

// encodeInformationDump prefixes the member with a single serializer
// identifier byte (spec.md §9: "implementations should pick one wire
// format and refuse the others with a clear error") followed by the
// length-prefixed preprocess+store_range record.
func (w *Writer) encodeInformationDump(serializedPreprocess []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(w.cfg.SerializerID)
	rangeRec := encodeStoreRange(w.firstSeg, w.nextSegment)
	combined := append(append([]byte{}, serializedPreprocess...), rangeRec...)
	var lenBuf [4]byte
	order.PutUint32(lenBuf[:], uint32(len(combined)))
	buf.Write(lenBuf[:])
	buf.Write(combined)
	return buf.Bytes()
}

func (w *Writer) writeMember(name string, data []byte) error {
	f, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("store: create member %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("store: write member %s: %w", name, err)
	}
	return nil
}

func memberName(prefix string, segment int) string {
	return fmt.Sprintf("%s.%06d", prefix, segment)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// encodeStoreRange renders a minimal store_range record:
// <u32 le first><u32 le lastPlusOne>, appended to the last
// information.dump record (spec.md §3, §6).
func encodeStoreRange(first, lastPlusOne int) []byte {
	buf := make([]byte, 8)
	order.PutUint32(buf[0:4], uint32(first))
	order.PutUint32(buf[4:8], uint32(lastPlusOne))
	return buf
}

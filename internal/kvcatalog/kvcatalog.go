// Package kvcatalog is an alternate, disk-backed tag/group index for
// very large stores, built on the same embedded ordered key/value
// engine the teacher uses for its BLAST hit databases
// (modernc.org/kv). internal/store.Reader keeps its tag index fully
// resident (spec.md §4.8); this package offers the same lookups
// backed by an on-disk ordered index instead, for deployments where
// the tag index itself is too large to hold in memory.
//
// Keys are BigEndian-encoded, unlike internal/store's LittleEndian
// on-disk records, matching the convention of the package this engine
// was grounded on.
package kvcatalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"modernc.org/kv"

	"github.com/cdtdelta/plaso-core/internal/store"
)

const (
	prefixSegment byte = 1
	prefixUUID    byte = 2
)

var order = binary.BigEndian

// Index is an on-disk ordered index over store.TagRef entries, keyed
// both by (segment, index) and by UUID so either lookup direction
// internal/store.Reader exposes (TagsFor, TagsForUUID) can be served.
type Index struct {
	db *kv.DB
}

// compareKeys orders first by the leading type-prefix byte so
// segment-keyed and UUID-keyed entries never interleave, then
// lexically by the remaining bytes.
func compareKeys(x, y []byte) int {
	return bytes.Compare(x, y)
}

// Create creates a new, empty on-disk tag index at path.
func Create(path string) (*Index, error) {
	db, err := kv.Create(path, &kv.Options{Compare: compareKeys})
	if err != nil {
		return nil, fmt.Errorf("kvcatalog: create %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Open opens an existing on-disk tag index at path.
func Open(path string) (*Index, error) {
	db, err := kv.Open(path, &kv.Options{Compare: compareKeys})
	if err != nil {
		return nil, fmt.Errorf("kvcatalog: open %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error { return ix.db.Close() }

// PutTag indexes one tag reference under both its (segment, index)
// key and, if present, its UUID key.
func (ix *Index) PutTag(ref store.TagRef) error {
	value := encodeTagRef(ref)

	segKey := segmentKey(ref.Segment, ref.Index, ref.Offset)
	if err := ix.db.Set(segKey, value); err != nil {
		return fmt.Errorf("kvcatalog: put segment key: %w", err)
	}
	if ref.UUID != "" {
		uuidKey := uuidKey(ref.UUID, ref.Offset)
		if err := ix.db.Set(uuidKey, value); err != nil {
			return fmt.Errorf("kvcatalog: put uuid key: %w", err)
		}
	}
	return nil
}

// TagsForSegment returns every tag reference indexed under
// (segment, index), in ascending tag-record offset order.
func (ix *Index) TagsForSegment(segment, index int) ([]store.TagRef, error) {
	prefix := segmentPrefix(segment, index)
	return ix.scanPrefix(prefix)
}

// TagsForUUID returns every tag reference indexed under uuid.
func (ix *Index) TagsForUUID(uuid string) ([]store.TagRef, error) {
	prefix := uuidPrefix(uuid)
	return ix.scanPrefix(prefix)
}

func (ix *Index) scanPrefix(prefix []byte) ([]store.TagRef, error) {
	enum, _, err := ix.db.Seek(prefix)
	if err != nil {
		return nil, fmt.Errorf("kvcatalog: seek: %w", err)
	}
	var out []store.TagRef
	for {
		k, v, err := enum.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kvcatalog: scan: %w", err)
		}
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		ref, err := decodeTagRef(v)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func segmentPrefix(segment, index int) []byte {
	var buf bytes.Buffer
	buf.WriteByte(prefixSegment)
	writeInt64(&buf, int64(segment))
	writeInt64(&buf, int64(index))
	return buf.Bytes()
}

func segmentKey(segment, index int, offset uint32) []byte {
	buf := bytes.NewBuffer(segmentPrefix(segment, index))
	var off [4]byte
	order.PutUint32(off[:], offset)
	buf.Write(off[:])
	return buf.Bytes()
}

func uuidPrefix(uuid string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(prefixUUID)
	buf.WriteString(uuid)
	buf.WriteByte(0) // NUL terminator so no uuid is a prefix of another
	return buf.Bytes()
}

func uuidKey(uuid string, offset uint32) []byte {
	buf := bytes.NewBuffer(uuidPrefix(uuid))
	var off [4]byte
	order.PutUint32(off[:], offset)
	buf.Write(off[:])
	return buf.Bytes()
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	order.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func encodeTagRef(ref store.TagRef) []byte {
	var buf bytes.Buffer
	writeInt64(&buf, int64(ref.Segment))
	writeInt64(&buf, int64(ref.Index))
	var off [4]byte
	order.PutUint32(off[:], ref.Offset)
	buf.Write(off[:])
	var n [8]byte
	order.PutUint64(n[:], uint64(len(ref.UUID)))
	buf.Write(n[:])
	buf.WriteString(ref.UUID)
	return buf.Bytes()
}

func decodeTagRef(data []byte) (store.TagRef, error) {
	if len(data) < 20 {
		return store.TagRef{}, fmt.Errorf("kvcatalog: truncated tag record")
	}
	ref := store.TagRef{
		Segment: int(int64(order.Uint64(data[0:8]))),
		Index:   int(int64(order.Uint64(data[8:16]))),
		Offset:  order.Uint32(data[16:20]),
	}
	data = data[20:]
	if len(data) < 8 {
		return store.TagRef{}, fmt.Errorf("kvcatalog: truncated tag record uuid length")
	}
	n := order.Uint64(data[:8])
	data = data[8:]
	if uint64(len(data)) < n {
		return store.TagRef{}, fmt.Errorf("kvcatalog: truncated tag record uuid")
	}
	ref.UUID = string(data[:n])
	return ref, nil
}

package store

import (
	"encoding/binary"
	"fmt"
	"io"
)

// order is little-endian throughout the on-disk segment members
// (spec.md §6: "<u32 le ...>", "<i64 le ...>"), distinct from the
// BigEndian discipline internal/event uses for its own wire records.
var order = binary.LittleEndian

// writeProtoRecord appends a length-prefixed serialized event to w and
// returns the byte offset the record started at, for use as the
// corresponding plaso_index.NNNNNN entry.
func writeProtoRecord(w io.Writer, offset uint32, payload []byte) (uint32, error) {
	var lenBuf [4]byte
	order.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return 0, fmt.Errorf("store: write proto length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return 0, fmt.Errorf("store: write proto payload: %w", err)
	}
	return offset, nil
}

// readProtoRecordAt reads the length-prefixed record starting at
// offset within proto (a full in-memory copy of a plaso_proto member;
// segments are bounded by the flush-size threshold so this is safe).
func readProtoRecordAt(proto []byte, offset uint32) ([]byte, error) {
	if int(offset)+4 > len(proto) {
		return nil, fmt.Errorf("store: proto offset %d out of range (len %d)", offset, len(proto))
	}
	n := order.Uint32(proto[offset : offset+4])
	start := int(offset) + 4
	end := start + int(n)
	if end > len(proto) {
		return nil, fmt.Errorf("store: proto record at offset %d truncated", offset)
	}
	return proto[start:end], nil
}

// encodeIndex renders the plaso_index.NNNNNN member: one u32 le offset
// per event, in segment order.
func encodeIndex(offsets []uint32) []byte {
	buf := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		order.PutUint32(buf[4*i:], o)
	}
	return buf
}

// decodeIndex parses a plaso_index.NNNNNN member.
func decodeIndex(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("store: index member length %d not a multiple of 4", len(data))
	}
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = order.Uint32(data[4*i:])
	}
	return out, nil
}

// encodeTimestamps renders the plaso_timestamps.NNNNNN member: one i64
// le microsecond timestamp per event, parallel to the index.
func encodeTimestamps(ts []int64) []byte {
	buf := make([]byte, 8*len(ts))
	for i, t := range ts {
		order.PutUint64(buf[8*i:], uint64(t))
	}
	return buf
}

// decodeTimestamps parses a plaso_timestamps.NNNNNN member.
func decodeTimestamps(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("store: timestamps member length %d not a multiple of 8", len(data))
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(order.Uint64(data[8*i:]))
	}
	return out, nil
}

// indexOffsetOf reads index entry i directly out of an encoded index
// member without a full decode, mirroring spec.md §4.8's
// "seeks the index member to offset 4·i" access pattern.
func indexOffsetOf(index []byte, i int) (uint32, error) {
	start := 4 * i
	if start+4 > len(index) {
		return 0, fmt.Errorf("store: index entry %d out of range", i)
	}
	return order.Uint32(index[start : start+4]), nil
}

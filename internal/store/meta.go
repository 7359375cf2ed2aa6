// Package store implements the event store writer and reader (spec.md
// §3/§4.7/§4.8, components C7+C8): a ZIP archive of partially-sorted
// segments with sidecar index/timestamp members, tag/group records,
// and a preprocess trailer. The length-prefixed record layout follows
// kortschak-ins's internal/store (MarshalBlastRecordKey/
// UnmarshalBlastRecordKey), with little-endian integers (records.go); the
// buffer/flush split follows rogpeppe-hydro's DiskStore (append-only,
// atomic-at-flush Commit batches).
package store

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MaxTimestamp is the sentinel "no upper bound" value (spec.md §4.8:
// "missing range fields default to (0, MAX_INT64)").
const MaxTimestamp = math.MaxInt64

// TypeCount is one (data_type, count) pair recorded in a segment's
// meta header.
type TypeCount struct {
	Name  string
	Count int
}

// SegmentMeta is the decoded form of a plaso_meta.NNNNNN member
// (spec.md §3, §4.7, §6 "on-disk, bit-exact" meta keys).
type SegmentMeta struct {
	Number    int
	First     int64
	Last      int64
	Version   int
	DataTypes []string
	Parsers   []string
	Count     int
	TypeCount []TypeCount
}

// ErrInvariantViolation reports a segment meta whose recorded range is
// inconsistent (last < first), which spec.md §7 treats as fatal for
// the whole store.
type ErrInvariantViolation struct {
	Segment int
	First   int64
	Last    int64
}

func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("store: segment %06d invariant violation: last (%d) < first (%d)", e.Segment, e.Last, e.First)
}

// EncodeMeta renders m as the textual key-value document described in
// spec.md §6: a YAML-equivalent subset, one "key: value" line per
// field, lists bracketed and comma-separated.
func EncodeMeta(m SegmentMeta) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "range: [%d,%d]\n", m.First, m.Last)
	fmt.Fprintf(&b, "version: %d\n", m.Version)
	fmt.Fprintf(&b, "data_type: [%s]\n", strings.Join(m.DataTypes, ","))
	fmt.Fprintf(&b, "parsers: [%s]\n", strings.Join(m.Parsers, ","))
	fmt.Fprintf(&b, "count: %d\n", m.Count)
	pairs := make([]string, len(m.TypeCount))
	for i, tc := range m.TypeCount {
		pairs[i] = fmt.Sprintf("[%s,%d]", tc.Name, tc.Count)
	}
	fmt.Fprintf(&b, "type_count: [%s]\n", strings.Join(pairs, ","))
	return []byte(b.String())
}

// DecodeMeta parses the textual key-value document written by
// EncodeMeta. A range with last < first yields ErrInvariantViolation;
// a missing range defaults to (0, MaxTimestamp) per spec.md §4.8.
func DecodeMeta(segment int, data []byte) (SegmentMeta, error) {
	m := SegmentMeta{Number: segment, Last: MaxTimestamp}
	haveRange := false

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "range":
			first, last, err := parseRange(value)
			if err != nil {
				return SegmentMeta{}, fmt.Errorf("store: decode meta range: %w", err)
			}
			m.First, m.Last = first, last
			haveRange = true
		case "version":
			v, _ := strconv.Atoi(value)
			m.Version = v
		case "data_type":
			m.DataTypes = splitList(value)
		case "parsers":
			m.Parsers = splitList(value)
		case "count":
			c, _ := strconv.Atoi(value)
			m.Count = c
		case "type_count":
			m.TypeCount = parseTypeCount(value)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return SegmentMeta{}, fmt.Errorf("store: decode meta: %w", err)
	}

	if haveRange && m.Last < m.First {
		return SegmentMeta{}, &ErrInvariantViolation{Segment: segment, First: m.First, Last: m.Last}
	}
	return m, nil
}

func parseRange(value string) (int64, int64, error) {
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return 0, MaxTimestamp, fmt.Errorf("malformed range %q", value)
	}
	first, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, MaxTimestamp, err
	}
	last, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, MaxTimestamp, err
	}
	return first, last, nil
}

func splitList(value string) []string {
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	sort.Strings(out)
	return out
}

func parseTypeCount(value string) []TypeCount {
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	if value == "" {
		return nil
	}
	var out []TypeCount
	depth := 0
	start := 0
	for i, r := range value {
		switch r {
		case '[':
			depth++
			if depth == 1 {
				start = i + 1
			}
		case ']':
			depth--
			if depth == 0 {
				name, count, ok := strings.Cut(value[start:i], ",")
				if ok {
					n, _ := strconv.Atoi(strings.TrimSpace(count))
					out = append(out, TypeCount{Name: strings.TrimSpace(name), Count: n})
				}
			}
		}
	}
	return out
}

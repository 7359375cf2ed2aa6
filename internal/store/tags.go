package store

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// TargetKind distinguishes the two forms a tag/group event reference
// can take (spec.md §3: "target_reference is either (segment, index)
// or a UUID").
type TargetKind byte

const (
	TargetSegmentIndex TargetKind = 0
	TargetUUID         TargetKind = 1
)

// Tag is the decoded form of a serialized tag record (spec.md §3).
type Tag struct {
	Labels  []string
	Comment string
	Color   string
}

// Group is the decoded form of a serialized group record (spec.md §3).
type Group struct {
	Name        string
	Category    string
	Color       string
	Description string
	FirstTime   int64
	LastTime    int64
	EventRefs   []EventRef
}

// EventRef addresses one event by (segment, index).
type EventRef struct {
	Segment int
	Index   int
}

// EncodeTagIndexEntry renders one plaso_tag_index.NNNNNN entry:
// <u8 type><u32 le offset>(<u32 store_num><u32 store_index> |
// <u8 len><len bytes uuid>) (spec.md §6).
func EncodeTagIndexEntry(offset uint32, ref TagRef) []byte {
	var buf bytes.Buffer
	if ref.UUID != "" {
		buf.WriteByte(byte(TargetUUID))
		var ob [4]byte
		order.PutUint32(ob[:], offset)
		buf.Write(ob[:])
		buf.WriteByte(byte(len(ref.UUID)))
		buf.WriteString(ref.UUID)
		return buf.Bytes()
	}
	buf.WriteByte(byte(TargetSegmentIndex))
	var ob [4]byte
	order.PutUint32(ob[:], offset)
	buf.Write(ob[:])
	var sb [4]byte
	order.PutUint32(sb[:], uint32(ref.Segment))
	buf.Write(sb[:])
	var ib [4]byte
	order.PutUint32(ib[:], uint32(ref.Index))
	buf.Write(ib[:])
	return buf.Bytes()
}

// decodeTagIndex parses the full plaso_tag_index.NNNNNN member into
// its entries.
func decodeTagIndex(data []byte) ([]TagRef, error) {
	var refs []TagRef
	pos := 0
	for pos < len(data) {
		if pos+5 > len(data) {
			return nil, fmt.Errorf("store: truncated tag index entry at %d", pos)
		}
		kind := TargetKind(data[pos])
		offset := order.Uint32(data[pos+1 : pos+5])
		pos += 5
		switch kind {
		case TargetSegmentIndex:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("store: truncated segment/index tag entry at %d", pos)
			}
			seg := order.Uint32(data[pos : pos+4])
			idx := order.Uint32(data[pos+4 : pos+8])
			pos += 8
			refs = append(refs, TagRef{Segment: int(seg), Index: int(idx), Offset: offset})
		case TargetUUID:
			if pos+1 > len(data) {
				return nil, fmt.Errorf("store: truncated uuid tag entry at %d", pos)
			}
			n := int(data[pos])
			pos++
			if pos+n > len(data) {
				return nil, fmt.Errorf("store: truncated uuid bytes at %d", pos)
			}
			refs = append(refs, TagRef{UUID: string(data[pos : pos+n]), Offset: offset})
			pos += n
		default:
			return nil, fmt.Errorf("store: unknown tag index entry kind %d at %d", kind, pos-5)
		}
	}
	return refs, nil
}

// ReadTag decodes the length-prefixed tag record at offset within the
// plaso_tagging.000001 member.
func (r *Reader) ReadTag(offset uint32) (Tag, error) {
	data, err := r.readMember("plaso_tagging.000001")
	if err != nil {
		return Tag{}, err
	}
	payload, err := readProtoRecordAt(data, offset)
	if err != nil {
		return Tag{}, err
	}
	return decodeTag(payload)
}

// Groups decodes every record in the plaso_grouping.000001 member
// (spec.md §4.8: "exposes ... group iteration").
func (r *Reader) Groups() ([]Group, error) {
	data, err := r.readMember("plaso_grouping.000001")
	if err != nil {
		return nil, nil
	}
	var groups []Group
	pos := 0
	for pos < len(data) {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("store: truncated group record at %d", pos)
		}
		n := order.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(n) > len(data) {
			return nil, fmt.Errorf("store: truncated group payload at %d", pos)
		}
		g, err := decodeGroup(data[pos : pos+int(n)])
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
		pos += int(n)
	}
	return groups, nil
}

// EncodeTag renders a Tag into the textual payload ReadTag decodes.
func EncodeTag(t Tag) []byte {
	return []byte(fmt.Sprintf("%s\t%s\t%s", strings.Join(t.Labels, ","), t.Comment, t.Color))
}

// EncodeGroup renders a Group into the textual payload Groups decodes.
// All seven spec.md §3 fields are carried: the five scalar fields plus
// LastTime and the event_refs list, the latter rendered as
// comma-joined "segment:index" pairs.
func EncodeGroup(g Group) []byte {
	return []byte(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%s",
		g.Name, g.Category, g.Color, g.Description, g.FirstTime, g.LastTime, encodeEventRefs(g.EventRefs)))
}

func encodeEventRefs(refs []EventRef) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = fmt.Sprintf("%d:%d", ref.Segment, ref.Index)
	}
	return strings.Join(parts, ",")
}

func decodeEventRefs(s string) ([]EventRef, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	refs := make([]EventRef, len(parts))
	for i, p := range parts {
		segIdx := strings.SplitN(p, ":", 2)
		if len(segIdx) != 2 {
			return nil, fmt.Errorf("store: malformed event ref %q", p)
		}
		seg, err := strconv.Atoi(segIdx[0])
		if err != nil {
			return nil, fmt.Errorf("store: malformed event ref %q: %w", p, err)
		}
		idx, err := strconv.Atoi(segIdx[1])
		if err != nil {
			return nil, fmt.Errorf("store: malformed event ref %q: %w", p, err)
		}
		refs[i] = EventRef{Segment: seg, Index: idx}
	}
	return refs, nil
}

// decodeTag and decodeGroup use a minimal netstring-free textual
// encoding (tab-separated fields) distinct from the event serializers,
// since tag/group records are small and rarely round-tripped across
// process boundaries.
func decodeTag(payload []byte) (Tag, error) {
	fields := strings.Split(string(payload), "\t")
	if len(fields) < 3 {
		return Tag{}, fmt.Errorf("store: malformed tag record")
	}
	return Tag{Labels: strings.Split(fields[0], ","), Comment: fields[1], Color: fields[2]}, nil
}

func decodeGroup(payload []byte) (Group, error) {
	fields := strings.SplitN(string(payload), "\t", 7)
	if len(fields) < 7 {
		return Group{}, fmt.Errorf("store: malformed group record")
	}
	first, _ := strconv.ParseInt(fields[4], 10, 64)
	last, _ := strconv.ParseInt(fields[5], 10, 64)
	refs, err := decodeEventRefs(fields[6])
	if err != nil {
		return Group{}, err
	}
	return Group{
		Name:        fields[0],
		Category:    fields[1],
		Color:       fields[2],
		Description: fields[3],
		FirstTime:   first,
		LastTime:    last,
		EventRefs:   refs,
	}, nil
}

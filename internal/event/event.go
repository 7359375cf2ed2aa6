// Package event defines the canonical in-memory representation of a
// single timeline event (spec.md §3/§4.1, component C1): the attribute
// bag, reserved-attribute accessors, the equality key used by the
// dedup/join buffer, and the pluggable wire serializer.
package event

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// reservedAttrs are the attribute names with dedicated dedup/join
// semantics (spec.md §3). Lookup is case-insensitive.
var reservedAttrs = map[string]bool{
	"filename":     true,
	"display_name": true,
	"inode":        true,
	"hostname":     true,
	"username":     true,
	"pathspec":     true,
	"offset":       true,
	"store_number": true,
	"store_index":  true,
	"tag":          true,
	"body":         true,
}

// IsReserved reports whether name (case-insensitively) is a reserved
// attribute name.
func IsReserved(name string) bool {
	return reservedAttrs[strings.ToLower(name)]
}

// FilestatParser is the canonical parser name that triggers the
// missing-inode non-equality rule (spec.md §3, §8).
const FilestatParser = "filestat"

// Event is the canonical record produced by the worker subsystem and
// persisted to exactly one store segment.
type Event struct {
	Timestamp     int64  // microseconds since Unix epoch, no timezone
	TimestampDesc string // e.g. "Last Written"
	DataType      string // dotted schema identifier
	Parser        string // canonical name of the producing parser

	Attributes map[string]Value

	// uniqueSalt is set for filestat events with a missing inode so
	// that EqualityKey never collides with another event (spec.md §3,
	// §8 "FileStat inode distinctness"). It is not part of the wire
	// format attribute bag and is assigned lazily on first access.
	uniqueSalt string
}

// New returns an Event with an initialized, empty attribute bag.
func New(ts int64, tsDesc, dataType, parser string) *Event {
	return &Event{
		Timestamp:     ts,
		TimestampDesc: tsDesc,
		DataType:      dataType,
		Parser:        parser,
		Attributes:    make(map[string]Value),
	}
}

// Set stores an attribute value under the lowercased name, so reads
// through Get match case-insensitively.
func (e *Event) Set(name string, v Value) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]Value)
	}
	e.Attributes[strings.ToLower(name)] = v
}

// Get returns the attribute named name (case-insensitive) and whether
// it was present.
func (e *Event) Get(name string) (Value, bool) {
	v, ok := e.Attributes[strings.ToLower(name)]
	return v, ok
}

// hasInode reports whether the reserved "inode" attribute is present
// and non-null.
func (e *Event) hasInode() bool {
	v, ok := e.Get("inode")
	return ok && !v.IsNull()
}

// EqualityKey returns a stable byte string equal for two events iff
// they are duplicates under the dedup/join policy (spec.md §3, §4.1,
// §8). It includes timestamp, timestamp_desc, data_type, and the
// sorted set of non-reserved attributes. Filestat events missing an
// inode always produce a distinct key via a per-event salt.
func (e *Event) EqualityKey() []byte {
	var b strings.Builder
	b.WriteString("ts:")
	writeInt(&b, e.Timestamp)
	b.WriteString("|td:")
	b.WriteString(e.TimestampDesc)
	b.WriteString("|dt:")
	b.WriteString(e.DataType)

	if strings.EqualFold(e.Parser, FilestatParser) && !e.hasInode() {
		if e.uniqueSalt == "" {
			e.uniqueSalt = uuid.NewString()
		}
		b.WriteString("|salt:")
		b.WriteString(e.uniqueSalt)
		return []byte(b.String())
	}

	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		if !IsReserved(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("|a:")
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(e.Attributes[name].canonicalString())
	}
	return []byte(b.String())
}

func writeInt(b *strings.Builder, n int64) {
	// strconv.AppendInt would need an allocation anyway via string();
	// this keeps the key construction in one place.
	if n < 0 {
		b.WriteByte('-')
		n = -n
	}
	if n == 0 {
		b.WriteByte('0')
		return
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	b.Write(digits[i:])
}

// Clone returns a copy of e with its own attribute map, useful before
// setting attributes on an event shared elsewhere (e.g. during dedup
// join). List and map values inside attributes are shared with e.
func (e *Event) Clone() *Event {
	c := &Event{
		Timestamp:     e.Timestamp,
		TimestampDesc: e.TimestampDesc,
		DataType:      e.DataType,
		Parser:        e.Parser,
		Attributes:    make(map[string]Value, len(e.Attributes)),
		uniqueSalt:    e.uniqueSalt,
	}
	for k, v := range e.Attributes {
		c.Attributes[k] = v
	}
	return c
}

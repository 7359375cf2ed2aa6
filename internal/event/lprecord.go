package event

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/golang/snappy"
)

// lengthPrefixedSerializer is the modern dialect: a tagged binary
// encoding of the attribute bag. Field order and tag layout follow
// the BigEndian, length-prefixed-string convention of kortschak-ins's
// MarshalBlastRecordKey; internal/store's segment members, by
// contrast, are little-endian.
type lengthPrefixedSerializer struct {
	snappy bool
}

func (s lengthPrefixedSerializer) ID() SerializerID {
	if s.snappy {
		return SerializerLengthPrefixedSnappy
	}
	return SerializerLengthPrefixed
}

func (s lengthPrefixedSerializer) Serialize(e *Event) ([]byte, error) {
	var buf bytes.Buffer
	writeInt64(&buf, e.Timestamp)
	writeString(&buf, e.TimestampDesc)
	writeString(&buf, e.DataType)
	writeString(&buf, e.Parser)

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeUint32(&buf, uint32(len(keys)))
	for _, k := range keys {
		writeString(&buf, k)
		if err := writeValue(&buf, e.Attributes[k]); err != nil {
			return nil, &SerializationError{Op: "encode attribute " + k, Err: err}
		}
	}

	out := buf.Bytes()
	if s.snappy {
		out = snappy.Encode(nil, out)
	}
	return out, nil
}

func (s lengthPrefixedSerializer) Deserialize(data []byte) (*Event, error) {
	if s.snappy {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, &SerializationError{Op: "snappy decode", Err: err}
		}
		data = decoded
	}

	r := bytes.NewReader(data)
	ts, err := readInt64(r)
	if err != nil {
		return nil, &SerializationError{Op: "read timestamp", Err: err}
	}
	tsDesc, err := readString(r)
	if err != nil {
		return nil, &SerializationError{Op: "read timestamp_desc", Err: err}
	}
	dataType, err := readString(r)
	if err != nil {
		return nil, &SerializationError{Op: "read data_type", Err: err}
	}
	parser, err := readString(r)
	if err != nil {
		return nil, &SerializationError{Op: "read parser", Err: err}
	}

	n, err := readUint32(r)
	if err != nil {
		return nil, &SerializationError{Op: "read attribute count", Err: err}
	}

	e := New(ts, tsDesc, dataType, parser)
	for i := uint32(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, &SerializationError{Op: "read attribute name", Err: err}
		}
		v, err := readValue(r)
		if err != nil {
			return nil, &SerializationError{Op: "read attribute " + name, Err: err}
		}
		e.Attributes[name] = v
	}
	return e, nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case KindNull:
	case KindString:
		writeString(buf, v.Str)
	case KindInt:
		writeInt64(buf, v.Int)
	case KindFloat:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Flt))
		buf.Write(b[:])
	case KindBool:
		if v.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindList:
		writeUint32(buf, uint32(len(v.List)))
		for _, e := range v.List {
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writeUint32(buf, uint32(len(keys)))
		for _, k := range keys {
			writeString(buf, k)
			if err := writeValue(buf, v.Map[k]); err != nil {
				return err
			}
		}
	default:
		return &SerializationError{Op: "encode value", Err: errUnsupportedKind(v.Kind)}
	}
	return nil
}

func readValue(r *bytes.Reader) (Value, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Value{}, err
	}
	kind := Kind(kindByte)
	switch kind {
	case KindNull:
		return Value{Kind: KindNull}, nil
	case KindString:
		s, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case KindInt:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case KindFloat:
		var b [8]byte
		if _, err := readFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return Float(math.Float64frombits(binary.BigEndian.Uint64(b[:]))), nil
	case KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil
	case KindList:
		n, err := readUint32(r)
		if err != nil {
			return Value{}, err
		}
		list := make([]Value, n)
		for i := range list {
			list[i], err = readValue(r)
			if err != nil {
				return Value{}, err
			}
		}
		return List(list), nil
	case KindMap:
		n, err := readUint32(r)
		if err != nil {
			return Value{}, err
		}
		m := make(map[string]Value, n)
		for i := uint32(0); i < n; i++ {
			k, err := readString(r)
			if err != nil {
				return Value{}, err
			}
			v, err := readValue(r)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	default:
		return Value{}, errUnsupportedKind(kind)
	}
}

type errUnsupportedKind Kind

func (k errUnsupportedKind) Error() string {
	return "unsupported value kind"
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, n int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	return io.ReadFull(r, b)
}

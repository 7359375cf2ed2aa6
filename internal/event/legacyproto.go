package event

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// legacyProtoSerializer is the textual dialect kept for stores written
// by older tooling (spec.md §9: "the source stores multiple
// serialization dialects over time"). Every string and number is
// framed as a netstring (<byte-length>:<bytes>) so arbitrary string
// content never needs escaping; a bool is a single '0'/'1' byte and a
// null has no payload; compound values are framed as an element count
// followed by that many recursively-encoded values.
type legacyProtoSerializer struct{}

func (legacyProtoSerializer) ID() SerializerID { return SerializerLegacyProto }

func (legacyProtoSerializer) Serialize(e *Event) ([]byte, error) {
	var buf bytes.Buffer
	writeNetstring(&buf, strconv.FormatInt(e.Timestamp, 10))
	writeNetstring(&buf, e.TimestampDesc)
	writeNetstring(&buf, e.DataType)
	writeNetstring(&buf, e.Parser)

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(&buf, "%d:", len(keys))
	for _, k := range keys {
		writeNetstring(&buf, k)
		if err := encodeLegacyValue(&buf, e.Attributes[k]); err != nil {
			return nil, &SerializationError{Op: "encode attribute " + k, Err: err}
		}
	}
	return buf.Bytes(), nil
}

func (legacyProtoSerializer) Deserialize(data []byte) (*Event, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	tsStr, err := readNetstring(r)
	if err != nil {
		return nil, &SerializationError{Op: "read timestamp", Err: err}
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, &SerializationError{Op: "parse timestamp", Err: err}
	}
	tsDesc, err := readNetstring(r)
	if err != nil {
		return nil, &SerializationError{Op: "read timestamp_desc", Err: err}
	}
	dataType, err := readNetstring(r)
	if err != nil {
		return nil, &SerializationError{Op: "read data_type", Err: err}
	}
	parser, err := readNetstring(r)
	if err != nil {
		return nil, &SerializationError{Op: "read parser", Err: err}
	}

	n, err := readCount(r)
	if err != nil {
		return nil, &SerializationError{Op: "read attribute count", Err: err}
	}

	e := New(ts, tsDesc, dataType, parser)
	for i := 0; i < n; i++ {
		name, err := readNetstring(r)
		if err != nil {
			return nil, &SerializationError{Op: "read attribute name", Err: err}
		}
		v, err := decodeLegacyValue(r)
		if err != nil {
			return nil, &SerializationError{Op: "read attribute " + name, Err: err}
		}
		e.Attributes[name] = v
	}
	return e, nil
}

func encodeLegacyValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("n:")
	case KindString:
		buf.WriteString("s:")
		writeNetstring(buf, v.Str)
	case KindInt:
		buf.WriteString("i:")
		writeNetstring(buf, strconv.FormatInt(v.Int, 10))
	case KindFloat:
		buf.WriteString("f:")
		writeNetstring(buf, strconv.FormatFloat(v.Flt, 'g', -1, 64))
	case KindBool:
		buf.WriteString("b:")
		if v.Bool {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	case KindList:
		buf.WriteString("l:")
		fmt.Fprintf(buf, "%d:", len(v.List))
		for _, elem := range v.List {
			if err := encodeLegacyValue(buf, elem); err != nil {
				return err
			}
		}
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("m:")
		fmt.Fprintf(buf, "%d:", len(keys))
		for _, k := range keys {
			writeNetstring(buf, k)
			if err := encodeLegacyValue(buf, v.Map[k]); err != nil {
				return err
			}
		}
	default:
		return errUnsupportedKind(v.Kind)
	}
	return nil
}

func decodeLegacyValue(r *bufio.Reader) (Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Value{}, err
	}
	if _, err := r.ReadByte(); err != nil { // the ':' separator
		return Value{}, err
	}
	switch tag {
	case 'n':
		return Value{Kind: KindNull}, nil
	case 's':
		s, err := readNetstring(r)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case 'i':
		s, err := readNetstring(r)
		if err != nil {
			return Value{}, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case 'f':
		s, err := readNetstring(r)
		if err != nil {
			return Value{}, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case 'b':
		b, err := r.ReadByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b == '1'), nil
	case 'l':
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		list := make([]Value, n)
		for i := range list {
			list[i], err = decodeLegacyValue(r)
			if err != nil {
				return Value{}, err
			}
		}
		return List(list), nil
	case 'm':
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		m := make(map[string]Value, n)
		for i := 0; i < n; i++ {
			k, err := readNetstring(r)
			if err != nil {
				return Value{}, err
			}
			v, err := decodeLegacyValue(r)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("legacyproto: unknown value tag %q", tag)
	}
}

// writeNetstring writes s framed as "<len>:<bytes>", the convention
// used throughout this dialect so strings never need escaping.
func writeNetstring(buf *bytes.Buffer, s string) {
	fmt.Fprintf(buf, "%d:", len(s))
	buf.WriteString(s)
}

func readNetstring(r *bufio.Reader) (string, error) {
	n, err := readCount(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := readFullBuf(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// readCount reads a decimal ASCII count terminated by ':'.
func readCount(r *bufio.Reader) (int, error) {
	s, err := r.ReadString(':')
	if err != nil {
		return 0, err
	}
	s = s[:len(s)-1]
	return strconv.Atoi(s)
}

func readFullBuf(r *bufio.Reader, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := r.Read(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

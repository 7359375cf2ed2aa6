package event

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

// Value is the tagged-variant type backing the attribute bag (spec §3:
// "string, int, float, bool, list, or nested bag").
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

func String(s string) Value             { return Value{Kind: KindString, Str: s} }
func Int(n int64) Value                 { return Value{Kind: KindInt, Int: n} }
func Float(f float64) Value             { return Value{Kind: KindFloat, Flt: f} }
func Bool(b bool) Value                 { return Value{Kind: KindBool, Bool: b} }
func List(vs []Value) Value             { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value      { return Value{Kind: KindMap, Map: m} }

// IsNull reports whether v is the zero/null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports deep equality between two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Flt == o.Flt
	case KindBool:
		return v.Bool == o.Bool
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, vv := range v.Map {
			ov, ok := o.Map[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// DisplayString renders v as human-readable text for a renderer
// (internal/render), distinct from canonicalString's equality-key
// encoding. Lists/maps are flattened with ';' and '=' separators,
// matching the teacher's dynamicparser MACB/fieldAliases convention
// of flat, single-cell CSV values.
func (v Value) DisplayString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Flt)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.DisplayString()
		}
		return strings.Join(parts, ";")
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.Map[k].DisplayString()
		}
		return strings.Join(parts, ";")
	}
	return ""
}

// canonicalString renders v deterministically for use inside an
// equality key; it is not meant to be human-readable.
func (v Value) canonicalString() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindString:
		return "s:" + v.Str
	case KindInt:
		return fmt.Sprintf("i:%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("f:%g", v.Flt)
	case KindBool:
		return fmt.Sprintf("b:%t", v.Bool)
	case KindList:
		out := "l:["
		for i, e := range v.List {
			if i > 0 {
				out += ","
			}
			out += e.canonicalString()
		}
		return out + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "m:{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += k + "=" + v.Map[k].canonicalString()
		}
		return out + "}"
	}
	return ""
}

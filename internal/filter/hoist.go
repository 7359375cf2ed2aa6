package filter

import "math"

// MaxTimestamp mirrors internal/store.MaxTimestamp without importing
// the store package (filter has no other reason to depend on it).
const MaxTimestamp = math.MaxInt64

// Bounds is the narrowest [Lower, Upper] range a compiled expression's
// top-level timestamp conjuncts constrain the result to (spec.md
// §4.10: "Time-range hoisting").
type Bounds struct {
	Lower int64
	Upper int64
}

// DefaultBounds is the unconstrained range used when no hoistable
// timestamp conjunct is present.
func DefaultBounds() Bounds { return Bounds{Lower: 0, Upper: MaxTimestamp} }

// Hoist walks the matcher tree for top-level AND conjuncts of the
// form `timestamp OP literal` and returns the narrowest bounds
// derivable from them. Disjunctions and context operators containing
// timestamp predicates are not hoistable and leave the bounds at
// DefaultBounds (spec.md §4.10).
func (m *Matcher) Hoist() Bounds {
	if m == nil || m.root == nil {
		return DefaultBounds()
	}
	b := DefaultBounds()
	collectConjuncts(m.root, &b)
	return b
}

func collectConjuncts(n Node, b *Bounds) {
	switch node := n.(type) {
	case *BinaryExpr:
		if node.Or {
			return
		}
		collectConjuncts(node.Left, b)
		collectConjuncts(node.Right, b)
	case *CompareExpr:
		applyTimestampBound(node, b)
	}
}

func applyTimestampBound(c *CompareExpr, b *Bounds) {
	if len(c.Field) != 1 {
		return
	}
	if resolveAlias(c.Field[0]) != "timestamp" {
		return
	}

	var value int64
	switch {
	case c.Literal.IsInt:
		value = c.Literal.Int
	case c.Literal.IsFloat:
		value = int64(c.Literal.Flt)
	case c.Literal.IsString:
		ts, ok := coerceDate(c.Literal.Str)
		if !ok {
			return
		}
		value = ts
	default:
		return
	}

	switch c.Op {
	case OpGreater:
		if value+1 > b.Lower {
			b.Lower = value + 1
		}
	case OpGreaterEq:
		if value > b.Lower {
			b.Lower = value
		}
	case OpLess:
		if value-1 < b.Upper {
			b.Upper = value - 1
		}
	case OpLessEq:
		if value < b.Upper {
			b.Upper = value
		}
	case OpEquals:
		if value > b.Lower {
			b.Lower = value
		}
		if value < b.Upper {
			b.Upper = value
		}
	}
}

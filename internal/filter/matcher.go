package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/samber/lo"
)

// Formatter resolves the human-readable description strings and
// source labels a filter's hardcoded aliases depend on (spec.md
// §4.10: "description/description_long -> formatted message",
// "source -> formatter short-source", etc). Kept as a narrow
// interface so filter does not depend on internal/render.
type Formatter interface {
	DescriptionLong(ev *event.Event) string
	DescriptionShort(ev *event.Event) string
	SourceShort(ev *event.Event) string
	SourceLong(ev *event.Event) string
}

// Matcher evaluates a compiled Node against events.
type Matcher struct {
	root      Node
	formatter Formatter
	regexCache map[Node]*regexp.Regexp
}

// Compile parses expr and returns a ready-to-use Matcher. A nil
// formatter is permitted; description/source field aliases then
// resolve to the empty string.
func Compile(expr string, formatter Formatter) (*Matcher, error) {
	root, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	m := &Matcher{root: root, formatter: formatter, regexCache: make(map[Node]*regexp.Regexp)}
	if err := m.precompileRegexps(root); err != nil {
		return nil, err
	}
	return m, nil
}

// precompileRegexps walks the tree compiling every regexp/iregexp
// literal up front, so a malformed pattern fails at compile time
// rather than silently matching nothing at eval time (spec.md §4.10:
// "malformed regex is a compile-time error").
func (m *Matcher) precompileRegexps(n Node) error {
	switch node := n.(type) {
	case *BinaryExpr:
		if err := m.precompileRegexps(node.Left); err != nil {
			return err
		}
		return m.precompileRegexps(node.Right)
	case *NotExpr:
		return m.precompileRegexps(node.Child)
	case *ContextExpr:
		return m.precompileRegexps(node.Child)
	case *CompareExpr:
		if node.Op != OpRegexp && node.Op != OpIRegexp {
			return nil
		}
		pattern := node.Literal.Str
		if node.Op == OpIRegexp {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &ParseError{Msg: "invalid regexp literal: " + err.Error()}
		}
		m.regexCache[node] = re
	}
	return nil
}

// Matches reports whether ev satisfies the compiled expression. A nil
// root (empty filter) matches every event (spec.md §4.10).
func (m *Matcher) Matches(ev *event.Event) bool {
	if m == nil || m.root == nil {
		return true
	}
	return m.eval(m.root, ev)
}

func (m *Matcher) eval(n Node, ev *event.Event) bool {
	switch node := n.(type) {
	case *BinaryExpr:
		if node.Or {
			return m.eval(node.Left, ev) || m.eval(node.Right, ev)
		}
		return m.eval(node.Left, ev) && m.eval(node.Right, ev)
	case *NotExpr:
		return !m.eval(node.Child, ev)
	case *CompareExpr:
		return m.evalCompare(node, ev)
	case *ContextExpr:
		return m.evalContext(node, ev)
	}
	return false
}

// fieldAliases hardcodes the four alias groups spec.md §4.10 requires
// resolved on every lookup.
var fieldAliases = map[string]string{
	"date": "timestamp", "datetime": "timestamp", "time": "timestamp",
	"description": "__description_long", "description_long": "__description_long",
	"description_short": "__description_short",
	"source":            "__source_short",
	"source_long":       "__source_long", "sourcetype": "__source_long",
}

func resolveAlias(field string) string {
	lower := strings.ToLower(field)
	if alias, ok := fieldAliases[lower]; ok {
		return alias
	}
	return lower
}

func (m *Matcher) lookup(ev *event.Event, path []string) ([]event.Value, bool) {
	if len(path) == 0 {
		return nil, false
	}
	head := resolveAlias(path[0])
	rest := path[1:]

	switch head {
	case "timestamp":
		if len(rest) != 0 {
			return nil, false
		}
		return []event.Value{event.Int(ev.Timestamp)}, true
	case "__description_long":
		return []event.Value{event.String(m.formatterOr("").DescriptionLong(ev))}, true
	case "__description_short":
		return []event.Value{event.String(m.formatterOr("").DescriptionShort(ev))}, true
	case "__source_short":
		return []event.Value{event.String(m.formatterOr("").SourceShort(ev))}, true
	case "__source_long":
		return []event.Value{event.String(m.formatterOr("").SourceLong(ev))}, true
	}

	v, ok := ev.Get(path[0])
	if !ok {
		return nil, false
	}
	return descend(v, rest)
}

type nullFormatter struct{}

func (nullFormatter) DescriptionLong(*event.Event) string  { return "" }
func (nullFormatter) DescriptionShort(*event.Event) string { return "" }
func (nullFormatter) SourceShort(*event.Event) string      { return "" }
func (nullFormatter) SourceLong(*event.Event) string       { return "" }

func (m *Matcher) formatterOr(string) Formatter {
	if m.formatter != nil {
		return m.formatter
	}
	return nullFormatter{}
}

// descend walks path into a map-valued or list-valued attribute.
// For a list at any step, the remaining path is matched against each
// element and the results flattened (existential semantics are
// applied by the caller).
func descend(v event.Value, path []string) ([]event.Value, bool) {
	if len(path) == 0 {
		return []event.Value{v}, true
	}
	switch v.Kind {
	case event.KindMap:
		next, ok := v.Map[path[0]]
		if !ok {
			return nil, false
		}
		return descend(next, path[1:])
	case event.KindList:
		var out []event.Value
		any := false
		for _, elem := range v.List {
			vals, ok := descend(elem, path)
			if ok {
				any = true
				out = append(out, vals...)
			}
		}
		return out, any
	}
	return nil, false
}

func (m *Matcher) evalCompare(c *CompareExpr, ev *event.Event) bool {
	values, ok := m.lookup(ev, c.Field)
	if !ok {
		return false
	}
	for _, v := range values {
		if m.compareOne(c, v) {
			return true
		}
	}
	return false
}

func (m *Matcher) compareOne(c *CompareExpr, v event.Value) bool {
	switch c.Op {
	case OpEquals:
		return equalsLiteral(v, c.Literal)
	case OpNotEqual:
		return !equalsLiteral(v, c.Literal)
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		return compareNumeric(c.Op, v, c.Literal)
	case OpContains:
		return containsOp(v, c.Literal)
	case OpInset:
		return insetOp(v, c.Literal)
	case OpRegexp, OpIRegexp:
		return m.regexpOp(c, v)
	}
	return false
}

func equalsLiteral(v event.Value, lit Literal) bool {
	switch {
	case lit.IsString:
		return valueToString(v) == lit.Str
	case lit.IsInt:
		return valueToFloat(v) == float64(lit.Int)
	case lit.IsFloat:
		return valueToFloat(v) == lit.Flt
	}
	return false
}

func compareNumeric(op Op, v event.Value, lit Literal) bool {
	var rhs float64
	switch {
	case lit.IsInt:
		rhs = float64(lit.Int)
	case lit.IsFloat:
		rhs = lit.Flt
	case lit.IsString:
		if ts, ok := coerceDate(lit.Str); ok {
			rhs = float64(ts)
		} else {
			return false
		}
	}
	lhs := valueToFloat(v)
	switch op {
	case OpLess:
		return lhs < rhs
	case OpLessEq:
		return lhs <= rhs
	case OpGreater:
		return lhs > rhs
	case OpGreaterEq:
		return lhs >= rhs
	}
	return false
}

func containsOp(v event.Value, lit Literal) bool {
	if v.Kind == event.KindList {
		for _, elem := range v.List {
			if equalsLiteral(elem, lit) {
				return true
			}
		}
		return false
	}
	if !lit.IsString {
		return false
	}
	return strings.Contains(strings.ToLower(valueToString(v)), strings.ToLower(lit.Str))
}

func insetOp(v event.Value, lit Literal) bool {
	if v.Kind != event.KindList || !lit.IsString {
		return false
	}
	rhsSet := strings.Split(lit.Str, ",")
	lhs := lo.Map(v.List, func(e event.Value, _ int) string { return valueToString(e) })
	return lo.Every(rhsSet, lhs)
}

// regexpOp looks up c's pattern, precompiled once at Compile time
// (spec.md §4.10: "right operand compiled once").
func (m *Matcher) regexpOp(c *CompareExpr, v event.Value) bool {
	re, ok := m.regexCache[c]
	if !ok {
		return false
	}
	return re.MatchString(valueToString(v))
}

func valueToString(v event.Value) string {
	switch v.Kind {
	case event.KindString:
		return v.Str
	case event.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case event.KindFloat:
		return strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case event.KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

func valueToFloat(v event.Value) float64 {
	switch v.Kind {
	case event.KindInt:
		return float64(v.Int)
	case event.KindFloat:
		return v.Flt
	case event.KindBool:
		if v.Bool {
			return 1
		}
		return 0
	}
	f, _ := strconv.ParseFloat(v.Str, 64)
	return f
}

// coerceDate parses a YYYY-MM-DD[ HH:MM:SS[.ffffff]] string into
// microseconds since the Unix epoch UTC (spec.md §4.10 date
// coercion).
func coerceDate(s string) (int64, bool) {
	layouts := []string{
		"2006-01-02 15:04:05.000000",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMicro(), true
		}
	}
	return 0, false
}

// lookupContextElements resolves path the same way lookup does, but
// when the resolved attribute is itself a list, returns its elements
// rather than the list as a single value -- the context operator
// expands path into elements to evaluate the child against each one
// (spec.md §4.10).
func (m *Matcher) lookupContextElements(ev *event.Event, path []string) ([]event.Value, bool) {
	values, ok := m.lookup(ev, path)
	if !ok {
		return nil, false
	}
	if len(values) == 1 && values[0].Kind == event.KindList {
		return values[0].List, true
	}
	return values, true
}

func (m *Matcher) evalContext(c *ContextExpr, ev *event.Event) bool {
	values, ok := m.lookupContextElements(ev, c.Path)
	if !ok {
		return false
	}
	for _, v := range values {
		synthetic := event.New(ev.Timestamp, ev.TimestampDesc, ev.DataType, ev.Parser)
		if v.Kind == event.KindMap {
			for k, fv := range v.Map {
				synthetic.Set(k, fv)
			}
		} else {
			synthetic.Set("value", v)
		}
		if m.eval(c.Child, synthetic) {
			return true
		}
	}
	return false
}

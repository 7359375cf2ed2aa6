package filter

import (
	"testing"

	"github.com/cdtdelta/plaso-core/internal/event"
)

func sampleEvent() *event.Event {
	ev := event.New(1000, "Last Written", "test:data", "testparser")
	ev.Set("size", event.Int(42))
	ev.Set("path", event.String("/var/log/auth.log"))
	ev.Set("tags", event.List([]event.Value{event.String("a"), event.String("b")}))
	ev.Set("nested", event.Map(map[string]event.Value{
		"host": event.String("web01"),
		"port": event.Int(443),
	}))
	return ev
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	m, err := Compile("", nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Matches(sampleEvent()) {
		t.Fatalf("expected empty filter to match")
	}
}

func TestSimpleComparisons(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{`size == 42`, true},
		{`size != 42`, false},
		{`size > 10`, true},
		{`size < 10`, false},
		{`path contains "auth"`, true},
		{`path contains "nope"`, false},
		{`tags contains 'a'`, true},
		{`tags contains 'z'`, false},
		{`path regexp '^/var/.*log$'`, true},
		{`path iregexp '^/VAR/.*LOG$'`, true},
	}
	for _, c := range cases {
		m, err := Compile(c.expr, nil)
		if err != nil {
			t.Fatalf("compile %q: %v", c.expr, err)
		}
		got := m.Matches(sampleEvent())
		if got != c.want {
			t.Errorf("expr %q: got %v want %v", c.expr, got, c.want)
		}
	}
}

func TestLogicalCombinators(t *testing.T) {
	m, err := Compile(`size == 42 and path contains "auth"`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Matches(sampleEvent()) {
		t.Fatalf("expected AND to match")
	}

	m2, err := Compile(`size == 1 or path contains "auth"`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m2.Matches(sampleEvent()) {
		t.Fatalf("expected OR to match")
	}

	m3, err := Compile(`not (size == 1)`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m3.Matches(sampleEvent()) {
		t.Fatalf("expected NOT to match")
	}
}

func TestDottedFieldPath(t *testing.T) {
	m, err := Compile(`nested.host == "web01"`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Matches(sampleEvent()) {
		t.Fatalf("expected dotted path lookup to match")
	}
}

func TestTimestampAliasAndDateCoercion(t *testing.T) {
	m, err := Compile(`date > '1970-01-01 00:00:00.000500'`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Matches(sampleEvent()) {
		t.Fatalf("expected event at ts=1000us to exceed 500us threshold")
	}

	m2, err := Compile(`date < '1970-01-01 00:00:00.000500'`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if m2.Matches(sampleEvent()) {
		t.Fatalf("expected event at ts=1000us to not be below 500us threshold")
	}

	m3, err := Compile(`date < '1970-01-01 00:00:00.002000'`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m3.Matches(sampleEvent()) {
		t.Fatalf("expected event at ts=1000us to be below 2000us threshold")
	}
}

func TestMalformedRegexIsCompileTimeError(t *testing.T) {
	if _, err := Compile(`path regexp '(unterminated'`, nil); err == nil {
		t.Fatalf("expected compile error for malformed regex")
	}
}

func TestHoistingNarrowsRange(t *testing.T) {
	m, err := Compile(`date > '1970-01-01 00:00:00.000150' and date < '1970-01-01 00:00:00.000850'`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b := m.Hoist()
	if b.Lower != 151 || b.Upper != 849 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestHoistingDefaultsOnDisjunction(t *testing.T) {
	m, err := Compile(`date > '1970-01-01 00:00:00.000150' or size == 1`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b := m.Hoist()
	want := DefaultBounds()
	if b != want {
		t.Fatalf("expected default bounds for disjunction, got %+v", b)
	}
}

func TestContextOperatorSharesElement(t *testing.T) {
	ev := event.New(1, "", "test:data", "p")
	ev.Set("dlls", event.List([]event.Value{
		event.Map(map[string]event.Value{"name": event.String("a.dll"), "size": event.Int(10)}),
		event.Map(map[string]event.Value{"name": event.String("b.dll"), "size": event.Int(99)}),
	}))

	// No single dll has both name "a.dll" and size 99 -- a naive
	// conjunction over the whole list would wrongly match since each
	// clause holds for a different element.
	naive, err := Compile(`dlls.name contains "a.dll" and dlls.size == 99`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !naive.Matches(ev) {
		t.Fatalf("sanity: naive conjunction should match across elements")
	}

	scoped, err := Compile(`@dlls(name contains "a.dll" and size == 99)`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if scoped.Matches(ev) {
		t.Fatalf("context operator must require both clauses on the same element")
	}

	scopedReal, err := Compile(`@dlls(name contains "b.dll" and size == 99)`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !scopedReal.Matches(ev) {
		t.Fatalf("expected context operator to match when both clauses hold on the same element")
	}
}

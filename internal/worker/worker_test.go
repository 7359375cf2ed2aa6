package worker

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/cdtdelta/plaso-core/internal/classify"
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	"github.com/cdtdelta/plaso-core/internal/registry"
)

type fakeHandle struct {
	*bytes.Reader
	name string
	spec *pathspec.PathSpec
	tag  classify.Tag
}

func (f *fakeHandle) DisplayName() string { return f.name }
func (f *fakeHandle) Name() string        { return f.name }
func (f *fakeHandle) Stat() (Stat, error) { return Stat{Inode: "7"}, nil }
func (f *fakeHandle) PathSpec() *pathspec.PathSpec { return f.spec }
func (f *fakeHandle) Classify() (classify.Tag, ReaderAtSize) { return f.tag, nil }
func (f *fakeHandle) Close() error { return nil }

func newFakeHandle(name string) *fakeHandle {
	return &fakeHandle{
		Reader: bytes.NewReader([]byte("payload")),
		name:   name,
		spec:   pathspec.New(pathspec.OS, name),
	}
}

type fakeOpener struct {
	handles map[string]*fakeHandle
}

func (o *fakeOpener) Open(spec *pathspec.PathSpec) (Handle, error) {
	h, ok := o.handles[spec.Location]
	if !ok {
		return nil, errors.New("not found")
	}
	return h, nil
}

type countingParser struct {
	name      string
	n         int
	returnErr error
}

func (p *countingParser) Name() string { return p.name }
func (p *countingParser) Parse(h Handle, emit func(*event.Event)) error {
	for i := 0; i < p.n; i++ {
		ev := event.New(int64(i), "parse_desc", "test:data", p.name)
		emit(ev)
	}
	return p.returnErr
}

func TestParseFileEmitsFromAllApplicableParsers(t *testing.T) {
	reg := registry.New[Parser](func(Parser) string { return "all" })
	p1 := &countingParser{name: "p1", n: 2}
	p2 := &countingParser{name: "p2", n: 1}
	reg.Register("p1", p1)
	reg.Register("p2", p2)

	var mu sync.Mutex
	var got []*event.Event
	w := NewWorker(nil, reg, nil, Config{}, func(ev *event.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})

	h := newFakeHandle("file.txt")
	w.ParseFile(h)

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for _, ev := range got {
		if ev.Attributes["display_name"].Str != "file.txt" {
			t.Fatalf("expected display_name enrichment, got %+v", ev.Attributes["display_name"])
		}
		if ev.Attributes["inode"].Str != "7" {
			t.Fatalf("expected inode enrichment, got %+v", ev.Attributes["inode"])
		}
	}
}

func TestParseFileUnableToParseIsSwallowed(t *testing.T) {
	reg := registry.New[Parser](func(Parser) string { return "all" })
	reg.Register("bad", &countingParser{name: "bad", n: 0, returnErr: ErrUnableToParse})

	var got []*event.Event
	w := NewWorker(nil, reg, nil, Config{}, func(ev *event.Event) { got = append(got, ev) })
	w.ParseFile(newFakeHandle("x"))

	if len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
}

type stubMatcher struct{ allow func(*event.Event) bool }

func (m stubMatcher) Matches(ev *event.Event) bool { return m.allow(ev) }

func TestParseFileFilterDiscardsNonMatching(t *testing.T) {
	reg := registry.New[Parser](func(Parser) string { return "all" })
	reg.Register("p", &countingParser{name: "p", n: 3})

	var got []*event.Event
	filter := stubMatcher{allow: func(ev *event.Event) bool { return ev.Timestamp%2 == 0 }}
	w := NewWorker(nil, reg, filter, Config{}, func(ev *event.Event) { got = append(got, ev) })
	w.ParseFile(newFakeHandle("x"))

	if len(got) != 2 {
		t.Fatalf("expected 2 events surviving filter, got %d", len(got))
	}
}

func TestQueuePopEndOfInput(t *testing.T) {
	q := NewQueue(4)
	q.Push([]byte("a"))
	q.CloseInput()

	if item, status := q.Pop(); status != PopOK || string(item) != "a" {
		t.Fatalf("expected first item ok, got %v %v", item, status)
	}
	if _, status := q.Pop(); status != PopEndOfInput {
		t.Fatalf("expected end of input, got %v", status)
	}
}

func TestQueueCancelUnblocksPushAndPop(t *testing.T) {
	q := NewQueue(1)
	q.Cancel()

	if ok := q.Push([]byte("blocked")); ok {
		t.Fatalf("expected push to fail after cancel")
	}
	if _, status := q.Pop(); status != PopCanceled {
		t.Fatalf("expected canceled, got %v", status)
	}
}

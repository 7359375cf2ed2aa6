package psort

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/render"
	"github.com/cdtdelta/plaso-core/internal/store"
)

func writeFixtureStore(t *testing.T, path string, events []*event.Event) {
	t.Helper()
	w, err := store.CreateWriter(path, store.WriterConfig{})
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	for _, ev := range events {
		payload, err := event.Default.Serialize(ev)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if err := w.Add(ev.Timestamp, ev.DataType, ev.Parser, payload); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := w.Close(nil); err != nil {
		t.Fatalf("close writer: %v", err)
	}
}

func sampleEvents() []*event.Event {
	a := event.New(100, "Last Written", "fs:stat", "filestat")
	a.Set("filename", event.String("/etc/passwd"))
	a.Set("body", event.String("passwd modified"))

	b := event.New(200, "Last Access", "fs:stat", "filestat")
	b.Set("filename", event.String("/etc/shadow"))
	b.Set("body", event.String("shadow accessed"))

	return []*event.Event{a, b}
}

func TestRunMergesAndRenders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.plaso")
	writeFixtureStore(t, path, sampleEvents())

	var buf bytes.Buffer
	sum, err := Run(Config{
		StorePaths:   []string{path},
		Formatter:    &render.DefaultFormatter{},
		RendererName: "jsonl",
	}, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.EventsRead != 2 || sum.EventsMatched != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rendered lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "/etc/passwd") || !strings.Contains(lines[1], "/etc/shadow") {
		t.Errorf("events out of order or missing filenames: %v", lines)
	}
}

func TestRunAppliesFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.plaso")
	writeFixtureStore(t, path, sampleEvents())

	var buf bytes.Buffer
	sum, err := Run(Config{
		StorePaths:   []string{path},
		FilterExpr:   `filename contains "shadow"`,
		Formatter:    &render.DefaultFormatter{},
		RendererName: "jsonl",
	}, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.EventsRead != 2 || sum.EventsMatched != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if !strings.Contains(buf.String(), "/etc/shadow") {
		t.Errorf("expected shadow event in output, got %q", buf.String())
	}
}

func TestRunAcrossMultipleStores(t *testing.T) {
	path1 := filepath.Join(t.TempDir(), "a.plaso")
	path2 := filepath.Join(t.TempDir(), "b.plaso")
	writeFixtureStore(t, path1, sampleEvents()[:1])
	writeFixtureStore(t, path2, sampleEvents()[1:])

	var buf bytes.Buffer
	sum, err := Run(Config{
		StorePaths:   []string{path1, path2},
		Formatter:    &render.DefaultFormatter{},
		RendererName: "jsonl",
	}, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.EventsRead != 2 {
		t.Fatalf("expected events from both stores, got %+v", sum)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines across stores, got %d", len(lines))
	}
}

func TestRunUnknownRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.plaso")
	writeFixtureStore(t, path, sampleEvents())

	var buf bytes.Buffer
	_, err := Run(Config{
		StorePaths:   []string{path},
		RendererName: "does-not-exist",
	}, &buf)
	if err == nil {
		t.Fatal("expected error for unknown renderer")
	}
}

func TestRunNoStores(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(Config{RendererName: "jsonl"}, &buf)
	if err == nil {
		t.Fatal("expected error for empty store list")
	}
}

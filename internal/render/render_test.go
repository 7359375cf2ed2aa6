package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cdtdelta/plaso-core/internal/event"
)

func sampleEvent() *event.Event {
	ev := event.New(1_500_000_000_000_000, "Last Written", "fs:stat", "filestat")
	ev.Set("filename", event.String("/etc/passwd"))
	ev.Set("hostname", event.String("host1"))
	ev.Set("body", event.String("file modified"))
	return ev
}

func TestJSONLRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := Lookup("jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(&buf); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteEvent(sampleEvent()); err != nil {
		t.Fatal(err)
	}
	if err := r.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"data_type":"fs:stat"`) {
		t.Errorf("missing data_type field: %s", out)
	}
	if !strings.Contains(out, `"filename":"/etc/passwd"`) {
		t.Errorf("missing filename attribute: %s", out)
	}
}

func TestL2TCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := Lookup("l2tcsv")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(&buf); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteEvent(sampleEvent()); err != nil {
		t.Fatal(err)
	}
	if err := r.End(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "datetime,timezone,MACB,source") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "M...") {
		t.Errorf("expected MACB=M... for Last Written, got %s", lines[1])
	}
}

func TestTLNRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := Lookup("tln")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(&buf); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteEvent(sampleEvent()); err != nil {
		t.Fatal(err)
	}
	if err := r.End(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != tlnHeader {
		t.Errorf("unexpected header: %s", lines[0])
	}
	fields := strings.Split(lines[1], "|")
	if len(fields) != 7 {
		t.Errorf("expected 7 pipe-delimited fields, got %d: %v", len(fields), fields)
	}
}

func TestLookupUnknownRenderer(t *testing.T) {
	if _, err := Lookup("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown renderer")
	}
}

func TestNamesIncludesBuiltins(t *testing.T) {
	names := Names()
	want := map[string]bool{"jsonl": false, "l2tcsv": false, "dynamic": false, "tln": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("renderer %q not registered", n)
		}
	}
}

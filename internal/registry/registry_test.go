package registry

import "testing"

type stubParser struct {
	name   string
	bucket string
}

func TestRegisterDuplicate(t *testing.T) {
	r := New(func(p stubParser) string { return p.bucket })
	if err := r.Register("winreg", stubParser{name: "winreg", bucket: "ZIP"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register("winreg", stubParser{name: "winreg", bucket: "ZIP"})
	if _, ok := err.(*ErrDuplicate); !ok {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestByClassificationIncludesAllBucket(t *testing.T) {
	r := New(func(p stubParser) string { return p.bucket })
	r.Register("winreg", stubParser{bucket: "ZIP"})
	r.Register("filestat", stubParser{bucket: "all"})
	r.Register("syslog", stubParser{bucket: "none"})

	got := r.ByClassification("ZIP")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries (ZIP + all), got %d", len(got))
	}
}

func TestFilterIncludeExclude(t *testing.T) {
	f := ParseFilterSpec("*reg*,-winreg", nil)
	if f.Matches("winreg") {
		t.Fatalf("winreg should be excluded")
	}
	if !f.Matches("olereg") {
		t.Fatalf("olereg should match *reg*")
	}
	if f.Matches("filestat") {
		t.Fatalf("filestat should not match *reg*")
	}
}

func TestFilterPresetExpansion(t *testing.T) {
	presets := map[string][]string{"fast": {"filestat", "syslog"}}
	f := ParseFilterSpec("fast", presets)
	if !f.Matches("filestat") || !f.Matches("syslog") {
		t.Fatalf("preset bundle should expand to its member names")
	}
	if f.Matches("winreg") {
		t.Fatalf("winreg not part of preset, should not match")
	}
}

func TestEmptyIncludeMatchesEverything(t *testing.T) {
	f := ParseFilterSpec("-winreg", nil)
	if !f.Matches("filestat") {
		t.Fatalf("empty include should default to matching everything not excluded")
	}
	if f.Matches("winreg") {
		t.Fatalf("winreg explicitly excluded")
	}
}

package event

import "testing"

func TestEventDefaults(t *testing.T) {
	e := New(0, "", "", "")

	if e.Timestamp != 0 {
		t.Errorf("expected Timestamp to be 0, got %d", e.Timestamp)
	}
	if len(e.Attributes) != 0 {
		t.Errorf("expected empty attribute bag, got %d entries", len(e.Attributes))
	}
}

func TestEqualityKeySameForMatchingEvents(t *testing.T) {
	a := New(100, "Last Written", "fs:stat", "winreg")
	a.Set("filename", String("/a"))
	a.Set("inode", String("10"))
	a.Set("value", Int(42))

	b := New(100, "Last Written", "fs:stat", "winreg")
	b.Set("filename", String("/b")) // reserved, differs
	b.Set("inode", String("11"))    // reserved, differs
	b.Set("value", Int(42))

	if string(a.EqualityKey()) != string(b.EqualityKey()) {
		t.Fatalf("expected equal keys for events differing only in reserved attrs")
	}
}

func TestEqualityKeyDiffersOnNonReserved(t *testing.T) {
	a := New(100, "Last Written", "fs:stat", "winreg")
	a.Set("value", Int(42))
	b := New(100, "Last Written", "fs:stat", "winreg")
	b.Set("value", Int(43))

	if string(a.EqualityKey()) == string(b.EqualityKey()) {
		t.Fatalf("expected differing keys for differing non-reserved attrs")
	}
}

func TestFilestatMissingInodeAlwaysDistinct(t *testing.T) {
	a := New(100, "mtime", "fs:stat", FilestatParser)
	b := New(100, "mtime", "fs:stat", FilestatParser)

	if string(a.EqualityKey()) == string(b.EqualityKey()) {
		t.Fatalf("two filestat events with missing inode must never compare equal")
	}
	// Calling twice on the same event must be stable (salt memoized).
	if string(a.EqualityKey()) != string(a.EqualityKey()) {
		t.Fatalf("equality key must be stable across calls on the same event")
	}
}

func TestFilestatWithInodeCanMatch(t *testing.T) {
	a := New(100, "mtime", "fs:stat", FilestatParser)
	a.Set("inode", String("10"))
	b := New(100, "mtime", "fs:stat", FilestatParser)
	b.Set("inode", String("20"))

	if string(a.EqualityKey()) != string(b.EqualityKey()) {
		t.Fatalf("filestat events with present inode should match on non-reserved attrs alone")
	}
}

func TestIsReservedCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Filename", "INODE", "Store_Number", "tag"} {
		if !IsReserved(name) {
			t.Errorf("expected %q to be reserved", name)
		}
	}
	if IsReserved("desc") {
		t.Errorf("desc should not be reserved")
	}
}

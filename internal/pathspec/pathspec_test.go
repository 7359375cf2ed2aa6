package pathspec

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	root := New(OS, "/evidence/a.zip")
	child := root.Child(ZIP, "inner.txt")
	child.Inode = "42"

	data, err := Marshal(child)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(child) {
		t.Fatalf("round trip mismatch: got %s want %s", got, child)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	if _, err := Unmarshal([]byte("not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if _, err := Unmarshal([]byte("[]")); err != ErrEmptyChain {
		t.Fatalf("expected ErrEmptyChain for empty chain, got %v", err)
	}
}

func TestStringRendersOutermostFirst(t *testing.T) {
	root := New(OS, "/a.zip")
	child := root.Child(ZIP, "inner.txt")
	want := "OS:/a.zip -> ZIP:inner.txt"
	if got := child.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

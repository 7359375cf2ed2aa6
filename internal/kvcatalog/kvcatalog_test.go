package kvcatalog

import (
	"path/filepath"
	"testing"

	"github.com/cdtdelta/plaso-core/internal/store"
)

func TestPutAndLookupBySegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	ix, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	refs := []store.TagRef{
		{Segment: 1, Index: 3, Offset: 0, UUID: ""},
		{Segment: 1, Index: 3, Offset: 128, UUID: ""},
		{Segment: 1, Index: 4, Offset: 0, UUID: ""},
	}
	for _, r := range refs {
		if err := ix.PutTag(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ix.TagsForSegment(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tags for (1,3), got %d: %+v", len(got), got)
	}

	got, err = ix.TagsForSegment(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 tag for (1,4), got %d", len(got))
	}

	got, err = ix.TagsForSegment(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tags for untagged segment, got %d", len(got))
	}
}

func TestPutAndLookupByUUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	ix, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	ref := store.TagRef{Segment: 2, Index: 5, Offset: 64, UUID: "f47ac10b-58cc-4372-a567-0e02b2c3d479"}
	if err := ix.PutTag(ref); err != nil {
		t.Fatal(err)
	}

	got, err := ix.TagsForUUID(ref.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Segment != 2 || got[0].Index != 5 {
		t.Fatalf("unexpected uuid lookup result: %+v", got)
	}

	got, err = ix.TagsForUUID("00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tags for unknown uuid, got %d", len(got))
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	ix, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.PutTag(store.TagRef{Segment: 1, Index: 1, Offset: 0}); err != nil {
		t.Fatal(err)
	}
	if err := ix.Close(); err != nil {
		t.Fatal(err)
	}

	ix2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ix2.Close()
	got, err := ix2.TagsForSegment(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected tag to survive reopen, got %d", len(got))
	}
}

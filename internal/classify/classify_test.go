package classify

import (
	"bytes"
	"testing"
)

func TestClassifyZIP(t *testing.T) {
	data := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 300)...)
	tag, err := Classify(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != ZIP {
		t.Fatalf("expected ZIP, got %q", tag)
	}
}

func TestClassifyGZIP(t *testing.T) {
	data := []byte{0x1F, 0x8B, 0x08, 0x00}
	tag, err := Classify(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != GZ {
		t.Fatalf("expected GZ, got %q", tag)
	}
}

func TestClassifyTAR(t *testing.T) {
	buf := make([]byte, 300)
	copy(buf[257:], []byte("ustar"))
	tag, err := Classify(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != TAR {
		t.Fatalf("expected TAR, got %q", tag)
	}
}

func TestClassifyNone(t *testing.T) {
	tag, err := Classify(bytes.NewReader([]byte("hello world, nothing to see here")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != None {
		t.Fatalf("expected None, got %q", tag)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	data := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 5000)...)
	a, _ := Classify(bytes.NewReader(data))
	b, _ := Classify(bytes.NewReader(data))
	if a != b {
		t.Fatalf("classification should be deterministic: %q vs %q", a, b)
	}
}

func TestClassifyEmptyFile(t *testing.T) {
	tag, err := Classify(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("empty file should not error: %v", err)
	}
	if tag != None {
		t.Fatalf("expected None for empty file, got %q", tag)
	}
}

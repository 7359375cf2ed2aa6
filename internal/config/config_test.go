package config

import "testing"

func TestParsePsortFlags(t *testing.T) {
	cfg := ParsePsortFlags([]string{
		"-store", "a.plaso",
		"-store", "b.plaso",
		"-filter", `data_type == "fs:stat"`,
		"-output-format", "l2tcsv",
	})
	if len(cfg.Stores) != 2 || cfg.Stores[0] != "a.plaso" || cfg.Stores[1] != "b.plaso" {
		t.Fatalf("unexpected stores: %v", cfg.Stores)
	}
	if cfg.Filter != `data_type == "fs:stat"` {
		t.Errorf("unexpected filter: %q", cfg.Filter)
	}
	if cfg.Renderer != "l2tcsv" {
		t.Errorf("unexpected renderer: %q", cfg.Renderer)
	}
}

func TestParseExtractFlags(t *testing.T) {
	cfg := ParseExtractFlags([]string{
		"-source", "/evidence/disk.img",
		"-store", "out.plaso",
		"-workers", "4",
	})
	if len(cfg.Sources) != 1 || cfg.Sources[0] != "/evidence/disk.img" {
		t.Fatalf("unexpected sources: %v", cfg.Sources)
	}
	if cfg.OutStore != "out.plaso" {
		t.Errorf("unexpected out store: %q", cfg.OutStore)
	}
	if cfg.Workers != 4 {
		t.Errorf("unexpected workers: %d", cfg.Workers)
	}
}

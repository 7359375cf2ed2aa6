// Command extract walks one or more filesystem sources, runs every
// registered parser over the files it discovers, and writes the
// resulting events into a new store archive (spec.md §4.5/§4.6/§4.7,
// cmd/extract wiring for components C5-C7). Nested container members
// are not expanded: the pipeline runs with worker.Config.OpenFiles
// unset.
//
// No individual parsers ship in this module (spec.md §1 Non-goals);
// hosts embedding this package register their own through
// internal/registry before calling worker.NewPipeline. This binary
// runs with an empty parser registry, which is a legitimate (if
// uneventful) extraction: the pipeline, queue fabric, and store writer
// are exercised end to end even with zero parsers registered.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/cdtdelta/plaso-core/internal/catalog"
	"github.com/cdtdelta/plaso-core/internal/config"
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	"github.com/cdtdelta/plaso-core/internal/registry"
	"github.com/cdtdelta/plaso-core/internal/store"
	"github.com/cdtdelta/plaso-core/internal/worker"
	"github.com/dustin/go-humanize"
)

func main() {
	cfg := config.ParseExtractFlags(os.Args[1:])
	if cfg.Verbose {
		log.SetFlags(log.Ltime)
	}

	w, err := store.CreateWriter(cfg.OutStore, store.WriterConfig{})
	if err != nil {
		log.Fatalf("extract: %v", err)
	}

	parsers := registry.New[worker.Parser](func(p worker.Parser) string { return "all" })
	pipeline := worker.NewPipeline(osOpener{}, parsers, nil, worker.PipelineConfig{
		NumWorkers: cfg.Workers,
	})

	var written int
	writeEvent := func(ev *event.Event) {
		if ev.Timestamp == 0 {
			log.Printf("debug: extract: dropping event with unset timestamp (parser %s)", ev.Parser)
			return
		}
		payload, err := event.Default.Serialize(ev)
		if err != nil {
			log.Printf("warn: extract: dropping unserializable event: %v", err)
			return
		}
		if err := w.Add(ev.Timestamp, ev.DataType, ev.Parser, payload); err != nil {
			log.Printf("error: extract: write failed: %v", err)
			return
		}
		written++
	}

	collect := func(push func(*pathspec.PathSpec)) {
		for _, src := range cfg.Sources {
			walkSource(src, push)
		}
	}

	if err := pipeline.Run(context.Background(), collect, writeEvent); err != nil {
		log.Fatalf("extract: pipeline: %v", err)
	}

	if err := w.Close(nil); err != nil {
		log.Fatalf("extract: closing store: %v", err)
	}

	log.Printf("debug: extract: wrote %s events to %s", humanize.Comma(int64(written)), cfg.OutStore)

	indexStoreCatalog(cfg.OutStore)
}

// walkSource pushes one top-level OS path-specification per regular
// file found under src (src itself, if it is a file).
func walkSource(src string, push func(*pathspec.PathSpec)) {
	info, err := os.Stat(src)
	if err != nil {
		log.Printf("warn: extract: %v", err)
		return
	}
	if !info.IsDir() {
		push(pathspec.New(pathspec.OS, src))
		return
	}
	filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			log.Printf("warn: extract: walking %s: %v", path, err)
			return nil
		}
		if fi.IsDir() {
			return nil
		}
		push(pathspec.New(pathspec.OS, path))
		return nil
	})
}

// indexStoreCatalog records every segment of the freshly written store
// into a sibling SQLite catalog database, so `ins list`-style tooling
// can inspect it without reopening the ZIP (SPEC_FULL.md §3).
func indexStoreCatalog(storePath string) {
	r, err := store.Open(storePath)
	if err != nil {
		log.Printf("debug: extract: skipping catalog index: %v", err)
		return
	}
	defer r.Close()

	cat, err := catalog.Open("sqlite", storePath+".catalog.db")
	if err != nil {
		log.Printf("debug: extract: skipping catalog index: %v", err)
		return
	}
	defer cat.Close()

	for _, seg := range r.Segments() {
		meta, err := r.ReadMeta(seg)
		if err != nil {
			continue
		}
		if err := cat.IndexSegment(storePath, meta); err != nil {
			log.Printf("debug: extract: catalog index segment %06d: %v", seg, err)
		}
	}
}

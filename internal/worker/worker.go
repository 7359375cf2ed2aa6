package worker

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/cdtdelta/plaso-core/internal/classify"
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/expand"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	"github.com/cdtdelta/plaso-core/internal/registry"
)

// Matcher is the subset of internal/filter's compiled expression a
// worker needs: a single predicate over an event. Kept as a narrow
// interface here so worker does not depend on the filter package.
type Matcher interface {
	Matches(*event.Event) bool
}

// ErrUnableToParse mirrors the original errors.UnableToParseFile: a
// parser recognized it did not own this file format. It is not a
// failure worth more than a debug line (spec.md §4.5/§7).
var ErrUnableToParse = fmt.Errorf("worker: unable to parse file")

// Config controls a Worker's behaviour, mirroring the original
// PlasoWorker constructor's config surface.
type Config struct {
	// OpenFiles enables recursive extraction of nested containers
	// (ParseAllFiles), the Go analogue of config.open_files.
	OpenFiles bool
	// Hostname is attached to every emitted event when non-empty.
	Hostname string
	// SingleThreadDebug requests a post-mortem-style hook on
	// unexpected parser panics/errors, mirroring
	// "single_thread and debug -> pdb.post_mortem()". PostMortem is
	// called instead of invoking an actual debugger.
	SingleThreadDebug bool
	PostMortem        func(parserName string, file string, err error)
}

// Worker pulls path-specifications off a queue, opens them, classifies
// them, and drives the matching parsers (spec.md §4.5, component C5).
type Worker struct {
	opener   Opener
	parsers  *registry.Registry[Parser]
	filter   Matcher
	cfg      Config
	emit     func(*event.Event)
}

// NewWorker builds a Worker. emit receives every event that survives
// an optional filter and is the worker's only side channel to the
// writer stage; it must be safe to call concurrently with other
// workers' emit calls (or otherwise serialized by the caller).
func NewWorker(opener Opener, parsers *registry.Registry[Parser], filter Matcher, cfg Config, emit func(*event.Event)) *Worker {
	return &Worker{opener: opener, parsers: parsers, filter: filter, cfg: cfg, emit: emit}
}

// Run drains queue until end-of-input or cancellation, parsing each
// path-specification it pops.
func (w *Worker) Run(q *Queue) {
	log.Printf("debug: worker: starting to monitor process queue")
	for {
		item, status := q.Pop()
		switch status {
		case PopEndOfInput, PopCanceled:
			log.Printf("debug: worker: processing is completed")
			return
		}

		spec, err := pathspec.Unmarshal(item)
		if err != nil {
			log.Printf("debug: worker: malformed path-spec on queue: %v", err)
			continue
		}

		h, err := w.opener.Open(spec)
		if err != nil {
			log.Printf("warn: worker: unable to open %s: %v", spec, err)
			continue
		}
		w.process(h)
	}
}

func (w *Worker) process(h Handle) {
	defer h.Close()
	w.ParseFile(h)
	if w.cfg.OpenFiles {
		w.ParseAllFiles(h)
	}
}

// ParseFile classifies h and runs every registered parser applicable
// to its classification against it, emitting surviving events.
// Mirrors PlasoWorker.ParseFile's per-parser error-severity policy:
// a recognized "not my format" is a debug line, an unexpected error is
// a warning and the file moves on (spec.md §4.5/§7).
func (w *Worker) ParseFile(h Handle) {
	log.Printf("debug: worker: parsing %s", h.DisplayName())

	tag, _ := h.Classify()
	bucket := classificationBucket(tag)
	candidates := w.parsers.ByClassification(bucket)

	stat, _ := h.Stat()

	for _, p := range candidates {
		log.Printf("debug: worker: checking %s against %s", h.Name(), p.Name())
		if _, err := h.Seek(0, io.SeekStart); err != nil {
			log.Printf("debug: worker: unable to seek %s: %v", h.Name(), err)
			continue
		}
		w.runParser(p, h, stat)
	}

	log.Printf("debug: worker: parsing done: %s", h.DisplayName())
}

func (w *Worker) runParser(p Parser, h Handle, stat Stat) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Printf("warn: worker: unexpected error in %s parsing %s: %v", p.Name(), h.Name(), err)
			if w.cfg.SingleThreadDebug && w.cfg.PostMortem != nil {
				w.cfg.PostMortem(p.Name(), h.Name(), err)
			}
		}
	}()

	offset := int64(0)
	err := p.Parse(h, func(ev *event.Event) {
		if ev == nil {
			return
		}
		w.enrich(ev, p, h, stat, offset)
		offset++
		if w.filter != nil && !w.filter.Matches(ev) {
			return
		}
		w.emit(ev)
	})
	if err == nil {
		return
	}
	if err == ErrUnableToParse {
		log.Printf("debug: worker: not a %s file (%s): %v", p.Name(), h.Name(), err)
		return
	}
	log.Printf("warn: worker: unexpected error during %s parsing %s: %v", p.Name(), h.Name(), err)
	if w.cfg.SingleThreadDebug && w.cfg.PostMortem != nil {
		w.cfg.PostMortem(p.Name(), h.Name(), err)
	}
}

func (w *Worker) enrich(ev *event.Event, p Parser, h Handle, stat Stat, offset int64) {
	if ev.Parser == "" {
		ev.Parser = p.Name()
	}
	if _, ok := ev.Attributes["offset"]; !ok {
		ev.Set("offset", event.Int(offset))
	}
	ev.Set("display_name", event.String(h.DisplayName()))
	ev.Set("filename", event.String(h.Name()))
	if data, err := pathspec.Marshal(h.PathSpec()); err == nil {
		ev.Set("pathspec", event.String(string(data)))
	}
	if w.cfg.Hostname != "" {
		ev.Set("hostname", event.String(w.cfg.Hostname))
	}
	if stat.Inode != "" {
		ev.Set("inode", event.String(stat.Inode))
	}
}

// ParseAllFiles recurses into every nested path-specification
// extractable from h (spec.md §4.4's expander, driven at the worker
// level), parsing each in turn. A failure to expand h is logged at
// debug level and treated as "no further expansion", not an abort
// (mirrors SmartOpenFiles' IOError handling).
func (w *Worker) ParseAllFiles(h Handle) {
	tag, ra := h.Classify()
	if tag == classify.None {
		return
	}

	var seq io.Reader = h
	buf, err := io.ReadAll(h)
	if err == nil {
		seq = bytes.NewReader(buf)
	}
	if _, err := h.Seek(0, io.SeekStart); err != nil {
		log.Printf("debug: worker: unable to open file %s, not sure if we can extract further files from it: %v", h.DisplayName(), err)
		return
	}

	children := expand.Expand(h.PathSpec(), h.Name(), tag, seq, ra)
	for _, childSpec := range children {
		childHandle, err := w.opener.Open(childSpec)
		if err != nil {
			log.Printf("debug: worker: unable to open file: %s, not sure if we can extract further files from it: %v", childSpec, err)
			continue
		}
		w.ParseFile(childHandle)
		w.ParseAllFiles(childHandle)
		childHandle.Close()
	}
}

func classificationBucket(tag classify.Tag) string {
	if tag == classify.None {
		return "all"
	}
	return string(tag)
}

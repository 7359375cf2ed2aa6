package main

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/cdtdelta/plaso-core/internal/classify"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	"github.com/cdtdelta/plaso-core/internal/worker"
)

// osOpener resolves a path-specification chain against the local
// filesystem, opening nested ZIP/GZIP/TAR members directly. It
// intentionally does not implement TSK image mounting (spec.md §1
// Non-goals: no VFS layer); every top-level root is an ordinary OS
// path.
type osOpener struct{}

func (o osOpener) Open(spec *pathspec.PathSpec) (worker.Handle, error) {
	switch spec.Type {
	case pathspec.OS:
		f, err := os.Open(spec.Location)
		if err != nil {
			return nil, fmt.Errorf("extract: open %s: %w", spec.Location, err)
		}
		return &osHandle{f: f, spec: spec, name: spec.Location}, nil
	case pathspec.ZIP, pathspec.GZIP, pathspec.TAR:
		return o.openMember(spec)
	default:
		return nil, fmt.Errorf("extract: unsupported path-spec type %q", spec.Type)
	}
}

// openMember materializes a single nested-container member fully into
// memory and returns it as a bufferedHandle. This mirrors
// internal/expand's own member enumeration rather than depending on
// it, since expand's job is enumerating children, not re-reading one.
func (o osOpener) openMember(spec *pathspec.PathSpec) (worker.Handle, error) {
	parent, err := o.Open(spec.Parent)
	if err != nil {
		return nil, err
	}
	defer parent.Close()

	raw, err := io.ReadAll(parent)
	if err != nil {
		return nil, fmt.Errorf("extract: read %s: %w", spec.Parent, err)
	}

	var data []byte
	switch spec.Type {
	case pathspec.ZIP:
		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return nil, fmt.Errorf("extract: zip %s: %w", spec.Parent, err)
		}
		f, err := zr.Open(spec.Location)
		if err != nil {
			return nil, fmt.Errorf("extract: zip member %s: %w", spec.Location, err)
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return nil, fmt.Errorf("extract: read zip member %s: %w", spec.Location, err)
		}
	case pathspec.GZIP:
		gr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("extract: gzip %s: %w", spec.Parent, err)
		}
		defer gr.Close()
		if data, err = io.ReadAll(gr); err != nil {
			return nil, fmt.Errorf("extract: inflate %s: %w", spec.Parent, err)
		}
	case pathspec.TAR:
		tr := tar.NewReader(bytes.NewReader(raw))
		found := false
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("extract: tar %s: %w", spec.Parent, err)
			}
			if hdr.Name != spec.Location {
				continue
			}
			if data, err = io.ReadAll(tr); err != nil {
				return nil, fmt.Errorf("extract: read tar member %s: %w", spec.Location, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("extract: tar member %s not found", spec.Location)
		}
	}
	return &bufferedHandle{data: data, spec: spec, name: spec.Location}, nil
}

// osHandle wraps an *os.File as a worker.Handle.
type osHandle struct {
	f    *os.File
	spec *pathspec.PathSpec
	name string
}

func (h *osHandle) Read(p []byte) (int, error)                { return h.f.Read(p) }
func (h *osHandle) Seek(off int64, whence int) (int64, error) { return h.f.Seek(off, whence) }
func (h *osHandle) Close() error                              { return h.f.Close() }
func (h *osHandle) DisplayName() string                       { return h.spec.String() }
func (h *osHandle) Name() string                              { return h.name }
func (h *osHandle) PathSpec() *pathspec.PathSpec              { return h.spec }

func (h *osHandle) Stat() (worker.Stat, error) {
	info, err := h.f.Stat()
	if err != nil {
		return worker.Stat{}, err
	}
	if sys, ok := info.Sys().(interface{ Ino() uint64 }); ok {
		return worker.Stat{Inode: fmt.Sprintf("%d", sys.Ino())}, nil
	}
	return worker.Stat{}, nil
}

func (h *osHandle) Classify() (classify.Tag, worker.ReaderAtSize) {
	if _, err := h.f.Seek(0, io.SeekStart); err != nil {
		return classify.None, nil
	}
	tag, err := classify.Classify(h.f)
	h.f.Seek(0, io.SeekStart)
	if err != nil || tag == classify.None {
		return classify.None, nil
	}
	info, err := h.f.Stat()
	if err != nil {
		return tag, nil
	}
	return tag, io.NewSectionReader(h.f, 0, info.Size())
}

// bufferedHandle is a container member materialized fully into memory
// (archive/zip and compress/gzip member readers are not independently
// seekable), used for nested-container path-specifications.
type bufferedHandle struct {
	data []byte
	pos  int64
	spec *pathspec.PathSpec
	name string
}

func (h *bufferedHandle) Read(p []byte) (int, error) {
	if h.pos >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[h.pos:])
	h.pos += int64(n)
	return n, nil
}

func (h *bufferedHandle) Seek(off int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = h.pos
	case io.SeekEnd:
		base = int64(len(h.data))
	}
	h.pos = base + off
	return h.pos, nil
}

func (h *bufferedHandle) Close() error                 { return nil }
func (h *bufferedHandle) DisplayName() string          { return h.spec.String() }
func (h *bufferedHandle) Name() string                 { return h.name }
func (h *bufferedHandle) PathSpec() *pathspec.PathSpec { return h.spec }
func (h *bufferedHandle) Stat() (worker.Stat, error)   { return worker.Stat{}, nil }

func (h *bufferedHandle) Classify() (classify.Tag, worker.ReaderAtSize) {
	h.Seek(0, io.SeekStart)
	tag, err := classify.Classify(bytes.NewReader(h.data))
	h.Seek(0, io.SeekStart)
	if err != nil || tag == classify.None {
		return classify.None, nil
	}
	return tag, bytes.NewReader(h.data)
}

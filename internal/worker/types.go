package worker

import (
	"io"

	"github.com/cdtdelta/plaso-core/internal/classify"
	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
)

// Stat is the minimal subset of filesystem metadata a parser may need
// from the underlying handle (spec.md §4.5: "inode, when available,
// enriches the event").
type Stat struct {
	Inode string
}

// ReaderAtSize is the random-access view required to expand ZIP
// members; a Handle that cannot provide one returns nil.
type ReaderAtSize interface {
	io.ReaderAt
	Size() int64
}

// Handle is a file-like object as seen by a parser: seekable and
// readable, with the display metadata the worker needs to enrich
// emitted events. It intentionally mirrors the original PFile
// contract (seek/read/Stat/display_name/name) rather than bare
// io.ReadSeeker, since parsers need the human-readable name
// independent of position.
type Handle interface {
	io.ReadSeeker
	// DisplayName is the full, human-readable path including any
	// container chain ("archive.zip/inner.txt").
	DisplayName() string
	// Name is the innermost path component.
	Name() string
	Stat() (Stat, error)
	// PathSpec is the chain that produced this handle.
	PathSpec() *pathspec.PathSpec
	// Classify returns the container tag (classify.None for a leaf
	// file) and a random-access view when one is available.
	Classify() (classify.Tag, ReaderAtSize)
	io.Closer
}

// Opener resolves a path-specification chain into an open Handle,
// following nested archives/containers transparently.
type Opener interface {
	Open(spec *pathspec.PathSpec) (Handle, error)
}

// Parser extracts zero or more events from an open Handle. Name
// mirrors the original parser_name so emitted events can record which
// parser produced them.
type Parser interface {
	Name() string
	Parse(h Handle, emit func(*event.Event)) error
}

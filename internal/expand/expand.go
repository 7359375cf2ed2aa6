// Package expand implements the nested-source expander (spec.md §4.4,
// component C4): given a handle classified as a container, it yields
// child path-specifications recursively. ZIP/GZIP/TAR member iteration
// follows the careful, bounds-checked, entry-by-entry walking idiom of
// go-git's packfile index reader (other_examples'
// go-git-go-git/plumbing/format/index), since no third-party archive
// library appears anywhere in the retrieval pack.
package expand

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/classify"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	pkgerrors "github.com/pkg/errors"
)

// ErrSameFileType is returned by ExpandGZIP when asked to recurse into
// a path-specification that is itself already of type GZIP (spec.md
// §4.4: "Refuse recursion when the current path-specification is
// already of type GZIP"). Callers are expected to swallow it as "no
// further expansion" rather than treat it as a failure.
var ErrSameFileType = errors.New("expand: refusing to recurse into same container type")

// ReaderAtSize is the minimal random-access contract ExpandZIP needs
// from a filesystem handle.
type ReaderAtSize interface {
	io.ReaderAt
	Size() int64
}

// Expand dispatches to the expander for tag. seq is a sequential
// reader over the same content (required for GZIP/TAR); ra is a
// random-access view (required for ZIP; may be nil otherwise).
// Malformed containers are logged at debug level and yield no
// children rather than propagating an error to the caller;
// ErrSameFileType also yields no children and is not logged (spec.md
// §4.4 failure modes).
func Expand(parent *pathspec.PathSpec, outerName string, tag classify.Tag, seq io.Reader, ra ReaderAtSize) []*pathspec.PathSpec {
	var (
		children []*pathspec.PathSpec
		err      error
	)
	switch tag {
	case classify.ZIP:
		if ra == nil {
			log.Printf("debug: expand: ZIP container without random access, skipping")
			return nil
		}
		children, err = ExpandZIP(parent, outerName, ra)
	case classify.GZ:
		children, err = ExpandGZIP(parent, seq)
	case classify.TAR:
		children, err = ExpandTAR(parent, seq)
	default:
		return nil
	}
	if err != nil {
		if !errors.Is(err, ErrSameFileType) {
			log.Printf("debug: expand: %v", err)
		}
		return nil
	}
	return children
}

// ExpandZIP enumerates the member entries of a ZIP archive and returns
// one child path-specification per non-empty member. If the outer
// file looks like a compiled Java artifact (name ends in .jar or .sym,
// and the archive contains a META-INF entry plus at least one .class
// or .properties entry), it yields nothing (spec.md §4.4).
func ExpandZIP(parent *pathspec.PathSpec, outerName string, ra ReaderAtSize) ([]*pathspec.PathSpec, error) {
	zr, err := zip.NewReader(ra, ra.Size())
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "expand: zip %s", outerName)
	}

	if looksLikeCompiledArtifact(outerName, zr.File) {
		return nil, nil
	}

	var children []*pathspec.PathSpec
	for _, f := range zr.File {
		if f.UncompressedSize64 == 0 {
			continue
		}
		children = append(children, parent.Child(pathspec.ZIP, f.Name))
	}
	return children, nil
}

func looksLikeCompiledArtifact(outerName string, files []*zip.File) bool {
	lower := strings.ToLower(outerName)
	if !strings.HasSuffix(lower, ".jar") && !strings.HasSuffix(lower, ".sym") {
		return false
	}
	hasManifest := false
	hasCompiled := false
	for _, f := range files {
		name := f.Name
		if strings.HasPrefix(name, "META-INF/") {
			hasManifest = true
		}
		if strings.HasSuffix(name, ".class") || strings.HasSuffix(name, ".properties") {
			hasCompiled = true
		}
	}
	return hasManifest && hasCompiled
}

// ExpandGZIP yields exactly one child path-specification representing
// the decompressed stream, unless parent is already of type GZIP, in
// which case it returns ErrSameFileType (spec.md §4.4).
func ExpandGZIP(parent *pathspec.PathSpec, seq io.Reader) ([]*pathspec.PathSpec, error) {
	if parent.Type == pathspec.GZIP {
		return nil, ErrSameFileType
	}
	gr, err := gzip.NewReader(seq)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "expand: gzip")
	}
	defer gr.Close()
	return []*pathspec.PathSpec{parent.Child(pathspec.GZIP, "")}, nil
}

// ExpandTAR enumerates the entry names of a TAR stream and returns one
// child path-specification per entry (spec.md §4.4).
func ExpandTAR(parent *pathspec.PathSpec, seq io.Reader) ([]*pathspec.PathSpec, error) {
	tr := tar.NewReader(seq)
	var children []*pathspec.PathSpec
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, "expand: tar")
		}
		children = append(children, parent.Child(pathspec.TAR, hdr.Name))
	}
	return children, nil
}

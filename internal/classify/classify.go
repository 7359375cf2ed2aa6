// Package classify implements the single-pass magic-byte container
// classifier (spec.md §4.3, component C3). It is a fast prefix/offset
// check producing a coarse container tag (ZIP/GZ/TAR/none); the small
// constant pattern table and head-of-file read idiom follows the
// compact, table-driven style of kortschak-ins/blast (a small set of
// named constant parameters checked in sequence) rather than a
// general-purpose magic-number library, since none appears anywhere
// in the example pack.
package classify

import (
	"bytes"
	"io"
)

// Tag is the coarse container classification produced by Classify.
type Tag string

const (
	None Tag = ""
	ZIP  Tag = "ZIP"
	GZ   Tag = "GZ"
	TAR  Tag = "TAR"
)

// maxRead is the hard bound on how many head-of-file bytes Classify
// may consult (spec.md §4.3: "bounded and may not exceed 4 KiB").
const maxRead = 4096

type pattern struct {
	tag     Tag
	offset  int
	magic   []byte
}

// table is the ordered list of {tag, offset, byte-pattern} entries
// checked by Classify. Order matters only in that the first match
// wins; these three containers' magics do not overlap.
var table = []pattern{
	{tag: ZIP, offset: 0, magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{tag: ZIP, offset: 0, magic: []byte{0x50, 0x4B, 0x05, 0x06}}, // empty archive
	{tag: GZ, offset: 0, magic: []byte{0x1F, 0x8B}},
	{tag: TAR, offset: 257, magic: []byte("ustar")},
}

// requiredBytes returns the minimum number of head-of-file bytes
// needed to evaluate every entry in table.
func requiredBytes() int {
	n := 0
	for _, p := range table {
		if end := p.offset + len(p.magic); end > n {
			n = end
		}
	}
	if n > maxRead {
		n = maxRead
	}
	return n
}

// HeadReader is the minimal read contract Classify needs: reading from
// the current position without requiring the caller to seek first.
// Callers must re-seek to 0 before parsing (spec.md §4.3: "must not
// seek backward; callers re-seek to 0 before parsing").
type HeadReader interface {
	Read(p []byte) (int, error)
}

// Classify reads up to 4 KiB from the head of r and returns the first
// matching tag, or None. The read is deterministic given the same
// bytes (spec.md §8 "Classifier fixity").
func Classify(r HeadReader) (Tag, error) {
	need := requiredBytes()
	buf := make([]byte, need)
	n, err := readFull(r, buf)
	if err != nil && n == 0 {
		return None, err
	}
	head := buf[:n]

	for _, p := range table {
		end := p.offset + len(p.magic)
		if end > len(head) {
			continue
		}
		if bytes.Equal(head[p.offset:end], p.magic) {
			return p.tag, nil
		}
	}
	return None, nil
}

// readFull reads until buf is filled or r is exhausted; a short read
// at EOF is not an error, matching the expectation that small files
// simply fail every pattern check.
func readFull(r HeadReader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total > 0 || err == io.EOF {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Package pathspec implements the nested path-specification chain used
// to identify a byte stream through one or more virtual-filesystem
// layers (OS file, TSK image, ZIP/GZIP/TAR container member).
package pathspec

import "strings"

// Type identifies the virtual-filesystem layer a PathSpec locates a
// stream through.
type Type string

const (
	OS    Type = "OS"
	TSK   Type = "TSK"
	ZIP   Type = "ZIP"
	GZIP  Type = "GZIP"
	TAR   Type = "TAR"
)

// PathSpec is a single link in a nested locator chain. Parent points to
// the path-specification of the enclosing container, or nil for a
// top-level source.
type PathSpec struct {
	Type     Type
	Location string
	Inode    string
	Parent   *PathSpec
}

// New returns a top-level path-specification with no parent.
func New(typ Type, location string) *PathSpec {
	return &PathSpec{Type: typ, Location: location}
}

// Child returns a new path-specification nested inside p.
func (p *PathSpec) Child(typ Type, location string) *PathSpec {
	return &PathSpec{Type: typ, Location: location, Parent: p}
}

// Root returns the outermost (top-level) path-specification in the
// chain.
func (p *PathSpec) Root() *PathSpec {
	cur := p
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Depth returns the number of links in the chain, including p itself.
func (p *PathSpec) Depth() int {
	n := 0
	for cur := p; cur != nil; cur = cur.Parent {
		n++
	}
	return n
}

// String renders the chain outermost-first, separated by " -> ", e.g.
// "OS:/eveidence.zip -> ZIP:inner.txt".
func (p *PathSpec) String() string {
	if p == nil {
		return ""
	}
	var chain []*PathSpec
	for cur := p; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	var b strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteString(" -> ")
		}
		b.WriteString(string(chain[i].Type))
		b.WriteByte(':')
		b.WriteString(chain[i].Location)
	}
	return b.String()
}

// Equal reports whether p and o describe the same chain.
func (p *PathSpec) Equal(o *PathSpec) bool {
	for p != nil && o != nil {
		if p.Type != o.Type || p.Location != o.Location || p.Inode != o.Inode {
			return false
		}
		p, o = p.Parent, o.Parent
	}
	return p == nil && o == nil
}

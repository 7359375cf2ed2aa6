package pathspec

import (
	"encoding/json"
	"errors"
)

// ErrEmptyChain is returned by Unmarshal for a payload with no links.
var ErrEmptyChain = errors.New("pathspec: empty chain")

// wireLink is the JSON-friendly shape of a single chain link, ordered
// outermost-first when marshaled as a slice.
type wireLink struct {
	Type     Type   `json:"type"`
	Location string `json:"location"`
	Inode    string `json:"inode,omitempty"`
}

// Marshal serializes the full chain (outermost first) for transit
// across the queue fabric (spec.md §4.6: "carries serialized
// path-specifications").
func Marshal(p *PathSpec) ([]byte, error) {
	var chain []*PathSpec
	for cur := p; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	links := make([]wireLink, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		links[len(chain)-1-i] = wireLink{Type: c.Type, Location: c.Location, Inode: c.Inode}
	}
	return json.Marshal(links)
}

// Unmarshal is the inverse of Marshal. A malformed payload returns an
// error; the worker skips such entries rather than aborting (spec.md
// §4.5: "on malformed deserialization skip and continue").
func Unmarshal(data []byte) (*PathSpec, error) {
	var links []wireLink
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrEmptyChain
	}
	var cur *PathSpec
	for _, l := range links {
		if cur == nil {
			cur = &PathSpec{Type: l.Type, Location: l.Location, Inode: l.Inode}
		} else {
			cur = cur.Child(l.Type, l.Location)
			cur.Inode = l.Inode
		}
	}
	return cur, nil
}

// Package registry implements the process-wide, name-keyed lookup used
// by both the parser registry (spec.md §4.2, component C2) and the
// renderer registry (spec.md §4.12/§6). It generalizes the teacher's
// driver-name-switch factory pattern (internal/database.OpenStore /
// CreateStore) from a two-entry switch into an arbitrary
// name-to-factory map, per spec.md §9's "plugin instantiation by
// class name" design note.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDuplicate is returned by Register when name is already taken.
type ErrDuplicate struct{ Name string }

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("registry: duplicate registration for %q", e.Name)
}

// ErrNotFound is returned by Lookup for an unregistered name.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("registry: no entry named %q", e.Name)
}

// Classified is implemented by entries that also carry a bucket tag
// used for classification-based lookup (e.g. a parser's container
// affinity).
type Classified interface {
	Classification() string
}

// alwaysBucket is the bucket every classified lookup implicitly
// includes in addition to the requested tag (spec.md §4.2: "the
// parsers in the bucket plus the always-applicable 'all' bucket").
const alwaysBucket = "all"

// Registry is a generic, name-keyed, process-wide registry of T.
type Registry[T any] struct {
	byName    map[string]T
	byBucket  map[string][]string // bucket -> ordered names
	order     []string
	classify  func(T) string
}

// New returns an empty Registry. classify may be nil if T does not
// support classification-based lookup.
func New[T any](classify func(T) string) *Registry[T] {
	return &Registry[T]{
		byName:   make(map[string]T),
		byBucket: make(map[string][]string),
		classify: classify,
	}
}

// Register adds entry under name. Registering the same name twice
// fails with ErrDuplicate (spec.md §4.2).
func (r *Registry[T]) Register(name string, entry T) error {
	if _, exists := r.byName[name]; exists {
		return &ErrDuplicate{Name: name}
	}
	r.byName[name] = entry
	r.order = append(r.order, name)
	if r.classify != nil {
		bucket := r.classify(entry)
		r.byBucket[bucket] = append(r.byBucket[bucket], name)
	}
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry[T]) Lookup(name string) (T, error) {
	v, ok := r.byName[name]
	if !ok {
		return v, &ErrNotFound{Name: name}
	}
	return v, nil
}

// All returns every registered entry, in registration order.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns every registered name, in registration order.
func (r *Registry[T]) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByClassification returns the entries whose classification matches
// tag, plus every entry in the always-applicable "all" bucket
// (spec.md §4.2).
func (r *Registry[T]) ByClassification(tag string) []T {
	seen := make(map[string]bool)
	var out []T
	add := func(bucket string) {
		for _, name := range r.byBucket[bucket] {
			if !seen[name] {
				seen[name] = true
				out = append(out, r.byName[name])
			}
		}
	}
	add(tag)
	if tag != alwaysBucket {
		add(alwaysBucket)
	}
	return out
}

// Filter is an include/exclude configuration of comma-separated
// case-insensitive glob patterns, with preset bundles resolved before
// matching (spec.md §4.2). A pattern prefixed with "-" is an exclude
// pattern; anything else is an include pattern. An empty Include
// means "include everything not excluded".
type Filter struct {
	Include []string
	Exclude []string
}

// ParseFilterSpec parses a comma-separated glob list such as
// "*reg*,-winreg" into a Filter, expanding any name that matches a
// preset bundle name first.
func ParseFilterSpec(spec string, presets map[string][]string) Filter {
	var f Filter
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		exclude := strings.HasPrefix(raw, "-")
		pattern := strings.TrimPrefix(raw, "-")

		if bundle, ok := presets[strings.ToLower(pattern)]; ok {
			for _, name := range bundle {
				if exclude {
					f.Exclude = append(f.Exclude, name)
				} else {
					f.Include = append(f.Include, name)
				}
			}
			continue
		}

		if exclude {
			f.Exclude = append(f.Exclude, pattern)
		} else {
			f.Include = append(f.Include, pattern)
		}
	}
	return f
}

// Matches reports whether name passes the filter: it must match at
// least one include pattern (or Include must be empty) and no exclude
// pattern. Matching is case-insensitive glob matching (spec.md §4.2).
func (f Filter) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, pat := range f.Exclude {
		if globMatch(strings.ToLower(pat), lower) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pat := range f.Include {
		if globMatch(strings.ToLower(pat), lower) {
			return true
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// Apply returns the subset of r's registered names that pass f, sorted
// for deterministic enumeration.
func (r *Registry[T]) Apply(f Filter) []string {
	var out []string
	for _, name := range r.order {
		if f.Matches(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Package render implements a baseline set of output renderers (the
// external collaborator described in spec.md §6/§4.12) so the core
// psort driver is runnable end to end without requiring a pluggable
// formatter-registry implementation from outside the module. §6 treats
// renderers as external; this package supplies the built-ins
// (`jsonl`, `l2tcsv`, `dynamic`, `tln`) and keeps the registry as the
// extension point for anything else.
//
// The field tables and MACB-notation mapping are recovered directly
// from the teacher's csvparser/dynamicparser/tlnparser packages, with
// the read/write direction reversed: the teacher reads these formats
// into SQL rows, this package writes internal/event.Event records out
// to them.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/registry"
)

// Renderer is the output driver's consumed interface (spec.md §6:
// "Start(), WriteEvent(event), End()"). Renderers that also support
// the pull-style variant implement EntryFetcher as well.
type Renderer interface {
	Start(w io.Writer) error
	WriteEvent(ev *event.Event) error
	End() error
}

// EntryFetcher is implemented by renderers that additionally support
// the pull-style variant spec.md §6 mentions
// ("FetchEntry(store_number) optional pull-style variant").
type EntryFetcher interface {
	FetchEntry(storeNumber int) (string, error)
}

// Factory constructs a fresh Renderer instance; renderers are
// stateful (they track whether Start/End has been called) so the
// registry holds factories, not instances, mirroring
// internal/registry's "plugin instantiation by class name" pattern.
type Factory func() Renderer

// classify is nil: renderers have no classification bucket, only a
// flat name lookup.
var registryInstance = registry.New[Factory](nil)

func init() {
	mustRegister("jsonl", func() Renderer { return &JSONLRenderer{} })
	mustRegister("l2tcsv", func() Renderer { return &L2TCSVRenderer{} })
	mustRegister("dynamic", func() Renderer { return &DynamicCSVRenderer{} })
	mustRegister("tln", func() Renderer { return &TLNRenderer{} })
}

func mustRegister(name string, f Factory) {
	if err := registryInstance.Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup returns a fresh Renderer instance for name, or an error if
// name is not registered (spec.md §4.12: "unknown name is fatal").
func Lookup(name string) (Renderer, error) {
	f, err := registryInstance.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("render: unknown renderer %q: %w", name, err)
	}
	return f(), nil
}

// Names lists every registered renderer name, in registration order.
func Names() []string { return registryInstance.Names() }

// Register adds a third-party renderer under name, for hosts that
// embed this module and supply their own formatter-registry-backed
// renderer (spec.md §6's external collaborator contract).
func Register(name string, f Factory) error {
	return registryInstance.Register(name, f)
}

// DefaultFormatter implements internal/filter.Formatter with a
// minimal, dependency-free strategy: the "long" description is the
// event's body attribute if present, else data_type; "short" truncates
// it; source strings fall back to parser/data_type. A real deployment
// would consult the external formatter-registry (data-type -> template
// with {attr} placeholders) that spec.md §6 describes; this is the
// baseline so filters referencing description/source aliases still
// evaluate deterministically without one.
type DefaultFormatter struct {
	// Templates maps data_type -> a "{attr}" placeholder template used
	// for the long description, e.g. "{filename} was {timestamp_desc}".
	Templates map[string]string
}

func (f *DefaultFormatter) DescriptionLong(ev *event.Event) string {
	if tmpl, ok := f.Templates[ev.DataType]; ok {
		return expandTemplate(tmpl, ev)
	}
	if body, ok := ev.Get("body"); ok {
		return body.DisplayString()
	}
	return ev.DataType
}

func (f *DefaultFormatter) DescriptionShort(ev *event.Event) string {
	s := f.DescriptionLong(ev)
	const maxShort = 80
	if len(s) > maxShort {
		return s[:maxShort]
	}
	return s
}

func (f *DefaultFormatter) SourceShort(ev *event.Event) string {
	if ev.Parser != "" {
		return ev.Parser
	}
	return ev.DataType
}

func (f *DefaultFormatter) SourceLong(ev *event.Event) string {
	return ev.DataType
}

// expandTemplate substitutes every "{attr}" placeholder in tmpl with
// the display string of the named event attribute (spec.md §6:
// "format template with {attr} placeholders").
func expandTemplate(tmpl string, ev *event.Event) string {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			if end := strings.IndexByte(tmpl[i:], '}'); end > 0 {
				name := tmpl[i+1 : i+end]
				if v, ok := ev.Get(name); ok {
					b.WriteString(v.DisplayString())
				}
				i += end + 1
				continue
			}
		}
		b.WriteByte(tmpl[i])
		i++
	}
	return b.String()
}

// macbFromTimestampDesc maps a timestamp_desc string to MACB notation,
// reused verbatim in idiom from the teacher's dynamicparser
// mapTimestampDescToMACB.
func macbFromTimestampDesc(tsDesc string) string {
	lower := strings.ToLower(tsDesc)
	macb := [4]byte{'.', '.', '.', '.'}

	if strings.Contains(lower, "modification") || strings.Contains(lower, "modified") || strings.Contains(lower, "written") {
		macb[0] = 'M'
	}
	if strings.Contains(lower, "access") {
		macb[1] = 'A'
	}
	if strings.Contains(lower, "change") || strings.Contains(lower, "metadata") || strings.Contains(lower, "entry") || strings.Contains(lower, "mft") {
		macb[2] = 'C'
	}
	if strings.Contains(lower, "creation") || strings.Contains(lower, "birth") || strings.Contains(lower, "created") {
		macb[3] = 'B'
	}
	return string(macb[:])
}

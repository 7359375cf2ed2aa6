// Package config parses the command-line flags shared by cmd/extract
// and cmd/psort, grounded in kortschak-ins's cmd/ins/main.go idiom:
// stdlib flag, a flag.Var-backed repeatable-string value for
// multi-valued options, validation after flag.Parse with a custom
// flag.Usage and os.Exit(2) on a missing required flag.
package config

import (
	"flag"
	"fmt"
	"os"
)

// stringList is a multi-value flag.Value, e.g. "-store a.plaso -store
// b.plaso".
type stringList []string

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (s *stringList) String() string {
	return fmt.Sprintf("%q", []string(*s))
}

// ExtractConfig controls one extraction run (cmd/extract).
type ExtractConfig struct {
	Sources  []string // files or directories to extract from
	OutStore string   // path to the store archive to create
	Workers  int      // worker pool size, <=0 means CPU count minus 3 (at least 1)
	Verbose  bool
}

// ParseExtractFlags parses args (normally os.Args[1:]) into an
// ExtractConfig, printing usage and exiting with status 2 on a
// missing required flag, matching the teacher's own validation idiom.
func ParseExtractFlags(args []string) ExtractConfig {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var sources stringList
	fs.Var(&sources, "source", "specify a file or directory to extract from (required - may be present more than once)")
	out := fs.String("store", "", "specify the store archive to create (required)")
	workers := fs.Int("workers", 0, "specify the worker pool size (<=0 uses the CPU count minus 3, at least 1)")
	verbose := fs.Bool("verbose", false, "specify verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of extract:
  $ extract [options] -source <path> [-source <path> ...] -store <out.plaso>

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(args)

	if len(sources) == 0 || *out == "" {
		fs.Usage()
		os.Exit(2)
	}

	return ExtractConfig{
		Sources:  sources,
		OutStore: *out,
		Workers:  *workers,
		Verbose:  *verbose,
	}
}

// PsortConfig controls one psort run (cmd/psort).
type PsortConfig struct {
	Stores   []string // store archives to merge, in order
	Filter   string   // filter expression, empty means match everything
	Renderer string   // renderer name registered in internal/render
	Out      string   // output file path; empty means stdout
	Verbose  bool
}

// ParsePsortFlags parses args into a PsortConfig.
func ParsePsortFlags(args []string) PsortConfig {
	fs := flag.NewFlagSet("psort", flag.ExitOnError)
	var stores stringList
	fs.Var(&stores, "store", "specify a store archive to include (required - may be present more than once)")
	filterExpr := fs.String("filter", "", "specify a filter expression")
	renderer := fs.String("output-format", "jsonl", "specify the output renderer (jsonl, l2tcsv, dynamic, tln)")
	out := fs.String("out", "", "specify an output file (default stdout)")
	verbose := fs.Bool("verbose", false, "specify verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of psort:
  $ psort [options] -store <store.plaso> [-store <store.plaso> ...]

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(args)

	if len(stores) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	return PsortConfig{
		Stores:   stores,
		Filter:   *filterExpr,
		Renderer: *renderer,
		Out:      *out,
		Verbose:  *verbose,
	}
}

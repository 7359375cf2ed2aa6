// Command psort sorts, filters, deduplicates, and renders the events
// across one or more store archives (spec.md §4.12, component C12).
package main

import (
	"log"
	"os"

	"github.com/cdtdelta/plaso-core/internal/config"
	"github.com/cdtdelta/plaso-core/internal/psort"
	"github.com/cdtdelta/plaso-core/internal/render"
)

func main() {
	cfg := config.ParsePsortFlags(os.Args[1:])
	if cfg.Verbose {
		log.SetFlags(log.Ltime)
	}

	out := os.Stdout
	if cfg.Out != "" {
		f, err := os.Create(cfg.Out)
		if err != nil {
			log.Fatalf("psort: %v", err)
		}
		defer f.Close()
		out = f
	}

	sum, err := psort.Run(psort.Config{
		StorePaths:   cfg.Stores,
		FilterExpr:   cfg.Filter,
		Formatter:    &render.DefaultFormatter{},
		RendererName: cfg.Renderer,
	}, out)
	if err != nil {
		log.Fatalf("psort: %v", err)
	}

	log.Printf("debug: psort: %s", psort.SummaryLine(sum))
}

package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/cdtdelta/plaso-core/internal/event"
	"github.com/cdtdelta/plaso-core/internal/pathspec"
	"github.com/cdtdelta/plaso-core/internal/registry"
	"golang.org/x/sync/errgroup"
)

// PipelineConfig controls fan-out width and debug behaviour.
type PipelineConfig struct {
	NumWorkers   int
	QueueDepth   int
	WorkerConfig Config
	// SingleThread collapses collector/workers/writer onto one
	// goroutine, preserving identical observable semantics; used for
	// debug runs where a post-mortem hook on an
	// unexpected parser error needs a deterministic call stack.
	SingleThread bool
}

// Pipeline wires a collector, N workers and one writer stage together
// over the C6 queue fabric (spec.md §4.5/§4.6, §5).
type Pipeline struct {
	opener  Opener
	parsers *registry.Registry[Parser]
	filter  Matcher
	cfg     PipelineConfig
}

// NewPipeline builds a Pipeline ready to Run.
func NewPipeline(opener Opener, parsers *registry.Registry[Parser], filter Matcher, cfg PipelineConfig) *Pipeline {
	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = runtime.NumCPU() - 3
		if cfg.NumWorkers < 1 {
			cfg.NumWorkers = 1
		}
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 64
	}
	return &Pipeline{opener: opener, parsers: parsers, filter: filter, cfg: cfg}
}

// Run collects every root path-specification produced by collect,
// fans it out across NumWorkers workers, and calls write for each
// surviving event. Run serializes calls to write with a mutex, so
// write need not be safe for concurrent use. Run returns once the collector is exhausted
// and every worker has drained, or ctx is canceled.
func (p *Pipeline) Run(ctx context.Context, collect func(push func(*pathspec.PathSpec)), write func(*event.Event)) error {
	if p.cfg.SingleThread {
		return p.runSingleThreaded(collect, write)
	}

	q := NewQueue(p.cfg.QueueDepth)

	var writeMu sync.Mutex
	safeWrite := func(ev *event.Event) {
		writeMu.Lock()
		defer writeMu.Unlock()
		write(ev)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer q.CloseInput()
		done := gctx.Done()
		collect(func(spec *pathspec.PathSpec) {
			select {
			case <-done:
				return
			default:
			}
			data, err := pathspec.Marshal(spec)
			if err != nil {
				return
			}
			q.Push(data)
		})
		return nil
	})

	for i := 0; i < p.cfg.NumWorkers; i++ {
		g.Go(func() error {
			w := NewWorker(p.opener, p.parsers, p.filter, p.cfg.WorkerConfig, safeWrite)
			w.Run(q)
			return nil
		})
	}

	go func() {
		<-gctx.Done()
		q.Cancel()
	}()

	return g.Wait()
}

// runSingleThreaded collapses collector, worker and writer onto the
// calling goroutine so a post-mortem hook sees a coherent call stack,
// mirroring the original tool's --single_thread debug mode.
func (p *Pipeline) runSingleThreaded(collect func(push func(*pathspec.PathSpec)), write func(*event.Event)) error {
	w := NewWorker(p.opener, p.parsers, p.filter, p.cfg.WorkerConfig, write)
	collect(func(spec *pathspec.PathSpec) {
		h, err := p.opener.Open(spec)
		if err != nil {
			return
		}
		defer h.Close()
		w.ParseFile(h)
		if p.cfg.WorkerConfig.OpenFiles {
			w.ParseAllFiles(h)
		}
	})
	return nil
}

// Package engine drives one analysis run: it collects the input files, parses
// them, attaches metrics and dispatches every artifact to the rule sets.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/hierarchy"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/log"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/metrics"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/parser"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/ruleset"
)

// ErrNoInput is returned when the inputs name no analyzable file.
var ErrNoInput = errors.New("no input files found")

// Engine holds the file selection settings of a run.
type Engine struct {
	suffixes []string
	exclude  []string
	workers  int
	graph    *hierarchy.Graph
}

type Option func(*Engine)

// WithSuffixes sets the file extensions that are analyzed. A leading dot is
// optional.
func WithSuffixes(suffixes ...string) Option {
	return func(e *Engine) {
		e.suffixes = e.suffixes[:0]
		for _, s := range suffixes {
			s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
			if s != "" {
				e.suffixes = append(e.suffixes, s)
			}
		}
	}
}

// WithExclude adds glob patterns for paths that are skipped.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				e.exclude = append(e.exclude, p)
			}
		}
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithGraph makes Analyze rebuild g instead of a private graph, so callers
// can query the type hierarchy of the last run.
func WithGraph(g *hierarchy.Graph) Option {
	return func(e *Engine) { e.graph = g }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		suffixes: []string{"php"},
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.suffixes) == 0 {
		e.suffixes = []string{"php"}
	}
	return e
}

// Process runs a complete analysis of inputs: the report is started, every
// file is analyzed, the report is ended and handed to each renderer.
func (e *Engine) Process(ctx context.Context, inputs string, ruleSets []*ruleset.RuleSet, renderers []renderer.Renderer, rep *report.Report) error {
	files, err := e.CollectFiles(inputs)
	if err != nil {
		return err
	}

	rep.Start()
	if err := e.Analyze(ctx, files, ruleSets, rep); err != nil {
		return err
	}
	rep.End()

	log.Info("analyzed %d file(s) in %s: %s", len(files), rep.ElapsedTime(), renderer.Summary(rep))
	return renderer.Render(rep, renderers...)
}

type parsed struct {
	path string
	file *parser.File
	err  error
}

// Analyze parses files concurrently and applies the rule sets to every
// artifact. Dispatch is sequential in path order; read and parse failures are
// recorded as processing errors.
func (e *Engine) Analyze(ctx context.Context, files []string, ruleSets []*ruleset.RuleSet, rep *report.Report) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	started := time.Now()
	results, err := e.parseAll(ctx, sorted)
	if err != nil {
		return err
	}
	log.Debug("parsed %d file(s) in %s", len(results), time.Since(started))

	g := e.graph
	if g == nil {
		g = hierarchy.NewGraph()
	} else {
		g.Clear()
	}
	for _, res := range results {
		if res.err != nil {
			log.Warn("skipping %s: %v", res.path, res.err)
			rep.AddError(report.ProcessingError{File: res.path, Message: res.err.Error()})
			continue
		}
		g.AddFile(res.file)
	}

	for _, rs := range ruleSets {
		rs.SetReport(rep)
	}
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.file != nil {
			dispatch(res.file, g, ruleSets)
		}
	}
	return nil
}

func (e *Engine) parseAll(ctx context.Context, files []string) ([]parsed, error) {
	results := make([]parsed, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = parseFile(gCtx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse files: %w", err)
	}
	return results, nil
}

func parseFile(ctx context.Context, path string) parsed {
	content, err := os.ReadFile(path)
	if err != nil {
		return parsed{path: path, err: err}
	}
	f, err := parser.Parse(ctx, path, content)
	return parsed{path: path, file: f, err: err}
}

func dispatch(f *parser.File, g *hierarchy.Graph, ruleSets []*ruleset.RuleSet) {
	for _, artifact := range f.Artifacts() {
		apply(artifact, g, ruleSets)
		if artifact.Variant().IsType() {
			for _, m := range artifact.Methods() {
				apply(m, g, ruleSets)
			}
		}
	}
}

func apply(n *node.Node, g *hierarchy.Graph, ruleSets []*ruleset.RuleSet) {
	metrics.Compute(n, g)
	for _, rs := range ruleSets {
		rs.Apply(n)
	}
}

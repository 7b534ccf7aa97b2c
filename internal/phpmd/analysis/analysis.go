// Package analysis wires configuration, rule-set resolution, the engine and
// the baseline into the runs used by the command line, watch mode, the TUI
// and the MCP server.
package analysis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/baseline"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/engine"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/hierarchy"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rules"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/ruleset"
)

// Analyzer runs analyses of one project root.
type Analyzer struct {
	Root     string
	Config   *config.Config
	Registry *rule.Registry
	// Graph holds the type hierarchy of the most recent run.
	Graph *hierarchy.Graph

	mu sync.Mutex
}

func NewAnalyzer(root string, cfg *config.Config) *Analyzer {
	return &Analyzer{
		Root:     root,
		Config:   cfg,
		Registry: rules.NewRegistry(),
		Graph:    hierarchy.NewGraph(),
	}
}

// Factory returns a rule-set factory configured from the analyzer settings.
// Every call starts a fresh resolution.
func (a *Analyzer) Factory() *ruleset.Factory {
	cfg := a.Config
	opts := []ruleset.Option{
		ruleset.WithIncludePaths(cfg.IncludePaths...),
		ruleset.WithMinimumPriority(cfg.MinimumPriority),
		ruleset.WithMaximumPriority(cfg.MaximumPriority),
		ruleset.WithStrict(cfg.Strict),
	}
	if cfg.DataDir != "" {
		opts = append(opts, ruleset.WithDataDir(cfg.DataDir))
	}
	return ruleset.NewFactory(a.Registry, opts...)
}

// RuleSetNames is the comma separated rule-set list of the configuration.
func (a *Analyzer) RuleSetNames() string {
	return strings.Join(a.Config.RuleSets, ",")
}

// RuleSets resolves the configured rule sets. The exclude-pattern entries of
// the first rule-set document are returned along with them.
func (a *Analyzer) RuleSets() ([]*ruleset.RuleSet, []string, error) {
	f := a.Factory()
	names := a.RuleSetNames()
	sets, err := f.CreateRuleSets(names)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rule sets: %w", err)
	}
	ignore, err := f.IgnorePatterns(names)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	return sets, ignore, nil
}

// Engine returns an engine honoring the configured suffixes and excludes plus
// the additional patterns.
func (a *Analyzer) Engine(extraExclude ...string) *engine.Engine {
	return engine.New(
		engine.WithSuffixes(a.Config.Suffixes...),
		engine.WithExclude(a.Config.Exclude...),
		engine.WithExclude(extraExclude...),
		engine.WithGraph(a.Graph),
	)
}

// Run analyzes inputs (the root when empty) and renders the report with
// renderers. A nil validator reports every violation.
func (a *Analyzer) Run(ctx context.Context, inputs string, validator report.Validator, renderers ...renderer.Renderer) (*report.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if inputs == "" {
		inputs = a.Root
	}
	sets, ignore, err := a.RuleSets()
	if err != nil {
		return nil, err
	}

	var opts []report.Option
	if validator != nil {
		opts = append(opts, report.WithValidator(validator))
	}
	rep := report.New(opts...)
	if err := a.Engine(ignore...).Process(ctx, inputs, sets, renderers, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// BaselinePath is where the baseline database of the root lives.
func (a *Analyzer) BaselinePath() string {
	return a.Config.BaselinePath(a.Root)
}

// HasBaseline reports whether a baseline database exists at path.
func HasBaseline(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadBaseline reads the baseline stored at path.
func LoadBaseline(path string) (*baseline.Set, error) {
	st, err := baseline.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline: %w", err)
	}
	defer st.Close()
	return st.Load()
}

// SaveBaseline replaces the baseline at path with the violations of rep.
func (a *Analyzer) SaveBaseline(path string, rep *report.Report) (*baseline.Set, error) {
	st, err := baseline.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline: %w", err)
	}
	defer st.Close()

	set := baseline.FromReport(rep, a.Root)
	if err := st.Save(set); err != nil {
		return nil, fmt.Errorf("failed to save baseline: %w", err)
	}
	return set, nil
}

// Validator loads the baseline at path for the given mode.
func (a *Analyzer) Validator(path string, mode baseline.Mode) (report.Validator, error) {
	set, err := LoadBaseline(path)
	if err != nil {
		return nil, err
	}
	return baseline.NewValidator(set, mode, a.Root), nil
}

// Analyze runs without renderers, using the baseline at the configured
// location when it exists. It serves watch mode, the TUI and the MCP server.
func (a *Analyzer) Analyze(ctx context.Context, inputs string) (*report.Report, error) {
	var validator report.Validator
	if path := a.BaselinePath(); HasBaseline(path) {
		v, err := a.Validator(path, baseline.ModeNone)
		if err != nil {
			return nil, err
		}
		validator = v
	}
	return a.Run(ctx, inputs, validator)
}

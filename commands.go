package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/analysis"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/baseline"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/log"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/mcp"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/tui"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/watcher"
)

func setupLogging(cmd *cobra.Command) {
	log.SetOutput(cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelWarn)
	}
}

// analyzeOptions are the flags of a one-shot analysis.
type analyzeOptions struct {
	minimumPriority  int
	maximumPriority  int
	strict           bool
	suffixes         string
	exclude          string
	reportFile       string
	ignoreViolations bool
	ignoreErrors     bool
	baselineFile     string
	generateBaseline bool
	updateBaseline   bool
}

func (o *analyzeOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.minimumPriority, "minimumpriority", 5, "Loosest rule priority to load (1 highest .. 5 lowest)")
	f.IntVar(&o.maximumPriority, "maximumpriority", 1, "Strictest rule priority to load")
	f.BoolVar(&o.strict, "strict", false, "Also report nodes carrying @SuppressWarnings")
	f.StringVar(&o.suffixes, "suffixes", "", "Comma separated file extensions to analyze (default php)")
	f.StringVar(&o.exclude, "exclude", "", "Comma separated glob patterns of paths to skip")
	f.StringVar(&o.reportFile, "reportfile", "", "Write the report to this file instead of stdout")
	f.BoolVar(&o.ignoreViolations, "ignore-violations-on-exit", false, "Exit with 0 even if violations are found")
	f.BoolVar(&o.ignoreErrors, "ignore-errors-on-exit", false, "Exit with 0 even if processing errors occur")
	f.StringVar(&o.baselineFile, "baseline-file", "", "Baseline database (default <persistence_dir>/baseline.db)")
	f.BoolVar(&o.generateBaseline, "generate-baseline", false, "Store all current violations as the baseline")
	f.BoolVar(&o.updateBaseline, "update-baseline", false, "Drop baseline entries that no longer occur")
}

// applyFlags overrides cfg with the flags the user set explicitly.
func (o *analyzeOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("minimumpriority") {
		cfg.MinimumPriority = o.minimumPriority
	}
	if f.Changed("maximumpriority") {
		cfg.MaximumPriority = o.maximumPriority
	}
	if f.Changed("strict") {
		cfg.Strict = o.strict
	}
	if f.Changed("suffixes") {
		cfg.Suffixes = splitList(o.suffixes)
	}
	if f.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, splitList(o.exclude)...)
	}
}

func (o *analyzeOptions) run(cmd *cobra.Command, inputs, format, ruleSets string) error {
	if o.generateBaseline && o.updateBaseline {
		return usageError(fmt.Errorf("--generate-baseline and --update-baseline are mutually exclusive"))
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	o.applyFlags(cmd, cfg)
	cfg.RuleSets = splitList(ruleSets)
	cfg.Format = format

	out := cmd.OutOrStdout()
	if o.reportFile != "" {
		f, err := os.Create(o.reportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	rd, err := renderer.New(format, out)
	if err != nil {
		return usageError(err)
	}

	an := analysis.NewAnalyzer(root, cfg)
	baselinePath := an.BaselinePath()
	if o.baselineFile != "" {
		baselinePath, _ = filepath.Abs(o.baselineFile)
	}

	ctx := cmd.Context()
	switch {
	case o.generateBaseline:
		return o.writeBaseline(cmd, an, baselinePath, inputs, nil)
	case o.updateBaseline:
		if !analysis.HasBaseline(baselinePath) {
			return fmt.Errorf("baseline %s does not exist", baselinePath)
		}
		v, err := an.Validator(baselinePath, baseline.ModeUpdate)
		if err != nil {
			return err
		}
		return o.writeBaseline(cmd, an, baselinePath, inputs, v)
	}

	var validator report.Validator
	if analysis.HasBaseline(baselinePath) {
		if validator, err = an.Validator(baselinePath, baseline.ModeNone); err != nil {
			return err
		}
	}
	rep, err := an.Run(ctx, inputs, validator, rd)
	if err != nil {
		return err
	}

	switch {
	case rep.HasErrors() && !o.ignoreErrors:
		return &exitCodeError{code: exitError}
	case !rep.IsEmpty() && !o.ignoreViolations:
		return &exitCodeError{code: exitViolation}
	}
	return nil
}

func (o *analyzeOptions) writeBaseline(cmd *cobra.Command, an *analysis.Analyzer, path, inputs string, v report.Validator) error {
	rep, err := an.Run(cmd.Context(), inputs, v)
	if err != nil {
		return err
	}
	set, err := an.SaveBaseline(path, rep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Baseline with %d entries written to %s\n", set.Len(), path)
	return nil
}

// projectAnalyzer loads the configuration of the root given as first
// argument (default current directory) and applies the shared flags.
func projectAnalyzer(cmd *cobra.Command, args []string, opts *analyzeOptions) (*analysis.Analyzer, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts.applyFlags(cmd, cfg)
	if rs, _ := cmd.Flags().GetString("rulesets"); rs != "" {
		cfg.RuleSets = splitList(rs)
	}
	return analysis.NewAnalyzer(absRoot, cfg), nil
}

func bindProjectFlags(cmd *cobra.Command, opts *analyzeOptions) {
	f := cmd.Flags()
	f.String("rulesets", "", "Comma separated rule sets (default from phpmd.json)")
	f.IntVar(&opts.minimumPriority, "minimumpriority", 5, "Loosest rule priority to load")
	f.IntVar(&opts.maximumPriority, "maximumpriority", 1, "Strictest rule priority to load")
	f.BoolVar(&opts.strict, "strict", false, "Also report nodes carrying @SuppressWarnings")
	f.StringVar(&opts.suffixes, "suffixes", "", "Comma separated file extensions to analyze")
	f.StringVar(&opts.exclude, "exclude", "", "Comma separated glob patterns of paths to skip")
}

func watchCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-analyze whenever a source file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := projectAnalyzer(cmd, args, opts)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = an.Config.Format
			}
			out := cmd.OutOrStdout()
			if _, err := renderer.New(format, out); err != nil {
				return usageError(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			show := func(r *report.Report, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Analysis failed: %v\n", err)
					return
				}
				rd, _ := renderer.New(format, out)
				if err := renderer.Render(r, rd); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to render report: %v\n", err)
				}
			}
			analyze := func(ctx context.Context) (*report.Report, error) {
				return an.Analyze(ctx, "")
			}

			w, err := watcher.NewWatcher(an.Root, an.Config, analyze, show)
			if err != nil {
				return fmt.Errorf("failed to start file watcher: %w", err)
			}
			defer w.Close()

			show(analyze(ctx))
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)...\n", an.Root)
			w.Run(ctx)
			return nil
		},
	}
	bindProjectFlags(cmd, opts)
	cmd.Flags().String("format", "", "Report format (default from phpmd.json)")
	return cmd
}

func tuiCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "tui [path]",
		Short: "Browse the analysis report interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := projectAnalyzer(cmd, args, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rep, err := an.Analyze(ctx, "")
			if err != nil {
				return err
			}
			refresh := func() (*report.Report, error) {
				return an.Analyze(ctx, "")
			}

			p := tea.NewProgram(tui.NewModel(rep, an.Graph, refresh), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui failed: %w", err)
			}
			return nil
		},
	}
	bindProjectFlags(cmd, opts)
	return cmd
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp [path]",
		Short: "Serve analysis tools over MCP on stdio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			watch, _ := cmd.Flags().GetBool("watch")

			log.Info("starting phpmd MCP server in %s", absRoot)
			server, err := mcp.NewServer(cmd.Context(), absRoot, watch)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return server.Run(cmd.Context(), &sdk.StdioTransport{})
		},
	}
	cmd.Flags().Bool("watch", true, "Re-analyze when source files change")
	return cmd
}

func ruleSetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rulesets",
		Short: "List the available rule sets and their rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			sets, err := analysis.NewAnalyzer(root, cfg).Catalog()
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), sets)
			return nil
		},
	}
}

func printCatalog(w io.Writer, sets []analysis.RuleSetInfo) {
	for _, s := range sets {
		fmt.Fprintf(w, "%-14s %s (%d rules)\n", s.ID, s.Name, len(s.Rules))
		for _, r := range s.Rules {
			fmt.Fprintf(w, "    %s\n", r)
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

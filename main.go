// Command phpmd detects code smells in PHP sources.
//
//	phpmd <inputs> <format> <rulesets> [flags]
//
// inputs and rulesets are comma separated lists. The watch, tui and mcp
// sub-commands keep analyzing a project root.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
)

var version = "0.1.0"

// Process exit codes.
const (
	exitSuccess   = 0
	exitException = 1
	exitViolation = 2
	exitError     = 3
	exitUsage     = 4
)

// exitCodeError carries the exit code of a finished run. A nil err means
// nothing needs to be printed.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitCodeError{code: exitUsage, err: err}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	renderer.Version = version

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}

	var ee *exitCodeError
	if !errors.As(err, &ee) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitException
	}
	if ee.err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		if ee.code == exitUsage {
			fmt.Fprintf(stderr, "Run 'phpmd --help' for usage.\n")
		}
	}
	return ee.code
}

func newRootCmd() *cobra.Command {
	opts := &analyzeOptions{}

	rootCmd := &cobra.Command{
		Use:   "phpmd <inputs> <format> <rulesets>",
		Short: "PHP Mess Detector - finds code smells in PHP sources",
		Long: `phpmd analyzes PHP sources with configurable rule sets.

Usage modes:
  phpmd <inputs> <format> <rulesets>   Analyze once and render a report
  phpmd watch [path]                    Re-analyze whenever a source file changes
  phpmd tui [path]                      Browse the report interactively
  phpmd mcp [path]                      Serve analysis over MCP (stdio)
  phpmd rulesets                        List the built-in rule sets

Formats: ` + fmt.Sprint(renderer.Formats()) + `

Exit codes: 0 success, 1 exception, 2 violations found,
3 processing errors, 4 usage error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return usageError(fmt.Errorf("expected <inputs> <format> <rulesets>, got %d argument(s)", len(args)))
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0], args[1], args[2])
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress and timing to stderr")
	opts.bind(rootCmd)

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(ruleSetsCmd())

	return rootCmd
}

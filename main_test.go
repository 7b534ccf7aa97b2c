package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// noBaseline points the run at a baseline that does not exist.
func noBaseline(t *testing.T) string {
	return "--baseline-file=" + filepath.Join(t.TempDir(), "baseline.db")
}

func TestUsageErrors(t *testing.T) {
	assert.Equal(t, exitUsage, runCLI(t).code)
	assert.Equal(t, exitUsage, runCLI(t, "testdata/src", "text").code)
	assert.Equal(t, exitUsage, runCLI(t, "testdata/src", "text", "unusedcode", "--no-such-flag").code)

	res := runCLI(t, "testdata/src", "html5", "unusedcode", noBaseline(t))
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "unknown report format")
}

func TestViolationsExitCode(t *testing.T) {
	res := runCLI(t, "testdata/src", "text", "unusedcode", noBaseline(t))
	assert.Equal(t, exitViolation, res.code)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Order.php:6\tUnusedPrivateField\tAvoid unused private fields such as '$legacyTotal'.")
	assert.Contains(t, lines[1], "Order.php:9\tUnusedFormalParameter\tAvoid unused parameters such as '$discount'.")

	res = runCLI(t, "testdata/src", "text", "unusedcode", noBaseline(t), "--ignore-violations-on-exit")
	assert.Equal(t, exitSuccess, res.code)
}

func TestStrictReportsSuppressed(t *testing.T) {
	res := runCLI(t, "testdata/src", "text", "unusedcode", noBaseline(t), "--strict")
	assert.Equal(t, exitViolation, res.code)
	assert.Contains(t, res.stdout, "'$reason'")
}

func TestPriorityWindow(t *testing.T) {
	res := runCLI(t, "testdata/src", "text", "unusedcode", noBaseline(t), "--minimumpriority=2")
	assert.Equal(t, exitSuccess, res.code)
	assert.Empty(t, res.stdout)
}

func TestCleanCode(t *testing.T) {
	res := runCLI(t, "testdata/clean", "text", "unusedcode,naming", noBaseline(t))
	assert.Equal(t, exitSuccess, res.code, res.stdout)
	assert.Empty(t, res.stdout)
}

func TestProcessingErrors(t *testing.T) {
	inputs := "testdata/broken,testdata/src"
	res := runCLI(t, inputs, "text", "unusedcode", noBaseline(t))
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stdout, "Broken.php\t-\t")

	res = runCLI(t, inputs, "text", "unusedcode", noBaseline(t), "--ignore-errors-on-exit")
	assert.Equal(t, exitViolation, res.code)

	res = runCLI(t, inputs, "text", "unusedcode", noBaseline(t), "--ignore-errors-on-exit", "--ignore-violations-on-exit")
	assert.Equal(t, exitSuccess, res.code)
}

func TestUnknownRuleSet(t *testing.T) {
	res := runCLI(t, "testdata/src", "text", "nonexistent", noBaseline(t))
	assert.Equal(t, exitException, res.code)
	assert.Contains(t, res.stderr, "nonexistent")
}

func TestReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	res := runCLI(t, "testdata/src", "xml", "unusedcode", noBaseline(t), "--reportfile", path)
	assert.Equal(t, exitViolation, res.code)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rule="UnusedPrivateField"`)
}

func TestBaselineWorkflow(t *testing.T) {
	flag := "--baseline-file=" + filepath.Join(t.TempDir(), "baseline.db")

	res := runCLI(t, "testdata/src", "text", "unusedcode", flag, "--update-baseline")
	assert.Equal(t, exitException, res.code)

	res = runCLI(t, "testdata/src", "text", "unusedcode", flag, "--generate-baseline")
	require.Equal(t, exitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Baseline with 2 entries")

	res = runCLI(t, "testdata/src", "text", "unusedcode", flag)
	assert.Equal(t, exitSuccess, res.code)
	assert.Empty(t, res.stdout)

	res = runCLI(t, "testdata/src", "text", "unusedcode", flag, "--update-baseline")
	assert.Equal(t, exitSuccess, res.code)
	assert.Contains(t, res.stderr, "Baseline with 2 entries")

	res = runCLI(t, "testdata/src", "text", "unusedcode", flag, "--generate-baseline", "--update-baseline")
	assert.Equal(t, exitUsage, res.code)
}

func TestRuleSetsCommand(t *testing.T) {
	res := runCLI(t, "rulesets")
	require.Equal(t, exitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "unusedcode     Unused Code Rules (3 rules)")
	assert.Contains(t, res.stdout, "    CyclomaticComplexity\n")
}

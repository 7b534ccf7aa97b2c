package analysis

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/baseline"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/ruleset"
)

const legacy = `<?php
class Legacy
{
    private $unused;

    public function run($a, $b)
    {
        return $a;
    }
}
`

func project(t *testing.T) (string, *Analyzer) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Legacy.php"), []byte(legacy), 0644))

	cfg := config.Default()
	cfg.RuleSets = []string{"unusedcode"}
	return root, NewAnalyzer(root, cfg)
}

func TestRun(t *testing.T) {
	_, a := project(t)

	var out bytes.Buffer
	rep, err := a.Run(context.Background(), "", nil, renderer.NewText(&out))
	require.NoError(t, err)
	assert.Equal(t, 2, len(rep.RuleViolations()))
	assert.Contains(t, out.String(), "UnusedPrivateField")

	_, ok := a.Graph.GetType("Legacy")
	assert.True(t, ok)
}

func TestRunPriorityWindow(t *testing.T) {
	_, a := project(t)
	a.Config.MinimumPriority = 2

	rep, err := a.Run(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, rep.IsEmpty())
}

func TestRunUnknownRuleSet(t *testing.T) {
	_, a := project(t)
	a.Config.RuleSets = []string{"nonexistent"}

	_, err := a.Run(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestBaselineLifecycle(t *testing.T) {
	root, a := project(t)
	ctx := context.Background()
	path := a.BaselinePath()
	assert.False(t, HasBaseline(path))

	rep, err := a.Run(ctx, "", nil)
	require.NoError(t, err)
	set, err := a.SaveBaseline(path, rep)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.True(t, HasBaseline(path))

	// Known violations are baselined; a new one is reported.
	code := legacy + "\nfunction fresh($unusedArg) {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Legacy.php"), []byte(code), 0644))
	rep, err = a.Analyze(ctx, "")
	require.NoError(t, err)
	require.Len(t, rep.RuleViolations(), 1)
	assert.Equal(t, "fresh", rep.RuleViolations()[0].Function)
	assert.Len(t, rep.Baselined(), 2)

	// Fixing one baselined violation and updating drops its entry.
	fixed := `<?php
class Legacy
{
    public function run($a, $b)
    {
        return $a;
    }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Legacy.php"), []byte(fixed), 0644))
	v, err := a.Validator(path, baseline.ModeUpdate)
	require.NoError(t, err)
	rep, err = a.Run(ctx, "", v)
	require.NoError(t, err)
	set, err = a.SaveBaseline(path, rep)
	require.NoError(t, err)
	assert.Equal(t, []baseline.Entry{{
		RuleClass: `PHPMD\Rule\UnusedFormalParameter`,
		File:      "src/Legacy.php",
		Method:    "run",
	}}, set.Entries())
}

func TestCatalog(t *testing.T) {
	_, a := project(t)

	sets, err := a.Catalog()
	require.NoError(t, err)
	require.Len(t, sets, 6)
	assert.Equal(t, "cleancode", sets[0].ID)
	assert.Contains(t, sets[0].Rules, "ElseExpression")
}

func TestDescribeRule(t *testing.T) {
	_, a := project(t)
	a.Config.MinimumPriority = 1

	info, err := a.DescribeRule("cyclomaticcomplexity")
	require.NoError(t, err)
	assert.Equal(t, "CyclomaticComplexity", info.Name)
	assert.Equal(t, 3, info.Priority)
	assert.Equal(t, "10", info.Properties["reportLevel"])

	_, err = a.DescribeRule("NoSuchRule")
	assert.ErrorIs(t, err, ruleset.ErrRuleNotFound)
}

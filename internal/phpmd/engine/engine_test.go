package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rules"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/ruleset"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func loadRuleSets(t *testing.T, names string) []*ruleset.RuleSet {
	t.Helper()
	sets, err := ruleset.NewFactory(rules.NewRegistry()).CreateRuleSets(names)
	require.NoError(t, err)
	return sets
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestCollectFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"src/A.php":            "<?php",
		"src/B.inc":            "<?php",
		"src/readme.md":        "docs",
		"src/Legacy/Old.php":   "<?php",
		"vendor/lib/Lib.php":   "<?php",
		".git/hooks/hook.php":  "<?php",
		"tests/ATest.php":      "<?php",
		"tests/fixtures/x.PHP": "<?php",
	})

	files, err := New().CollectFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"src/A.php",
		"src/Legacy/Old.php",
		"tests/ATest.php",
		"tests/fixtures/x.PHP",
		"vendor/lib/Lib.php",
	}, relPaths(t, root, files))

	e := New(WithSuffixes(".php", "inc"), WithExclude("vendor", "src/Legacy/*", "**/fixtures/**"))
	files, err = e.CollectFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.php", "src/B.inc", "tests/ATest.php"}, relPaths(t, root, files))
}

func TestCollectFilesCommaSeparated(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a/One.php":   "<?php",
		"b/Two.php":   "<?php",
		"c/Three.php": "<?php",
	})

	inputs := filepath.Join(root, "b") + ", " + filepath.Join(root, "a", "One.php") + "," + filepath.Join(root, "a")
	files, err := New().CollectFiles(inputs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/One.php", "b/Two.php"}, relPaths(t, root, files))
}

func TestCollectFilesErrors(t *testing.T) {
	root := writeFiles(t, map[string]string{"notes.txt": "x"})

	_, err := New().CollectFiles(root)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = New().CollectFiles(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

const unusedCode = `<?php
class Cart
{
    private $unused;
    private $items = [];

    public function add($item, $quantity)
    {
        $this->items[] = $item;
    }
}

function helper($a, $b)
{
    return $a;
}
`

func TestProcess(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"Cart.php":   unusedCode,
		"Broken.php": "<?php\nfunction (\n",
	})

	var out bytes.Buffer
	rep := report.New()
	err := New().Process(context.Background(), root, loadRuleSets(t, "unusedcode"),
		[]renderer.Renderer{renderer.NewText(&out)}, rep)
	require.NoError(t, err)

	vs := rep.RuleViolations()
	require.Len(t, vs, 3)
	assert.Equal(t, "UnusedPrivateField", vs[0].Rule)
	assert.Equal(t, []string{"$unused"}, vs[0].Args)
	assert.Equal(t, 4, vs[0].BeginLine)
	assert.Equal(t, "UnusedFormalParameter", vs[1].Rule)
	assert.Equal(t, []string{"$quantity"}, vs[1].Args)
	assert.Equal(t, "Cart", vs[1].Class)
	assert.Equal(t, "add", vs[1].Method)
	assert.Equal(t, []string{"$b"}, vs[2].Args)
	assert.Equal(t, "helper", vs[2].Function)

	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, filepath.Join(root, "Broken.php"), rep.Errors()[0].File)
	assert.True(t, rep.HasErrors())
	assert.False(t, rep.EndTime().IsZero())

	assert.Contains(t, out.String(), filepath.Join(root, "Cart.php")+":4\tUnusedPrivateField\tAvoid unused private fields such as '$unused'.\n")
	assert.Contains(t, out.String(), filepath.Join(root, "Broken.php")+"\t-\t")
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a/A.php": unusedCode,
		"b/B.php": "<?php\nclass B { public function go() { goto end; end: exit(1); } }\n",
		"c/C.php": "<?php\nfunction f($x) { if ($x) { return 1; } else { return 2; } }\n",
	})
	files, err := New().CollectFiles(root)
	require.NoError(t, err)

	run := func() []report.Violation {
		rep := report.New()
		require.NoError(t, New(WithWorkers(3)).Analyze(context.Background(), files,
			loadRuleSets(t, "unusedcode,design,cleancode"), rep))
		var out []report.Violation
		for _, v := range rep.RuleViolations() {
			out = append(out, *v)
		}
		return out
	}

	first := run()
	require.NotEmpty(t, first)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run())
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	root := writeFiles(t, map[string]string{"A.php": unusedCode})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Analyze(ctx, []string{filepath.Join(root, "A.php")}, nil, report.New())
	assert.ErrorIs(t, err, context.Canceled)
}

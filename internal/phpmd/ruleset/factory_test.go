package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

func testRegistry() *rule.Registry {
	reg := rule.NewRegistry()
	reg.Register(`Test\ClassRule`, func() rule.Rule { return newRecorder("", rule.ClassAware) })
	reg.Register(`Test\MethodRule`, func() rule.Rule { return newRecorder("", rule.MethodAware) })
	reg.Register(`Test\FunctionRule`, func() rule.Rule { return newRecorder("", rule.FunctionAware) })
	return reg
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseSet = `<?xml version="1.0"?>
<ruleset name="base">
    <description> Base rules </description>
    <exclude-pattern>*/vendor/*</exclude-pattern>
    <rule name="A" class="Test\ClassRule" message="a {0}">
        <priority>1</priority>
        <properties>
            <property name="minimum" value=" 10 "/>
            <property name="list"><value>x,y</value></property>
            <property name="blank" value=""/>
        </properties>
    </rule>
    <rule name="B" class="Test\MethodRule" message="b">
        <priority>3</priority>
    </rule>
    <rule name="C" class="Test\FunctionRule" message="c">
        <priority>5</priority>
    </rule>
</ruleset>
`

func names(rs *RuleSet) []string {
	var out []string
	for _, r := range rs.Rules() {
		out = append(out, r.Name())
	}
	return out
}

func TestCreateSingleRuleSetInline(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "base.xml"), baseSet)

	rs, err := NewFactory(testRegistry(), WithWorkDir(dir)).CreateSingleRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, "base", rs.Name())
	assert.Equal(t, "Base rules", rs.Description())
	assert.Equal(t, path, rs.FileName())
	assert.Equal(t, []string{"A", "C", "B"}, names(rs))

	a, err := rs.RuleByName("A")
	require.NoError(t, err)
	meta := a.Meta()
	assert.Equal(t, 1, meta.Priority())
	assert.Equal(t, "a {0}", meta.Message())
	assert.Equal(t, "base", meta.RuleSetName())
	assert.Equal(t, `Test\ClassRule`, meta.ClassName())
	assert.Equal(t, map[string]string{"minimum": "10", "list": "x,y", "blank": ""}, meta.Properties())
}

func TestPriorityWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "base.xml"), baseSet)

	f := NewFactory(testRegistry(), WithMinimumPriority(3), WithMaximumPriority(2))
	rs, err := f.CreateSingleRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(rs))

	for _, r := range rs.Rules() {
		p := r.Meta().Priority()
		assert.True(t, p <= 3 && p >= 2)
	}
}

func TestRuleSetReferenceWithExclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.xml"), baseSet)
	outer := writeFile(t, filepath.Join(dir, "outer.xml"), `<ruleset name="outer">
    <rule ref="base.xml">
        <exclude name="B"/>
    </rule>
</ruleset>`)

	rs, err := NewFactory(testRegistry(), WithWorkDir(dir)).CreateSingleRuleSet(outer)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(rs))
}

func TestSingleRuleReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.xml"), baseSet)
	outer := writeFile(t, filepath.Join(dir, "outer.xml"), `<ruleset name="outer">
    <rule ref="base.xml/B" name="Renamed" message="  ">
        <priority>2</priority>
        <properties>
            <property name="maximum" value="4"/>
        </properties>
    </rule>
    <rule ref="base.xml/B"/>
    <rule ref="base.xml/C">
        <priority>4</priority>
    </rule>
</ruleset>`)

	f := NewFactory(testRegistry(), WithWorkDir(dir), WithMinimumPriority(3))
	rs, err := f.CreateSingleRuleSet(outer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Renamed", "B"}, names(rs))

	renamed, err := rs.RuleByName("Renamed")
	require.NoError(t, err)
	plain, err := rs.RuleByName("B")
	require.NoError(t, err)
	assert.NotSame(t, renamed, plain)
	assert.Equal(t, "b", renamed.Meta().Message())
	assert.Equal(t, 2, renamed.Meta().Priority())
	assert.Equal(t, 3, plain.Meta().Priority())
	assert.Equal(t, map[string]string{"maximum": "4"}, renamed.Meta().Properties())
	assert.Empty(t, plain.Meta().Properties())

	_, err = f.CreateSingleRuleSet(writeFile(t, filepath.Join(dir, "missing.xml"), `<ruleset name="m">
    <rule ref="base.xml/Nope"/>
</ruleset>`))
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestSingleRuleReferenceClearsProperty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.xml"), baseSet)
	outer := writeFile(t, filepath.Join(dir, "outer.xml"), `<ruleset name="outer">
    <rule ref="base.xml/A">
        <properties>
            <property name="minimum" value=""/>
            <property name="" value="ignored"/>
        </properties>
    </rule>
</ruleset>`)

	rs, err := NewFactory(testRegistry(), WithWorkDir(dir)).CreateSingleRuleSet(outer)
	require.NoError(t, err)
	a, err := rs.RuleByName("A")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"minimum": "", "list": "x,y", "blank": ""}, a.Meta().Properties())
}

func TestSearchOrder(t *testing.T) {
	dataDir := t.TempDir()
	workDir := t.TempDir()
	includeDir := t.TempDir()

	writeFile(t, filepath.Join(dataDir, "rulesets", "shared.xml"), `<ruleset name="from-data"/>`)
	writeFile(t, filepath.Join(workDir, "rulesets", "shared.xml"), `<ruleset name="from-cwd"/>`)
	writeFile(t, filepath.Join(workDir, "rulesets", "local.xml"), `<ruleset name="cwd-only"/>`)
	writeFile(t, filepath.Join(includeDir, "extra.xml"), `<ruleset name="from-include"/>`)

	f := NewFactory(testRegistry(), WithDataDir(dataDir), WithWorkDir(workDir), WithIncludePaths(includeDir))

	rs, err := f.CreateSingleRuleSet("shared")
	require.NoError(t, err)
	assert.Equal(t, "from-data", rs.Name())

	rs, err = f.CreateSingleRuleSet("local")
	require.NoError(t, err)
	assert.Equal(t, "cwd-only", rs.Name())

	rs, err = f.CreateSingleRuleSet("extra")
	require.NoError(t, err)
	assert.Equal(t, "from-include", rs.Name())

	_, err = f.CreateSingleRuleSet("nowhere")
	assert.ErrorIs(t, err, ErrRuleSetNotFound)

	sets, err := f.CreateRuleSets("shared, local,shared")
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, "from-data", sets[0].Name())
	assert.Equal(t, "cwd-only", sets[1].Name())
	assert.NotSame(t, sets[0], sets[2])

	listed, err := f.ListAvailableRuleSets()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, listed)
}

func TestIncludePathFromDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib", "base.xml"), baseSet)
	outer := writeFile(t, filepath.Join(dir, "outer.xml"), `<ruleset name="outer">
    <php-includepath>lib</php-includepath>
    <rule ref="base.xml"/>
</ruleset>`)

	f := NewFactory(testRegistry(), WithWorkDir(t.TempDir()))
	rs, err := f.CreateSingleRuleSet(outer)
	require.NoError(t, err)
	assert.Len(t, rs.Rules(), 3)
	assert.Equal(t, []string{filepath.Join(dir, "lib")}, f.IncludePaths())
}

func TestCyclicReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.xml"), `<ruleset name="a"><rule ref="b.xml"/></ruleset>`)
	writeFile(t, filepath.Join(dir, "b.xml"), `<ruleset name="b"><rule ref="a.xml"/></ruleset>`)

	_, err := NewFactory(testRegistry(), WithWorkDir(dir)).CreateSingleRuleSet(filepath.Join(dir, "a.xml"))
	assert.ErrorIs(t, err, ErrCyclicReference)
}

func TestResolutionErrors(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(testRegistry(), WithWorkDir(dir))

	_, err := f.CreateSingleRuleSet(writeFile(t, filepath.Join(dir, "class.xml"),
		`<ruleset name="x"><rule name="X" class="Test\Unknown"/></ruleset>`))
	assert.ErrorIs(t, err, ErrRuleClassNotFound)

	_, err = f.CreateSingleRuleSet(writeFile(t, filepath.Join(dir, "file.xml"),
		`<ruleset name="x"><rule name="X" class="Test\ClassRule" file="Missing.php"/></ruleset>`))
	assert.ErrorIs(t, err, ErrRuleClassFileNotFound)

	_, err = f.CreateSingleRuleSet(writeFile(t, filepath.Join(dir, "broken.xml"), `<ruleset name="x"><rule`))
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, err = f.CreateSingleRuleSet(writeFile(t, filepath.Join(dir, "root.xml"), `<rules/>`))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestIgnorePatternsFirstFileOnly(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "first.xml"), `<ruleset name="f">
    <exclude-pattern> */tests/* </exclude-pattern>
    <exclude-pattern>*.tpl.php</exclude-pattern>
</ruleset>`)
	second := writeFile(t, filepath.Join(dir, "second.xml"), `<ruleset name="s">
    <exclude-pattern>*/cache/*</exclude-pattern>
</ruleset>`)

	patterns, err := NewFactory(testRegistry()).IgnorePatterns(first + "," + second)
	require.NoError(t, err)
	assert.Equal(t, []string{"*/tests/*", "*.tpl.php"}, patterns)
}

func TestYAMLDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.xml"), baseSet)
	path := writeFile(t, filepath.Join(dir, "set.yaml"), `name: yaml rules
description: from yaml
rules:
  - ref: base.xml
    exclude: [A]
  - name: Extra
    class: Test\MethodRule
    message: extra {0}
    priority: 2
    properties:
      minimum: 3
`)

	rs, err := NewFactory(testRegistry(), WithWorkDir(dir)).CreateSingleRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml rules", rs.Name())
	assert.Equal(t, "from yaml", rs.Description())
	assert.Equal(t, []string{"C", "B", "Extra"}, names(rs))

	extra, err := rs.RuleByName("Extra")
	require.NoError(t, err)
	assert.Equal(t, 2, extra.Meta().Priority())
	assert.Equal(t, 3, extra.Meta().IntPropertyDefault("minimum", 0))
}

func TestBuiltinRuleSets(t *testing.T) {
	f := NewFactory(rule.NewRegistry(), WithWorkDir(t.TempDir()))
	listed, err := f.ListAvailableRuleSets()
	require.NoError(t, err)
	assert.Equal(t, []string{"cleancode", "codesize", "controversial", "design", "naming", "unusedcode"}, listed)

	patterns, err := f.IgnorePatterns("unusedcode")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

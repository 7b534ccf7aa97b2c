package rule

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

type methodRule struct {
	Base
	seen []string
}

func (r *methodRule) Accepts() Capability { return MethodAware | FunctionAware }
func (r *methodRule) Apply(n *node.Node) {
	r.seen = append(r.seen, n.Name())
	r.AddViolation(n, n.Name(), 3)
}

func parse(t *testing.T, code string) *node.Node {
	t.Helper()
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(code))
	require.NoError(t, err)
	return node.Wrap(tree.RootNode(), &node.Source{Path: "a.php", Content: []byte(code)}, nil)
}

func TestCapability(t *testing.T) {
	c := ClassAware | MethodAware
	assert.True(t, c.Has(ClassAware))
	assert.False(t, c.Has(TraitAware))
	assert.Equal(t, MethodAware, ForVariant(node.VariantMethod))
	assert.Equal(t, EnumAware, ForVariant(node.VariantEnum))
	assert.Equal(t, Capability(0), ForVariant(node.VariantNone))
	assert.Len(t, Order, 6)
}

func TestProperties(t *testing.T) {
	var b Base
	b.SetName("Sample")
	b.AddProperty("minimum", " 10 ")
	b.AddProperty("flag", "on")
	b.AddProperty("off", "no")
	b.AddProperty("list", "a, b,,c ")
	b.AddProperty("broken", "ten")

	v, err := b.IntProperty("minimum")
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = b.IntProperty("maximum")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.Equal(t, 7, b.IntPropertyDefault("maximum", 7))
	assert.Equal(t, 3, b.IntPropertyDefault("broken", 3))

	assert.True(t, b.BoolPropertyDefault("flag", false))
	assert.False(t, b.BoolPropertyDefault("off", true))
	assert.True(t, b.BoolPropertyDefault("missing", true))

	list, err := b.StringListProperty("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	assert.Equal(t, LowestPriority, b.Priority())
	b.SetPriority(2)
	assert.Equal(t, 2, b.Priority())
}

func TestAddViolation(t *testing.T) {
	root := parse(t, "<?php\nnamespace Shop;\nclass Cart {\n  function total($x) {\n    return $x;\n  }\n}\n")
	method := root.FirstChildOfType("method_declaration")
	require.NotNil(t, method)

	r := &methodRule{}
	r.SetName("Sample")
	r.SetRuleSetName("Test Rules")
	r.SetMessage("Method {0} has {1} issues, {0}!")

	// no report attached
	r.Apply(method)

	rep := report.New()
	r.SetReport(rep)
	r.Apply(method)

	vs := rep.RuleViolations()
	require.Len(t, vs, 1)
	v := vs[0]
	assert.Equal(t, "Method total has 3 issues, total!", v.Description)
	assert.Equal(t, []string{"total", "3"}, v.Args)
	assert.Equal(t, "Sample", v.Rule)
	assert.Equal(t, "Test Rules", v.RuleSet)
	assert.Equal(t, "Shop", v.Namespace)
	assert.Equal(t, "Cart", v.Class)
	assert.Equal(t, "total", v.Method)
	assert.Equal(t, 4, v.BeginLine)
	assert.Equal(t, 6, v.EndLine)
	assert.Nil(t, v.Metric)

	r.AddMetricViolation(method.FirstChildOfType("return_statement"), 12.5, "x", 1)
	vs = rep.RuleViolations()
	require.Len(t, vs, 2)
	require.NotNil(t, vs[1].Metric)
	assert.Equal(t, 12.5, *vs[1].Metric)
	assert.Equal(t, "total", vs[1].Method)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(`\PHPMD\Rule\Sample`, func() Rule { return &methodRule{} })

	assert.True(t, reg.Has(`PHPMD\Rule\Sample`))
	assert.True(t, reg.Has("PHPMD_Rule_Sample"))
	assert.Equal(t, []string{`PHPMD\Rule\Sample`}, reg.Classes())

	r1, err := reg.New(`PHPMD\Rule\Sample`)
	require.NoError(t, err)
	assert.Equal(t, "Sample", r1.Name())
	assert.Equal(t, `PHPMD\Rule\Sample`, r1.ClassName())

	r2, err := reg.New(`PHPMD\Rule\Sample`)
	require.NoError(t, err)
	assert.NotSame(t, r1, r2)

	_, err = reg.New(`PHPMD\Rule\Missing`)
	assert.ErrorIs(t, err, ErrRuleClassNotFound)
}

package rules

import (
	"slices"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/metrics"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// ExitExpression reports exit and die inside callables.
type ExitExpression struct {
	rule.Base
}

func (r *ExitExpression) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *ExitExpression) Apply(n *node.Node) {
	body := n.Body()
	if body == nil {
		return
	}
	body.Walk(func(c *node.Node) bool {
		switch c.Type() {
		case "exit_statement":
			r.AddViolation(c, n.Variant(), n.Name())
		case "function_call_expression":
			if fn := calledFunction(c); fn == "exit" || fn == "die" {
				r.AddViolation(c, n.Variant(), n.Name())
			}
		}
		return true
	})
}

// GotoStatement reports goto inside callables.
type GotoStatement struct {
	rule.Base
}

func (r *GotoStatement) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *GotoStatement) Apply(n *node.Node) {
	for _, g := range n.FindChildrenOfType("goto_statement") {
		r.AddViolation(g, n.Variant(), n.Name())
	}
}

// DepthOfInheritance reports deep class hierarchies. A configured maximum
// is exclusive; the legacy minimum property is inclusive.
type DepthOfInheritance struct {
	rule.Base
}

func (r *DepthOfInheritance) Accepts() rule.Capability { return rule.ClassAware }

func (r *DepthOfInheritance) Apply(n *node.Node) {
	dit := metric(n, metrics.DIT)
	threshold, err := r.IntProperty("maximum")
	if err == nil {
		if dit > float64(threshold) {
			r.AddMetricViolation(n, dit, n.Variant(), n.Name(), dit, threshold)
		}
		return
	}
	threshold, err = r.IntProperty("minimum")
	if err != nil {
		return
	}
	if dit >= float64(threshold) {
		r.AddMetricViolation(n, dit, n.Variant(), n.Name(), dit, threshold)
	}
}

// NumberOfChildren reports classes with at least minimum direct subclasses.
type NumberOfChildren struct {
	rule.Base
}

func (r *NumberOfChildren) Accepts() rule.Capability { return rule.ClassAware }

func (r *NumberOfChildren) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 15)
	nocc := metric(n, metrics.NOCC)
	if nocc < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, nocc, n.Variant(), n.Name(), nocc, threshold)
}

// CouplingBetweenObjects reports classes depending on more than maximum
// other types.
type CouplingBetweenObjects struct {
	rule.Base
}

func (r *CouplingBetweenObjects) Accepts() rule.Capability { return rule.ClassAware }

func (r *CouplingBetweenObjects) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("maximum", 13)
	cbo := metric(n, metrics.CBO)
	if cbo <= float64(threshold) {
		return
	}
	r.AddMetricViolation(n, cbo, n.Name(), cbo, threshold)
}

// EmptyCatchBlock reports catch clauses without statements.
type EmptyCatchBlock struct {
	rule.Base
}

func (r *EmptyCatchBlock) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *EmptyCatchBlock) Apply(n *node.Node) {
	allowComments := r.BoolPropertyDefault("allow-commented-blocks", false)
	for _, c := range n.FindChildrenOfType("catch_clause") {
		body := c.Field("body")
		if body == nil || body.ChildCount() > 0 {
			continue
		}
		if allowComments && len(body.Comments()) > 0 {
			continue
		}
		r.AddViolation(c, n.Name())
	}
}

// DevelopmentCodeFragment reports calls to debugging functions.
type DevelopmentCodeFragment struct {
	rule.Base
}

func (r *DevelopmentCodeFragment) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *DevelopmentCodeFragment) Apply(n *node.Node) {
	unwanted := r.StringListPropertyDefault("unwanted-functions",
		[]string{"var_dump", "print_r", "debug_zval_dump", "debug_print_backtrace"})
	for i, fn := range unwanted {
		unwanted[i] = strings.ToLower(fn)
	}
	ignoreNamespaces := r.BoolPropertyDefault("ignore-namespaces", false)

	for _, call := range n.FindChildrenOfType("function_call_expression") {
		fn := calledFunction(call)
		if ignoreNamespaces {
			fn = fn[strings.LastIndex(fn, `\`)+1:]
		}
		if fn != "" && slices.Contains(unwanted, fn) {
			r.AddViolation(call, n.Variant(), n.Name(), fn)
		}
	}
}

package rules

import (
	"slices"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// BooleanArgumentFlag reports parameters defaulting to true or false.
type BooleanArgumentFlag struct {
	rule.Base
}

func (r *BooleanArgumentFlag) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *BooleanArgumentFlag) Apply(n *node.Node) {
	exceptions := r.StringListPropertyDefault("exceptions", nil)
	if n.Variant() == node.VariantMethod && slices.Contains(exceptions, n.ParentName()) {
		return
	}
	label := n.Name()
	if n.Variant() == node.VariantMethod {
		label = n.ParentName() + "::" + n.Name()
	}
	for _, p := range n.Parameters() {
		def := p.Field("default_value")
		if def == nil {
			continue
		}
		switch strings.ToLower(def.Image()) {
		case "true", "false":
			r.AddViolation(p, label, paramName(p))
		}
	}
}

// ElseExpression reports else branches. An else that only wraps another if
// is treated like elseif and allowed.
type ElseExpression struct {
	rule.Base
}

func (r *ElseExpression) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *ElseExpression) Apply(n *node.Node) {
	for _, e := range n.FindChildrenOfType("else_clause") {
		body := e.Field("body")
		if body == nil && e.ChildCount() > 0 {
			body = e.Child(0)
		}
		if body != nil && body.Type() == "if_statement" {
			continue
		}
		r.AddViolation(e, n.Name())
	}
}

// StaticAccess reports static method calls on other classes.
type StaticAccess struct {
	rule.Base
}

func (r *StaticAccess) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *StaticAccess) Apply(n *node.Node) {
	exceptions := r.StringListPropertyDefault("exceptions", nil)
	ignore := optionalPattern(r.StringPropertyDefault("ignorepattern", ""))

	for _, call := range n.FindChildrenOfType("scoped_call_expression") {
		scope := scopeOf(call)
		if scope == nil {
			continue
		}
		switch scope.Type() {
		case "name", "qualified_name":
		default:
			continue
		}
		class := strings.TrimPrefix(scope.Image(), `\`)
		switch strings.ToLower(class) {
		case "self", "static", "parent":
			continue
		}
		if slices.Contains(exceptions, class) {
			continue
		}
		if ignore != nil && ignore.MatchString(memberName(call)) {
			continue
		}
		r.AddViolation(call, class, n.Name())
	}
}

package rules

import (
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// UnusedFormalParameter reports parameters a callable body never reads.
type UnusedFormalParameter struct {
	rule.Base
}

// Methods whose signature is dictated by PHP rather than the author.
var fixedSignatureMethods = map[string]bool{
	"__call": true, "__callstatic": true, "__get": true, "__set": true,
	"__isset": true, "__unset": true, "__set_state": true,
}

func (r *UnusedFormalParameter) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *UnusedFormalParameter) Apply(n *node.Node) {
	body := n.Body()
	if body == nil || n.IsAbstract() {
		return
	}
	if n.Variant() == node.VariantMethod {
		if fixedSignatureMethods[strings.ToLower(n.Name())] {
			return
		}
		if !r.Strict() && strings.Contains(strings.ToLower(n.DocComment()), "@inheritdoc") {
			return
		}
	}

	unused := make(map[string]bool)
	for _, p := range n.Parameters() {
		if p.Type() == "property_promotion_parameter" {
			continue
		}
		unused[paramName(p)] = true
	}
	if len(unused) == 0 {
		return
	}

	for _, call := range body.FindChildrenOfType("function_call_expression") {
		switch calledFunction(call) {
		case "func_get_args":
			return
		case "compact":
			for _, kind := range []string{"string", "encapsed_string"} {
				for _, s := range call.FindChildrenOfType(kind) {
					delete(unused, "$"+strings.Trim(s.Image(), `'"`))
				}
			}
		}
	}
	for _, v := range body.FindChildrenOfTypeVariable() {
		delete(unused, v.Image())
	}

	for _, p := range n.Parameters() {
		if name := paramName(p); unused[name] {
			r.AddViolation(p, name)
		}
	}
}

// UnusedPrivateField reports private properties never accessed through
// $this, self or static.
type UnusedPrivateField struct {
	rule.Base
}

func (r *UnusedPrivateField) Accepts() rule.Capability { return rule.ClassAware }

func (r *UnusedPrivateField) Apply(n *node.Node) {
	body := n.Body()
	if body == nil {
		return
	}
	type field struct {
		node *node.Node
		name string
	}
	var fields []field
	for _, decl := range body.Children() {
		if decl.Type() != "property_declaration" || decl.Visibility() != "private" {
			continue
		}
		for _, el := range decl.FindChildrenOfType("property_element") {
			if v := el.FirstChildOfType("variable_name"); v != nil {
				fields = append(fields, field{v, strings.TrimPrefix(v.Image(), "$")})
			}
		}
	}
	if len(fields) == 0 {
		return
	}

	used := make(map[string]bool)
	body.Walk(func(c *node.Node) bool {
		switch c.Type() {
		case "member_access_expression", "nullsafe_member_access_expression":
			if isThis(objectOf(c)) {
				if name := memberName(c); name != "" {
					used[name] = true
				}
			}
		case "scoped_property_access_expression":
			if isOwnScope(scopeOf(c), n.Name()) {
				if name := c.Field("name"); name != nil {
					used[strings.TrimPrefix(name.Image(), "$")] = true
				} else if vs := c.FindChildrenOfTypeVariable(); len(vs) > 0 {
					used[strings.TrimPrefix(vs[0].Image(), "$")] = true
				}
			}
		}
		return true
	})

	for _, f := range fields {
		if !used[f.name] {
			r.AddViolation(f.node, "$"+f.name)
		}
	}
}

// UnusedPrivateMethod reports private methods that are never invoked from
// another method of the same class.
type UnusedPrivateMethod struct {
	rule.Base
}

func (r *UnusedPrivateMethod) Accepts() rule.Capability { return rule.ClassAware }

func (r *UnusedPrivateMethod) Apply(n *node.Node) {
	var private []*node.Node
	for _, m := range n.Methods() {
		if m.Visibility() == "private" && !strings.HasPrefix(m.Name(), "__") {
			private = append(private, m)
		}
	}
	if len(private) == 0 {
		return
	}

	called := make(map[string]bool)
	for _, m := range n.Methods() {
		self := strings.ToLower(m.Name())
		m.Walk(func(c *node.Node) bool {
			var name string
			switch c.Type() {
			case "member_call_expression", "nullsafe_member_call_expression":
				if isThis(objectOf(c)) {
					name = memberName(c)
				}
			case "scoped_call_expression":
				if isOwnScope(scopeOf(c), n.Name()) {
					name = memberName(c)
				}
			}
			if name = strings.ToLower(name); name != "" && name != self {
				called[name] = true
			}
			return true
		})
	}

	for _, m := range private {
		if !called[strings.ToLower(m.Name())] {
			r.AddViolation(m, m.Name())
		}
	}
}

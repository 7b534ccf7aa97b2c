package rules

import (
	"slices"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// ShortMethodName reports method and function names shorter than minimum.
type ShortMethodName struct {
	rule.Base
}

func (r *ShortMethodName) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *ShortMethodName) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 3)
	name := n.Name()
	if len(name) >= threshold {
		return
	}
	if slices.Contains(r.StringListPropertyDefault("exceptions", nil), name) {
		return
	}
	owner := n.ParentName()
	if n.Variant() == node.VariantFunction {
		owner = n.NamespaceName()
	}
	r.AddViolation(n, owner, name, threshold)
}

// ConstructorWithNameAsEnclosingClass reports PHP 4 style constructors.
type ConstructorWithNameAsEnclosingClass struct {
	rule.Base
}

func (r *ConstructorWithNameAsEnclosingClass) Accepts() rule.Capability { return rule.MethodAware }

func (r *ConstructorWithNameAsEnclosingClass) Apply(n *node.Node) {
	parent := n.ParentType()
	if parent == nil || parent.Variant() != node.VariantClass {
		return
	}
	if !strings.EqualFold(n.Name(), parent.Name()) {
		return
	}
	// Inside a namespace a method named like its class is an ordinary method.
	if n.NamespaceName() != "" {
		return
	}
	r.AddViolation(n)
}

// ConstantNamingConventions reports class and interface constants that are
// not upper case.
type ConstantNamingConventions struct {
	rule.Base
}

func (r *ConstantNamingConventions) Accepts() rule.Capability {
	return rule.ClassAware | rule.InterfaceAware
}

func (r *ConstantNamingConventions) Apply(n *node.Node) {
	body := n.Body()
	if body == nil {
		return
	}
	for _, decl := range body.Children() {
		if decl.Type() != "const_declaration" {
			continue
		}
		for _, el := range decl.FindChildrenOfType("const_element") {
			if el.ChildCount() == 0 {
				continue
			}
			name := el.Child(0).Image()
			if name != strings.ToUpper(name) {
				r.AddViolation(el, name)
			}
		}
	}
}

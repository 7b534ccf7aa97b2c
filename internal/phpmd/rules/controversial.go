package rules

import (
	"regexp"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

var superglobals = map[string]bool{
	"$GLOBALS": true, "$_SERVER": true, "$_GET": true, "$_POST": true,
	"$_FILES": true, "$_COOKIE": true, "$_SESSION": true, "$_REQUEST": true,
	"$_ENV": true,
}

// Superglobals reports direct access to PHP super-global variables.
type Superglobals struct {
	rule.Base
}

func (r *Superglobals) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *Superglobals) Apply(n *node.Node) {
	for _, v := range n.FindChildrenOfTypeVariable() {
		if superglobals[v.Image()] {
			r.AddViolation(n, n.Name(), v.Image())
		}
	}
}

var (
	camelClass       = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	strictCamelClass = regexp.MustCompile(`^[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]+)*[A-Z]?$`)

	camelMethod           = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	camelMethodUnderscore = regexp.MustCompile(`^_?[a-z][a-zA-Z0-9]*$`)
	strictCamelMethod     = regexp.MustCompile(`^[a-z][a-z0-9]*(?:[A-Z][a-z0-9]+)*[A-Z]?$`)
	camelTestMethod       = regexp.MustCompile(`^test[a-zA-Z0-9]*(?:_[a-z][a-zA-Z0-9]*)*$`)
)

// CamelCaseClassName reports type names not written in CamelCase. With
// camelcase-abbreviations enabled consecutive capitals are rejected.
type CamelCaseClassName struct {
	rule.Base
}

func (r *CamelCaseClassName) Accepts() rule.Capability {
	return rule.ClassAware | rule.InterfaceAware | rule.TraitAware | rule.EnumAware
}

func (r *CamelCaseClassName) Apply(n *node.Node) {
	re := camelClass
	if r.BoolPropertyDefault("camelcase-abbreviations", false) {
		re = strictCamelClass
	}
	if !re.MatchString(n.Name()) {
		r.AddViolation(n, n.Name())
	}
}

// CamelCaseMethodName reports method names not written in camelCase.
type CamelCaseMethodName struct {
	rule.Base
}

func (r *CamelCaseMethodName) Accepts() rule.Capability { return rule.MethodAware }

func (r *CamelCaseMethodName) Apply(n *node.Node) {
	name := n.Name()
	if isMagic(name) {
		return
	}
	re := camelMethod
	switch {
	case r.BoolPropertyDefault("allow-underscore-test", false) && strings.HasPrefix(name, "test"):
		re = camelTestMethod
	case r.BoolPropertyDefault("camelcase-abbreviations", false):
		re = strictCamelMethod
	case r.BoolPropertyDefault("allow-underscore", false):
		re = camelMethodUnderscore
	}
	if !re.MatchString(name) {
		r.AddViolation(n, name)
	}
}

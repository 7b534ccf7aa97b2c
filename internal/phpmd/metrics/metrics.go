// Package metrics computes the size, complexity and coupling metrics rules
// read from nodes.
package metrics

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/hierarchy"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
)

// Metric names.
const (
	CCN2 = "ccn2" // extended cyclomatic complexity
	LOC  = "loc"  // lines of code
	ELOC = "eloc" // executable lines of code
	NOP  = "nop"  // number of parameters
	NOM  = "nom"  // number of methods
	WMC  = "wmc"  // weighted method count
	CIS  = "cis"  // class interface size
	VARS = "vars" // number of properties
	CBO  = "cbo"  // coupling between objects
	DIT  = "dit"  // depth of inheritance tree
	NOCC = "nocc" // number of child classes
)

var decisionPoints = map[string]bool{
	"if_statement":                 true,
	"else_if_clause":               true,
	"while_statement":              true,
	"do_statement":                 true,
	"for_statement":                true,
	"foreach_statement":            true,
	"case_statement":               true,
	"catch_clause":                 true,
	"conditional_expression":       true,
	"match_conditional_expression": true,
}

var booleanOperators = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true, "xor": true,
}

// Compute attaches the metrics of n. Callables get ccn2, loc, eloc and nop;
// types get loc, eloc, nom, wmc, cis, vars, cbo, dit and nocc. The graph may
// be nil, in which case dit and nocc are zero.
func Compute(n *node.Node, g *hierarchy.Graph) {
	switch v := n.Variant(); {
	case v.IsCallable():
		n.SetMetrics(Callable(n))
	case v.IsType():
		n.SetMetrics(Type(n, g))
	}
}

// Callable returns the metrics of a method or function.
func Callable(n *node.Node) map[string]float64 {
	return map[string]float64{
		CCN2: float64(Complexity(n)),
		LOC:  float64(n.EndLine() - n.BeginLine() + 1),
		ELOC: float64(ExecutableLines(n)),
		NOP:  float64(len(n.Parameters())),
	}
}

// Type returns the metrics of a class, interface, trait or enum.
func Type(n *node.Node, g *hierarchy.Graph) map[string]float64 {
	m := map[string]float64{
		LOC:  float64(n.EndLine() - n.BeginLine() + 1),
		ELOC: float64(ExecutableLines(n)),
	}
	methods := n.Methods()
	wmc, publics := 0, 0
	for _, method := range methods {
		wmc += Complexity(method)
		if method.Visibility() == "public" {
			publics++
		}
	}
	fields, publicFields := properties(n)
	m[NOM] = float64(len(methods))
	m[WMC] = float64(wmc)
	m[VARS] = float64(fields)
	m[CIS] = float64(publics + publicFields)
	m[CBO] = float64(len(Dependencies(n)))
	if g != nil {
		id := n.FullQualifiedName()
		if n.Variant() == node.VariantClass {
			m[DIT] = float64(g.Depth(id))
		} else {
			m[DIT] = 0
		}
		m[NOCC] = float64(g.Children(id))
	} else {
		m[DIT], m[NOCC] = 0, 0
	}
	return m
}

// Complexity is 1 plus the number of decision points and boolean operators.
func Complexity(n *node.Node) int {
	ccn := 1
	n.Walk(func(c *node.Node) bool {
		if decisionPoints[c.Type()] {
			ccn++
		}
		if c.Type() == "binary_expression" {
			if op := c.Field("operator"); op != nil && booleanOperators[strings.ToLower(op.Image())] {
				ccn++
			} else if op == nil && hasBooleanOperator(c) {
				ccn++
			}
		}
		return true
	})
	return ccn
}

// hasBooleanOperator inspects the anonymous operator token of grammars that
// do not expose it as a field.
func hasBooleanOperator(n *node.Node) bool {
	raw := n.Raw()
	for i := 0; i < int(raw.ChildCount()); i++ {
		c := raw.Child(i)
		if c != nil && !c.IsNamed() && booleanOperators[strings.ToLower(c.Type())] {
			return true
		}
	}
	return false
}

// ExecutableLines counts the lines of n holding at least one non-comment token.
func ExecutableLines(n *node.Node) int {
	lines := make(map[uint32]bool)
	var visit func(*sitter.Node)
	visit = func(raw *sitter.Node) {
		if raw.Type() == "comment" {
			return
		}
		if raw.ChildCount() == 0 {
			for row := raw.StartPoint().Row; row <= raw.EndPoint().Row; row++ {
				lines[row] = true
			}
			return
		}
		for i := 0; i < int(raw.ChildCount()); i++ {
			if c := raw.Child(i); c != nil {
				visit(c)
			}
		}
	}
	visit(n.Raw())
	return len(lines)
}

// properties counts declared and constructor-promoted properties.
func properties(n *node.Node) (total, public int) {
	body := n.Body()
	if body == nil {
		return 0, 0
	}
	for _, c := range body.Children() {
		switch c.Type() {
		case "property_declaration":
			elems := len(c.FindChildrenOfType("property_element"))
			total += elems
			if c.Visibility() == "public" {
				public += elems
			}
		case "method_declaration":
			if !strings.EqualFold(c.Name(), "__construct") {
				continue
			}
			for _, p := range c.Parameters() {
				if p.Type() != "property_promotion_parameter" {
					continue
				}
				total++
				if p.Visibility() == "public" {
					public++
				}
			}
		}
	}
	return total, public
}

var builtinTypes = map[string]bool{
	"self": true, "static": true, "parent": true,
	"array": true, "callable": true, "iterable": true, "object": true, "mixed": true,
	"bool": true, "int": true, "float": true, "string": true, "void": true,
	"null": true, "never": true, "false": true, "true": true,
}

// Dependencies returns the distinct, lower-cased class names a type refers
// to through type hints, catch clauses, instantiation and static access.
func Dependencies(n *node.Node) []string {
	own := strings.ToLower(n.Name())
	seen := make(map[string]bool)
	var out []string
	add := func(ref *node.Node) {
		if ref == nil {
			return
		}
		switch ref.Type() {
		case "name", "qualified_name", "named_type":
		default:
			return
		}
		name := strings.ToLower(strings.TrimPrefix(ref.Image(), `\`))
		if name == "" || name == own || builtinTypes[name] || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	n.Walk(func(c *node.Node) bool {
		switch c.Type() {
		case "named_type":
			add(c)
			return false
		case "object_creation_expression":
			for _, k := range c.Children() {
				add(k)
			}
		case "scoped_call_expression", "scoped_property_access_expression", "class_constant_access_expression":
			if scope := c.Field("scope"); scope != nil {
				add(scope)
			} else if c.ChildCount() > 0 {
				add(c.Child(0))
			}
		case "catch_clause":
			if typ := c.Field("type"); typ != nil {
				add(typ)
			}
		}
		return true
	})
	return out
}

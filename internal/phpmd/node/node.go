// Package node wraps tree-sitter PHP syntax nodes behind the API rules query.
// Rules only ever see *Node; the raw parser node stays reachable through Raw
// for adapters but no rule body touches it.
package node

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrOutOfBounds is the panic value (wrapped) raised by Child for an invalid index.
var ErrOutOfBounds = errors.New("child index out of bounds")

// Variant is the artifact kind a Node represents.
type Variant int

const (
	VariantNone Variant = iota
	VariantClass
	VariantInterface
	VariantTrait
	VariantEnum
	VariantMethod
	VariantFunction
)

var variantNames = [...]string{"node", "class", "interface", "trait", "enum", "method", "function"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "unknown"
	}
	return variantNames[v]
}

// IsType reports whether v is a class-like declaration.
func (v Variant) IsType() bool {
	return v == VariantClass || v == VariantInterface || v == VariantTrait || v == VariantEnum
}

// IsCallable reports whether v is a method or a function.
func (v Variant) IsCallable() bool {
	return v == VariantMethod || v == VariantFunction
}

var declarationVariants = map[string]Variant{
	"class_declaration":     VariantClass,
	"interface_declaration": VariantInterface,
	"trait_declaration":     VariantTrait,
	"enum_declaration":      VariantEnum,
	"method_declaration":    VariantMethod,
	"function_definition":   VariantFunction,
}

// Source is the file a tree was parsed from.
type Source struct {
	Path    string
	Content []byte
}

// Node is one wrapped syntax element. The parent link is a back reference;
// ownership flows from the tree root down.
type Node struct {
	raw     *sitter.Node
	src     *Source
	parent  *Node
	variant Variant

	metrics    map[string]float64
	metricsSet bool

	annotations       []Annotation
	annotationsParsed bool
}

// Wrap wraps raw. Declarations (classes, interfaces, traits, enums, methods
// and functions) become artifacts of the matching variant.
func Wrap(raw *sitter.Node, src *Source, parent *Node) *Node {
	if raw == nil {
		return nil
	}
	return &Node{
		raw:     raw,
		src:     src,
		parent:  parent,
		variant: declarationVariants[raw.Type()],
	}
}

func (n *Node) Raw() *sitter.Node { return n.raw }
func (n *Node) Source() *Source { return n.src }
func (n *Node) Variant() Variant { return n.variant }

// Type returns the structural kind of the node, e.g. "function_call_expression".
func (n *Node) Type() string { return n.raw.Type() }

// Image returns the source text covered by the node.
func (n *Node) Image() string { return n.raw.Content(n.src.Content) }

// Name returns the declared name of an artifact, or the image of any other node.
func (n *Node) Name() string {
	if n.variant != VariantNone {
		if name := n.raw.ChildByFieldName("name"); name != nil {
			return name.Content(n.src.Content)
		}
	}
	return n.Image()
}

func (n *Node) FileName() string { return n.src.Path }
func (n *Node) BeginLine() int { return int(n.raw.StartPoint().Row) + 1 }
func (n *Node) EndLine() int { return int(n.raw.EndPoint().Row) + 1 }
func (n *Node) BeginColumn() int { return int(n.raw.StartPoint().Column) + 1 }
func (n *Node) EndColumn() int { return int(n.raw.EndPoint().Column) + 1 }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) HasSyntaxError() bool { return n.raw.HasError() }

// Root returns the top-most wrapped ancestor.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Node) namedChildren() []*sitter.Node {
	count := int(n.raw.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.raw.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Children returns the named, non-comment children.
func (n *Node) Children() []*Node {
	raws := n.namedChildren()
	out := make([]*Node, len(raws))
	for i, c := range raws {
		out[i] = Wrap(c, n.src, n)
	}
	return out
}

func (n *Node) ChildCount() int { return len(n.namedChildren()) }

// Comments returns the comment nodes directly inside n.
func (n *Node) Comments() []*Node {
	var out []*Node
	for i := 0; i < int(n.raw.NamedChildCount()); i++ {
		if c := n.raw.NamedChild(i); c != nil && c.Type() == "comment" {
			out = append(out, Wrap(c, n.src, n))
		}
	}
	return out
}

// Child returns the i-th named child. Callers must have checked ChildCount;
// an invalid index panics with an error wrapping ErrOutOfBounds.
func (n *Node) Child(i int) *Node {
	raws := n.namedChildren()
	if i < 0 || i >= len(raws) {
		panic(fmt.Errorf("%w: index %d on %s with %d children", ErrOutOfBounds, i, n.Type(), len(raws)))
	}
	return Wrap(raws[i], n.src, n)
}

// Field returns the child stored under a grammar field name, or nil.
func (n *Node) Field(name string) *Node {
	return Wrap(n.raw.ChildByFieldName(name), n.src, n)
}

// Walk visits every descendant in pre-order. Returning false from fn skips
// the visited node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, c := range n.Children() {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// FindChildrenOfType returns all descendants of the given kind in pre-order.
func (n *Node) FindChildrenOfType(kind string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Type() == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindChildrenOfTypeVariable is FindChildrenOfType for variable names.
func (n *Node) FindChildrenOfTypeVariable() []*Node {
	return n.FindChildrenOfType("variable_name")
}

// FirstChildOfType returns the first descendant of the given kind, or nil.
func (n *Node) FirstChildOfType(kind string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Type() == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

// ParentOfType returns the nearest ancestor of the given kind, or nil.
func (n *Node) ParentOfType(kind string) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Type() == kind {
			return p
		}
	}
	return nil
}

// ParentOfVariant returns the nearest ancestor artifact of variant v, or nil.
func (n *Node) ParentOfVariant(v Variant) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.variant == v {
			return p
		}
	}
	return nil
}

// SetMetrics attaches metrics. Only the first call has an effect.
func (n *Node) SetMetrics(metrics map[string]float64) {
	if n.metricsSet {
		return
	}
	n.metricsSet = true
	n.metrics = make(map[string]float64, len(metrics))
	for k, v := range metrics {
		n.metrics[k] = v
	}
}

// Metric returns a previously attached metric value.
func (n *Node) Metric(name string) (float64, bool) {
	v, ok := n.metrics[name]
	return v, ok
}

// Body returns the declaration list of a type or the statement block of a callable.
func (n *Node) Body() *Node {
	return n.Field("body")
}

// Methods returns the methods declared in a type body.
func (n *Node) Methods() []*Node {
	if !n.variant.IsType() {
		return nil
	}
	body := n.Body()
	if body == nil {
		return nil
	}
	var out []*Node
	for _, c := range body.Children() {
		if c.variant == VariantMethod {
			out = append(out, c)
		}
	}
	return out
}

// Parameters returns the formal parameters of a callable.
func (n *Node) Parameters() []*Node {
	params := n.Field("parameters")
	if params == nil {
		return nil
	}
	var out []*Node
	for _, c := range params.Children() {
		switch c.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
			out = append(out, c)
		}
	}
	return out
}

// HasModifier reports whether a direct modifier child spells word
// (case-insensitive), e.g. "private", "abstract", "static".
func (n *Node) HasModifier(word string) bool {
	for i := 0; i < int(n.raw.ChildCount()); i++ {
		c := n.raw.Child(i)
		if c == nil || !strings.HasSuffix(c.Type(), "_modifier") {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(c.Content(n.src.Content)), word) {
			return true
		}
	}
	return false
}

// Visibility returns private, protected or public (the default).
func (n *Node) Visibility() string {
	for _, v := range []string{"private", "protected"} {
		if n.HasModifier(v) {
			return v
		}
	}
	return "public"
}

// IsAbstract reports abstract declarations, including body-less interface methods.
func (n *Node) IsAbstract() bool {
	if n.HasModifier("abstract") {
		return true
	}
	return n.variant == VariantMethod && n.Body() == nil
}

// ParentType returns the class, interface, trait or enum enclosing n.
func (n *Node) ParentType() *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.variant.IsType() {
			return p
		}
	}
	return nil
}

// ParentName returns the name of the enclosing type, or "".
func (n *Node) ParentName() string {
	if t := n.ParentType(); t != nil {
		return t.Name()
	}
	return ""
}

// NamespaceName resolves the namespace n is declared in, handling both the
// braced and the statement form of namespace declarations.
func (n *Node) NamespaceName() string {
	for p := n.parent; p != nil; p = p.parent {
		if p.Type() == "namespace_definition" {
			if name := p.Field("name"); name != nil {
				return name.Image()
			}
			return ""
		}
	}
	root := n.Root()
	start := n.raw.StartByte()
	ns := ""
	for _, c := range root.Children() {
		if c.raw.StartByte() > start {
			break
		}
		if c.Type() != "namespace_definition" || c.Field("body") != nil {
			continue
		}
		ns = ""
		if name := c.Field("name"); name != nil {
			ns = name.Image()
		}
	}
	return ns
}

// FullQualifiedName renders Ns\Class, Ns\Class::method() or Ns\function().
func (n *Node) FullQualifiedName() string {
	switch {
	case n.variant.IsType():
		return qualify(n.NamespaceName(), n.Name())
	case n.variant == VariantMethod:
		if t := n.ParentType(); t != nil {
			return t.FullQualifiedName() + "::" + n.Name() + "()"
		}
		return n.Name() + "()"
	case n.variant == VariantFunction:
		return qualify(n.NamespaceName(), n.Name()) + "()"
	}
	return n.Image()
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + `\` + name
}

// DocComment returns the /** */ comment immediately preceding a declaration.
func (n *Node) DocComment() string {
	prev := n.raw.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := prev.Content(n.src.Content)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

// HasSuppressWarningsAnnotationFor reports whether the doc comment of n (or of
// the type enclosing a method) carries a @SuppressWarnings naming r.
func (n *Node) HasSuppressWarningsAnnotationFor(r RuleIdentity) bool {
	if n.variant == VariantNone {
		return false
	}
	if !n.annotationsParsed {
		n.annotations = ParseAnnotations(n.DocComment())
		n.annotationsParsed = true
	}
	for _, a := range n.annotations {
		if a.Suppresses(r) {
			return true
		}
	}
	if n.variant == VariantMethod {
		if t := n.ParentType(); t != nil {
			return t.HasSuppressWarningsAnnotationFor(r)
		}
	}
	return false
}

package hierarchy

import (
	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/parser"
)

var kinds = map[node.Variant]Kind{
	node.VariantClass:     KindClass,
	node.VariantInterface: KindInterface,
	node.VariantTrait:     KindTrait,
	node.VariantEnum:      KindEnum,
}

// AddFile records the types declared in f and their supertypes.
func (g *Graph) AddFile(f *parser.File) {
	for _, n := range f.Artifacts() {
		kind, ok := kinds[n.Variant()]
		if !ok {
			continue
		}
		id := n.FullQualifiedName()
		ns := n.NamespaceName()
		g.AddType(&Type{ID: id, Kind: kind, File: f.Path, Line: n.BeginLine()})

		for _, c := range n.Children() {
			switch c.Type() {
			case "base_clause":
				for _, name := range typeNames(c) {
					g.AddEdge(id, f.ResolveName(name, ns), EdgeTypeExtends)
				}
			case "class_interface_clause":
				for _, name := range typeNames(c) {
					g.AddEdge(id, f.ResolveName(name, ns), EdgeTypeImplements)
				}
			}
		}
		if body := n.Body(); body != nil {
			for _, use := range body.Children() {
				if use.Type() != "use_declaration" {
					continue
				}
				for _, name := range typeNames(use) {
					g.AddEdge(id, f.ResolveName(name, ns), EdgeTypeUses)
				}
			}
		}
	}
}

func typeNames(clause *node.Node) []string {
	var out []string
	for _, c := range clause.Children() {
		switch c.Type() {
		case "name", "qualified_name":
			out = append(out, c.Image())
		}
	}
	return out
}

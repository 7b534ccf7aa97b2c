// Package parser turns PHP source into wrapped syntax trees using the
// tree-sitter PHP grammar.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
)

// ErrSyntax is returned for source that does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// File is one parsed PHP source file.
type File struct {
	Path    string
	Source  *node.Source
	Root    *node.Node
	Imports map[string]string // lower-cased alias -> fully qualified name
}

// Parse parses content and fails with ErrSyntax when the tree contains
// error or missing nodes.
func Parse(ctx context.Context, path string, content []byte) (*File, error) {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: unexpected token on line %d", ErrSyntax, firstErrorLine(root))
	}

	src := &node.Source{Path: path, Content: content}
	f := &File{
		Path:   path,
		Source: src,
		Root:   node.Wrap(root, src, nil),
	}
	f.Imports, err = parseImports(root, content)
	if err != nil {
		return nil, fmt.Errorf("parse imports of %s: %w", path, err)
	}
	return f, nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		return firstErrorLine(c)
	}
	return int(n.StartPoint().Row) + 1
}

const importQuery = `(namespace_use_clause) @clause`

// parseImports collects `use` aliases. Names are matched case-insensitively
// like PHP does for class names.
func parseImports(root *sitter.Node, content []byte) (map[string]string, error) {
	q, err := sitter.NewQuery([]byte(importQuery), php.GetLanguage())
	if err != nil {
		return nil, err
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)

	imports := make(map[string]string)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if c.Node == nil {
				continue
			}
			full, alias := useClause(c.Node, content)
			if full == "" {
				continue
			}
			imports[strings.ToLower(alias)] = full
		}
	}
	return imports, nil
}

func useClause(clause *sitter.Node, content []byte) (full, alias string) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "qualified_name", "name":
			if full == "" {
				full = strings.TrimPrefix(c.Content(content), `\`)
			} else {
				alias = c.Content(content)
			}
		case "namespace_aliasing_clause":
			if n := c.NamedChild(0); n != nil {
				alias = n.Content(content)
			}
		}
	}
	if alias == "" {
		alias = full[strings.LastIndex(full, `\`)+1:]
	}
	return full, alias
}

// Artifacts returns the classes, interfaces, traits, enums and functions
// declared in the file in source order, including declarations nested in
// function or method bodies. Methods are reached through their declaring type.
func (f *File) Artifacts() []*node.Node {
	var out []*node.Node
	f.Root.Walk(func(n *node.Node) bool {
		if v := n.Variant(); v.IsType() || v == node.VariantFunction {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ResolveName expands a class reference to its fully qualified form using the
// file's imports and the namespace the reference appears in.
func (f *File) ResolveName(name, namespace string) string {
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	switch strings.ToLower(name) {
	case "self", "static", "parent":
		return name
	}
	head, rest := name, ""
	if i := strings.Index(name, `\`); i >= 0 {
		head, rest = name[:i], name[i:]
	}
	if full, ok := f.Imports[strings.ToLower(head)]; ok {
		return full + rest
	}
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

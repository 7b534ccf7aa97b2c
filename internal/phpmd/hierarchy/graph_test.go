package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/parser"
)

func TestDepthAndChildren(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{`A\Base`, `A\Middle`, `A\Leaf`, `A\Other`} {
		g.AddType(&Type{ID: id, Kind: KindClass, File: "a.php"})
	}
	g.AddEdge(`A\Base`, `Vendor\Root`, EdgeTypeExtends)
	g.AddEdge(`A\Middle`, `A\Base`, EdgeTypeExtends)
	g.AddEdge(`A\Leaf`, `a\middle`, EdgeTypeExtends)
	g.AddEdge(`A\Other`, `A\Base`, EdgeTypeExtends)
	g.AddEdge(`A\Other`, `A\Base`, EdgeTypeExtends)

	assert.Equal(t, 3, g.Depth(`A\Leaf`))
	assert.Equal(t, 1, g.Depth(`A\Base`))
	assert.Equal(t, 0, g.Depth(`Vendor\Root`))
	assert.Equal(t, 2, g.Children(`A\Base`))
	assert.Equal(t, []string{`A\Leaf`, `A\Middle`, `A\Other`}, g.Descendants(`A\Base`))
	assert.Len(t, g.EdgesFrom(`A\Other`), 1)
}

func TestDepthCycle(t *testing.T) {
	g := NewGraph()
	g.AddType(&Type{ID: "X", Kind: KindClass})
	g.AddType(&Type{ID: "Y", Kind: KindClass})
	g.AddEdge("X", "Y", EdgeTypeExtends)
	g.AddEdge("Y", "X", EdgeTypeExtends)

	assert.Equal(t, 1, g.Depth("X"))
}

func TestRemoveFile(t *testing.T) {
	g := NewGraph()
	g.AddType(&Type{ID: "P", Kind: KindClass, File: "p.php"})
	g.AddType(&Type{ID: "C", Kind: KindClass, File: "c.php"})
	g.AddEdge("C", "P", EdgeTypeExtends)

	g.RemoveFile("c.php")
	_, ok := g.GetType("C")
	assert.False(t, ok)
	assert.Equal(t, 0, g.Children("P"))
	assert.Len(t, g.AllTypes(), 1)

	g.Clear()
	assert.Empty(t, g.AllTypes())
}

func TestAddFile(t *testing.T) {
	src := `<?php
namespace Shop;

use Vendor\Base\Entity;

interface Priced {}
trait Stamped {}

class Product extends Entity implements Priced, \Countable {
    use Stamped;
}

class Book extends Product {}
`
	f, err := parser.Parse(context.Background(), "shop.php", []byte(src))
	require.NoError(t, err)

	g := NewGraph()
	g.AddFile(f)

	typ, ok := g.GetType(`Shop\Product`)
	require.True(t, ok)
	assert.Equal(t, KindClass, typ.Kind)
	assert.Equal(t, 9, typ.Line)

	var targets []string
	for _, e := range g.EdgesFrom(`Shop\Product`) {
		targets = append(targets, string(e.Type)+":"+e.TargetID)
	}
	assert.ElementsMatch(t, []string{
		`extends:Vendor\Base\Entity`,
		`implements:Shop\Priced`,
		`implements:Countable`,
		`uses:Shop\Stamped`,
	}, targets)

	assert.Equal(t, 2, g.Depth(`Shop\Book`))
	assert.Equal(t, 1, g.Children(`Shop\Product`))
}

// Package hierarchy keeps the inheritance graph of the analyzed types. It
// feeds the depth-of-inheritance and number-of-children metrics.
package hierarchy

import (
	"sort"
	"strings"
	"sync"
)

// Kind is the kind of a declared type.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindTrait     Kind = "trait"
	KindEnum      Kind = "enum"
)

// EdgeType is the relation between two types.
type EdgeType string

const (
	EdgeTypeExtends    EdgeType = "extends"
	EdgeTypeImplements EdgeType = "implements"
	EdgeTypeUses       EdgeType = "uses"
)

// Type is a declared class-like type identified by its fully qualified name.
type Type struct {
	ID   string
	Kind Kind
	File string
	Line int
}

// Edge is a directed relation from a type to one of its supertypes.
type Edge struct {
	SourceID string
	TargetID string
	Type     EdgeType
}

// Graph represents the type hierarchy of the analyzed code base.
// IDs are compared case-insensitively, as PHP does for class names.
type Graph struct {
	mu           sync.RWMutex
	types        map[string]*Type
	edges        map[string][]*Edge // SourceID -> Edges
	reverseEdges map[string][]*Edge // TargetID -> Edges
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		types:        make(map[string]*Type),
		edges:        make(map[string][]*Edge),
		reverseEdges: make(map[string][]*Edge),
	}
}

func key(id string) string {
	return strings.ToLower(strings.TrimPrefix(id, `\`))
}

// AddType adds a type to the graph. An existing type with the same ID is replaced.
func (g *Graph) AddType(t *Type) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.types[key(t.ID)] = t
}

// RemoveFile removes every type declared in file together with its outgoing
// edges. Edges pointing at the removed types stay, since their sources still
// name them.
func (g *Graph) RemoveFile(file string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for k, t := range g.types {
		if t.File != file {
			continue
		}
		delete(g.types, k)
		for _, edge := range g.edges[k] {
			g.removeReverseEdge(key(edge.TargetID), k)
		}
		delete(g.edges, k)
	}
}

// removeReverseEdge removes the edges from sourceKey in the reverse edges map.
func (g *Graph) removeReverseEdge(targetKey, sourceKey string) {
	edges := g.reverseEdges[targetKey]
	newEdges := edges[:0]
	for _, e := range edges {
		if key(e.SourceID) != sourceKey {
			newEdges = append(newEdges, e)
		}
	}
	if len(newEdges) == 0 {
		delete(g.reverseEdges, targetKey)
	} else {
		g.reverseEdges[targetKey] = newEdges
	}
}

// GetType retrieves a type by its ID.
func (g *Graph) GetType(id string) (*Type, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.types[key(id)]
	return t, ok
}

// AllTypes returns every type, sorted by ID.
func (g *Graph) AllTypes() []*Type {
	g.mu.RLock()
	defer g.mu.RUnlock()
	types := make([]*Type, 0, len(g.types))
	for _, t := range g.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types
}

// AddEdge adds a directed edge between two types. Duplicates are ignored.
func (g *Graph) AddEdge(sourceID, targetID string, edgeType EdgeType) {
	g.mu.Lock()
	defer g.mu.Unlock()

	src := key(sourceID)
	for _, e := range g.edges[src] {
		if key(e.TargetID) == key(targetID) && e.Type == edgeType {
			return
		}
	}
	edge := &Edge{SourceID: sourceID, TargetID: targetID, Type: edgeType}
	g.edges[src] = append(g.edges[src], edge)
	g.reverseEdges[key(targetID)] = append(g.reverseEdges[key(targetID)], edge)
}

// EdgesFrom returns all edges originating from the given type.
func (g *Graph) EdgesFrom(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.edges[key(id)]
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}

// EdgesTo returns all edges pointing to the given type.
func (g *Graph) EdgesTo(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.reverseEdges[key(id)]
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}

// Depth returns the number of ancestors reachable through extends edges.
// A parent that is not part of the graph still counts, but ends the chain.
func (g *Graph) Depth(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{key(id): true}
	depth := 0
	current := key(id)
	for {
		parent := ""
		for _, e := range g.edges[current] {
			if e.Type == EdgeTypeExtends {
				parent = key(e.TargetID)
				break
			}
		}
		if parent == "" || visited[parent] {
			return depth
		}
		depth++
		if _, known := g.types[parent]; !known {
			return depth
		}
		visited[parent] = true
		current = parent
	}
}

// Children returns the number of types directly extending id.
func (g *Graph) Children(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, e := range g.reverseEdges[key(id)] {
		if e.Type == EdgeTypeExtends {
			n++
		}
	}
	return n
}

// Descendants performs a reverse traversal and returns the IDs of all types
// that extend, implement or use id, directly or transitively.
func (g *Graph) Descendants(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{key(id): true}
	queue := []string{key(id)}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range g.reverseEdges[current] {
			src := key(edge.SourceID)
			if visited[src] {
				continue
			}
			visited[src] = true
			queue = append(queue, src)
			result = append(result, edge.SourceID)
		}
	}
	sort.Strings(result)
	return result
}

// Clear removes all types and edges.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.types = make(map[string]*Type)
	g.edges = make(map[string][]*Edge)
	g.reverseEdges = make(map[string][]*Edge)
}

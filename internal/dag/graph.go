// Package dag provides dependency graph construction and cycle detection for
// option setting dependencies.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Edge declares that From depends on To.
type Edge struct {
	From string
	To   string
}

// Node represents a node in the dependency graph.
type Node struct {
	ID           string   // Setting identifier
	Dependencies []string // IDs of nodes this depends on
	Dependents   []string // IDs of nodes that depend on this
}

// DependencyGraph is a directed graph of dependencies between named nodes.
type DependencyGraph struct {
	nodes map[string]*Node
	order []string // insertion order, for deterministic traversal
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
	}
}

// AddNode adds a node with no dependencies.
// Returns an error if the ID is already present.
func (g *DependencyGraph) AddNode(id string) error {
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("adding node: duplicate node ID %s", id)
	}
	g.nodes[id] = &Node{ID: id, Dependencies: []string{}, Dependents: []string{}}
	g.order = append(g.order, id)
	return nil
}

// AddEdge records that from depends on to. Both nodes must exist.
func (g *DependencyGraph) AddEdge(from, to string) error {
	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("adding edge: node %s not found", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("adding edge: node %s depends on non-existent node %s", from, to)
	}
	fromNode.Dependencies = append(fromNode.Dependencies, to)
	toNode.Dependents = append(toNode.Dependents, from)
	return nil
}

// Build constructs a graph from node IDs and edges.
func Build(ids []string, edges []Edge) (*DependencyGraph, error) {
	g := NewDependencyGraph()
	for _, id := range ids {
		if err := g.AddNode(id); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}
	return g, nil
}

// GetNode returns a node by ID, or nil if not found.
func (g *DependencyGraph) GetNode(id string) *Node {
	return g.nodes[id]
}

// Size returns the number of nodes in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// Roots returns the IDs of nodes with no dependencies, sorted.
func (g *DependencyGraph) Roots() []string {
	roots := []string{}
	for id, node := range g.nodes {
		if len(node.Dependencies) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// DetectCycle checks for circular dependencies in the graph.
// Returns an error with the cycle path if found, nil otherwise.
func (g *DependencyGraph) DetectCycle() error {
	if cycle := g.FindCycle(); cycle != nil {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// FindCycle returns the first cycle found as a path that starts and ends on the
// same node, or nil if the graph is acyclic.
func (g *DependencyGraph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, id := range g.order {
		if !visited[id] {
			if cycle := g.detectCycleDFS(id, visited, recStack, nil); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// detectCycleDFS performs depth-first search for cycle detection.
func (g *DependencyGraph) detectCycleDFS(id string, visited, recStack map[string]bool, path []string) []string {
	visited[id] = true
	recStack[id] = true
	path = append(path, id)

	for _, depID := range g.nodes[id].Dependencies {
		if !visited[depID] {
			if cycle := g.detectCycleDFS(depID, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[depID] {
			return buildCyclePath(path, depID)
		}
	}

	recStack[id] = false
	return nil
}

// buildCyclePath cuts the DFS path down to the cycle starting at cycleStart.
func buildCyclePath(path []string, cycleStart string) []string {
	for i, id := range path {
		if id == cycleStart {
			cycle := make([]string, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			return append(cycle, cycleStart)
		}
	}
	return append(path, cycleStart)
}

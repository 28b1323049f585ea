// Package graph maintains the directed dependency graph between declared
// modules. Nodes are module names; an edge a -> b means module a depends on
// (imports from) module b. The graph supports incremental edge maintenance,
// deterministic topological ordering, and exhaustive cycle enumeration.
package graph

import (
	"sort"
	"sync"
)

// DependencyGraph is a string-keyed directed graph with stable insertion
// order. All methods are safe for concurrent use.
type DependencyGraph struct {
	mu    sync.RWMutex
	order []string                       // node insertion order
	nodes map[string]int                 // node -> insertion index
	edges map[string]map[string]struct{} // node -> set of dependencies
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]int),
		edges: make(map[string]map[string]struct{}),
	}
}

// AddNode inserts a node with no edges. Re-adding an existing node keeps its
// original insertion position.
func (g *DependencyGraph) AddNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(name)
}

func (g *DependencyGraph) addNodeLocked(name string) {
	if _, exists := g.nodes[name]; exists {
		return
	}
	g.nodes[name] = len(g.order)
	g.order = append(g.order, name)
	g.edges[name] = make(map[string]struct{})
}

// SetDependencies replaces the outgoing edge set of a node. Dependency nodes
// that are not yet present are created implicitly so that edges to
// not-yet-registered modules stay visible in diagnostics.
func (g *DependencyGraph) SetDependencies(name string, deps []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(name)
	edges := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		if dep == name {
			continue
		}
		g.addNodeLocked(dep)
		edges[dep] = struct{}{}
	}
	g.edges[name] = edges
}

// RemoveNode deletes a node and purges every edge referencing it.
func (g *DependencyGraph) RemoveNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, exists := g.nodes[name]
	if !exists {
		return
	}

	delete(g.nodes, name)
	delete(g.edges, name)
	g.order = append(g.order[:idx], g.order[idx+1:]...)
	for i := idx; i < len(g.order); i++ {
		g.nodes[g.order[i]] = i
	}

	for _, edges := range g.edges {
		delete(edges, name)
	}
}

// HasNode reports whether a node exists in the graph.
func (g *DependencyGraph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[name]
	return exists
}

// Dependencies returns the direct dependencies of a node in sorted order.
func (g *DependencyGraph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges, exists := g.edges[name]
	if !exists {
		return nil
	}

	deps := make([]string, 0, len(edges))
	for dep := range edges {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Dependents returns the nodes that have an edge pointing at name, sorted.
func (g *DependencyGraph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for node, edges := range g.edges {
		if _, ok := edges[name]; ok {
			dependents = append(dependents, node)
		}
	}
	sort.Strings(dependents)
	return dependents
}

// Adjacency returns a copy of the adjacency map (node -> dependency set).
func (g *DependencyGraph) Adjacency() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := make(map[string][]string, len(g.edges))
	for node, edges := range g.edges {
		deps := make([]string, 0, len(edges))
		for dep := range edges {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		adj[node] = deps
	}
	return adj
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Clear removes all nodes and edges.
func (g *DependencyGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.order = nil
	g.nodes = make(map[string]int)
	g.edges = make(map[string]map[string]struct{})
}

// TopologicalSort returns every node ordered so that each node appears after
// all of its dependencies. The order is deterministic: among nodes whose
// dependencies are all satisfied, the one inserted earliest is emitted first
// (Kahn's algorithm with an insertion-order tie-break).
//
// A CircularDependencyError naming one offending cycle is returned when the
// graph cannot be fully ordered.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Remaining unsatisfied dependency count per node.
	pending := make(map[string]int, len(g.nodes))
	for node, edges := range g.edges {
		pending[node] = len(edges)
	}

	// Reverse adjacency so satisfying a dependency can release its dependents.
	dependents := make(map[string][]string, len(g.nodes))
	for node, edges := range g.edges {
		for dep := range edges {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	for len(result) < len(g.nodes) {
		// Pick the earliest-inserted node whose dependencies are all emitted.
		next := ""
		for _, node := range g.order {
			if !emitted[node] && pending[node] == 0 {
				next = node
				break
			}
		}
		if next == "" {
			cycle := g.findCycleLocked()
			return nil, &CircularDependencyError{Cycle: cycle}
		}

		emitted[next] = true
		result = append(result, next)
		for _, dependent := range dependents[next] {
			pending[dependent]--
		}
	}

	return result, nil
}

// FindCycles enumerates every distinct elementary cycle reachable in the
// graph. Each cycle is reported once, as a node list with the starting node
// repeated at the end. Cycles are independent of TopologicalSort so they can
// be used for diagnostics without attempting a build.
func (g *DependencyGraph) FindCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]string
	seen := make(map[string]bool)

	var stack []string
	onStack := make(map[string]int)
	visited := make(map[string]bool)

	var visit func(node string)
	visit = func(node string) {
		if pos, ok := onStack[node]; ok {
			cycle := append([]string{}, stack[pos:]...)
			cycle = append(cycle, node)
			key := canonicalCycleKey(cycle[:len(cycle)-1])
			if !seen[key] {
				seen[key] = true
				cycles = append(cycles, cycle)
			}
			return
		}
		if visited[node] {
			return
		}

		onStack[node] = len(stack)
		stack = append(stack, node)

		deps := make([]string, 0, len(g.edges[node]))
		for dep := range g.edges[node] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			visit(dep)
		}

		stack = stack[:len(stack)-1]
		delete(onStack, node)
		visited[node] = true
	}

	for _, node := range g.order {
		visit(node)
	}

	return cycles
}

func (g *DependencyGraph) findCycleLocked() []string {
	var found []string

	var stack []string
	onStack := make(map[string]int)
	visited := make(map[string]bool)

	var visit func(node string) bool
	visit = func(node string) bool {
		if pos, ok := onStack[node]; ok {
			found = append([]string{}, stack[pos:]...)
			found = append(found, node)
			return true
		}
		if visited[node] {
			return false
		}

		onStack[node] = len(stack)
		stack = append(stack, node)

		deps := make([]string, 0, len(g.edges[node]))
		for dep := range g.edges[node] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if visit(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, node)
		visited[node] = true
		return false
	}

	for _, node := range g.order {
		if visit(node) {
			break
		}
	}

	return found
}

// canonicalCycleKey rotates a cycle so the lexicographically smallest node
// comes first, making rotations of the same cycle compare equal.
func canonicalCycleKey(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}

	min := 0
	for i, node := range cycle {
		if node < cycle[min] {
			min = i
		}
	}

	key := ""
	for i := range cycle {
		key += cycle[(min+i)%len(cycle)] + "|"
	}
	return key
}

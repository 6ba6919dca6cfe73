package graph

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-webresource/label"
)

// Get returns the node for key, or nil if not found.
func (g *Graph) Get(key label.Key) *Node {
	return g.Modules[key]
}

// Contains reports whether the graph has a node for key.
func (g *Graph) Contains(key label.Key) bool {
	_, ok := g.Modules[key]
	return ok
}

// DirectDeps returns the declared dependencies of key.
func (g *Graph) DirectDeps(key label.Key) []label.Key {
	if node := g.Modules[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns the modules that directly depend on key.
func (g *Graph) DirectDependents(key label.Key) []label.Key {
	if node := g.Modules[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns every module reachable from key, breadth-first.
func (g *Graph) TransitiveDeps(key label.Key) []label.Key {
	return g.bfs(key, func(n *Node) []label.Key { return n.Dependencies })
}

// TransitiveDependents returns every module from which key is reachable,
// closest first.
func (g *Graph) TransitiveDependents(key label.Key) []label.Key {
	return g.bfs(key, func(n *Node) []label.Key { return n.Dependents })
}

func (g *Graph) bfs(start label.Key, next func(*Node) []label.Key) []label.Key {
	result := make([]label.Key, 0)
	visited := map[label.Key]bool{start: true}

	queue := []label.Key{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current]
		if node == nil {
			continue
		}
		for _, k := range next(node) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path returns the shortest dependency path from one module to another, or
// nil if there is none.
func (g *Graph) Path(from, to label.Key) []label.Key {
	if from == to {
		return []label.Key{from}
	}

	parent := map[label.Key]label.Key{}
	visited := map[label.Key]bool{from: true}
	queue := []label.Key{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current]
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			parent[dep] = current
			if dep == to {
				path := []label.Key{to}
				for k := to; k != from; {
					k = parent[k]
					path = append(path, k)
				}
				slices.Reverse(path)
				return path
			}
			queue = append(queue, dep)
		}
	}
	return nil
}

// AllPaths returns every acyclic dependency path from one module to
// another. This can be expensive on dense graphs.
func (g *Graph) AllPaths(from, to label.Key) [][]label.Key {
	var result [][]label.Key
	g.findAllPaths(from, to, []label.Key{from}, make(map[label.Key]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target label.Key, path []label.Key, visited map[label.Key]bool, result *[][]label.Key) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	node := g.Modules[current]
	if node == nil {
		return
	}
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// WhyIncluded returns every chain from a root to key.
func (g *Graph) WhyIncluded(key label.Key) ([]DependencyChain, error) {
	if !g.Contains(key) {
		return nil, fmt.Errorf("module %s not found in graph", key)
	}
	var chains []DependencyChain
	for _, root := range g.Roots {
		for _, p := range g.AllPaths(root, key) {
			chains = append(chains, DependencyChain{Path: p})
		}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{TotalModules: len(g.Modules)}

	direct := map[label.Key]bool{}
	for _, r := range g.Roots {
		for _, dep := range g.DirectDeps(r) {
			if n := g.Modules[dep]; n != nil && !n.IsRoot {
				direct[dep] = true
			}
		}
	}
	stats.DirectDependencies = len(direct)

	roots := 0
	for _, node := range g.Modules {
		if node.IsRoot {
			roots++
		}
		if node.Missing {
			stats.Missing++
		}
		if node.Disabled {
			stats.Disabled++
		}
	}
	stats.TransitiveDependencies = max(stats.TotalModules-stats.DirectDependencies-roots, 0)
	stats.MaxDepth = g.maxDepth()
	stats.Cycles = len(g.FindCycles())
	return stats
}

func (g *Graph) maxDepth() int {
	depths := make(map[label.Key]int)
	onPath := make(map[label.Key]bool)
	var deepest int

	var dfs func(key label.Key, depth int)
	dfs = func(key label.Key, depth int) {
		if onPath[key] {
			return
		}
		if d, ok := depths[key]; ok && d >= depth {
			return
		}
		depths[key] = depth
		deepest = max(deepest, depth)

		node := g.Modules[key]
		if node == nil {
			return
		}
		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	for _, r := range g.Roots {
		dfs(r, 0)
	}
	return deepest
}

// Leaves returns the modules with no dependencies, sorted.
func (g *Graph) Leaves() []label.Key {
	var leaves []label.Key
	for _, key := range g.keys() {
		if len(g.Modules[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// Skipped returns the missing, disabled and non-web-resource modules,
// sorted.
func (g *Graph) Skipped() []label.Key {
	var out []label.Key
	for _, key := range g.keys() {
		if g.Modules[key].Skipped() {
			out = append(out, key)
		}
	}
	return out
}

// HasCycles reports whether the graph contains a cycle.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns the cycles found by a depth-first search from every
// node in sorted order. Each cycle starts at the node the search reached
// first.
func (g *Graph) FindCycles() [][]label.Key {
	var cycles [][]label.Key
	visited := make(map[label.Key]bool)
	onStack := make(map[label.Key]bool)
	var path []label.Key

	var visit func(key label.Key)
	visit = func(key label.Key) {
		visited[key] = true
		onStack[key] = true
		path = append(path, key)

		if node := g.Modules[key]; node != nil {
			for _, dep := range node.Dependencies {
				if !visited[dep] {
					visit(dep)
				} else if onStack[dep] {
					start := slices.Index(path, dep)
					cycles = append(cycles, slices.Clone(path[start:]))
				}
			}
		}

		path = path[:len(path)-1]
		onStack[key] = false
	}

	for _, key := range g.keys() {
		if !visited[key] {
			visit(key)
		}
	}
	return cycles
}

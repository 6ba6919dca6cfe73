package graph

import (
	"slices"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

// Build snapshots the part of cat reachable from roots.
//
// Every declared dependency becomes a node, whether or not the catalog can
// supply it, so missing and disabled modules remain visible. Traversal is
// breadth-first and cycle safe.
func Build(cat catalog.Catalog, roots ...label.Key) *Graph {
	g := &Graph{
		Roots:   slices.Clone(roots),
		Modules: make(map[label.Key]*Node),
	}

	queue := slices.Clone(roots)
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if _, seen := g.Modules[key]; seen {
			continue
		}

		node := &Node{Key: key}
		g.Modules[key] = node

		desc, ok := cat.Module(key)
		if !ok {
			node.Missing = true
			continue
		}
		node.Dependencies = slices.Clone(desc.Dependencies)
		node.Contexts = slices.Clone(desc.Contexts)
		node.Version = desc.Version
		node.Disabled = !desc.Enabled
		node.NotWebResource = desc.Kind != catalog.KindWebResource

		for _, dep := range desc.Dependencies {
			if _, seen := g.Modules[dep]; !seen {
				queue = append(queue, dep)
			}
		}
	}

	for _, r := range roots {
		g.Modules[r].IsRoot = true
	}

	// Reverse edges, built in sorted order for deterministic output.
	for _, key := range g.keys() {
		for _, dep := range g.Modules[key].Dependencies {
			if depNode, ok := g.Modules[dep]; ok && !slices.Contains(depNode.Dependents, key) {
				depNode.Dependents = append(depNode.Dependents, key)
			}
		}
	}
	return g
}

// BuildContext snapshots the graph rooted at the modules of context c.
func BuildContext(cat catalog.Catalog, c label.Context) *Graph {
	return Build(cat, cat.ContextModules(c)...)
}

// keys returns all node keys sorted.
func (g *Graph) keys() []label.Key {
	keys := make([]label.Key, 0, len(g.Modules))
	for k := range g.Modules {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, label.Key.Compare)
	return keys
}

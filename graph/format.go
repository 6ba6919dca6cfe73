package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-webresource/label"
)

const separatorWidth = 60 // Width of separator lines in text output

// JSONGraph is the JSON form of a Graph.
type JSONGraph struct {
	Roots   []string     `json:"roots"`
	Modules []JSONModule `json:"modules"`
	Cycles  [][]string   `json:"cycles,omitempty"`
}

// JSONModule is the JSON form of a Node.
type JSONModule struct {
	Key            string   `json:"key"`
	Version        string   `json:"version,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
	Dependents     []string `json:"dependents,omitempty"`
	Contexts       []string `json:"contexts,omitempty"`
	Root           bool     `json:"root,omitempty"`
	Missing        bool     `json:"missing,omitempty"`
	Disabled       bool     `json:"disabled,omitempty"`
	NotWebResource bool     `json:"notWebResource,omitempty"`
}

// ToJSON renders the graph as indented JSON with modules sorted by key.
func (g *Graph) ToJSON() ([]byte, error) {
	out := JSONGraph{
		Roots:   keyStrings(g.Roots),
		Modules: make([]JSONModule, 0, len(g.Modules)),
	}
	for _, key := range g.keys() {
		node := g.Modules[key]
		contexts := make([]string, len(node.Contexts))
		for i, c := range node.Contexts {
			contexts[i] = c.String()
		}
		out.Modules = append(out.Modules, JSONModule{
			Key:            key.String(),
			Version:        node.Version,
			Dependencies:   keyStrings(node.Dependencies),
			Dependents:     keyStrings(node.Dependents),
			Contexts:       contexts,
			Root:           node.IsRoot,
			Missing:        node.Missing,
			Disabled:       node.Disabled,
			NotWebResource: node.NotWebResource,
		})
	}
	for _, c := range g.FindCycles() {
		out.Cycles = append(out.Cycles, keyStrings(c))
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToDOT renders the graph in Graphviz DOT format. Roots are bold; missing
// and disabled modules are dashed.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	keys := g.keys()
	for _, key := range keys {
		node := g.Modules[key]
		attrs := fmt.Sprintf("label=%q", key.String())
		switch {
		case node.IsRoot:
			attrs += ", style=bold"
		case node.Skipped():
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key.String(), attrs)
	}

	buf.WriteString("\n")

	for _, key := range keys {
		for _, dep := range g.Modules[key].Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", key.String(), dep.String())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText renders a summary and a dependency tree per root.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Dependency Graph (roots: %s)\n", strings.Join(keyStrings(g.Roots), ", "))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	fmt.Fprintf(&buf, "Total modules: %d\n", stats.TotalModules)
	fmt.Fprintf(&buf, "Direct dependencies: %d\n", stats.DirectDependencies)
	fmt.Fprintf(&buf, "Transitive dependencies: %d\n", stats.TransitiveDependencies)
	fmt.Fprintf(&buf, "Max depth: %d\n", stats.MaxDepth)
	if stats.Missing > 0 {
		fmt.Fprintf(&buf, "Missing: %d\n", stats.Missing)
	}
	if stats.Disabled > 0 {
		fmt.Fprintf(&buf, "Disabled: %d\n", stats.Disabled)
	}
	if stats.Cycles > 0 {
		fmt.Fprintf(&buf, "Cycles: %d\n", stats.Cycles)
	}
	buf.WriteString("\n")

	buf.WriteString("Dependency Tree:\n")
	visited := make(map[label.Key]bool)
	for _, root := range g.Roots {
		g.printTree(&buf, root, "", true, true, visited)
	}
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key label.Key, prefix string, isLast, top bool, visited map[label.Key]bool) {
	childPrefix := ""
	if top {
		buf.WriteString(key.String())
	} else {
		connector, indent := "├── ", "│   "
		if isLast {
			connector, indent = "└── ", "    "
		}
		buf.WriteString(prefix + connector + key.String())
		childPrefix = prefix + indent
	}

	node := g.Modules[key]
	switch {
	case node == nil, node.Missing:
		buf.WriteString(" (missing)")
	case node.Disabled:
		buf.WriteString(" (disabled)")
	case node.NotWebResource:
		buf.WriteString(" (not a web resource)")
	}

	if visited[key] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[key] = true
	defer func() { visited[key] = false }()

	if node == nil {
		return
	}

	for i, dep := range node.Dependencies {
		g.printTree(buf, dep, childPrefix, i == len(node.Dependencies)-1, false, visited)
	}
}

func keyStrings(keys []label.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

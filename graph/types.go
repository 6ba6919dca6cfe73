package graph

import (
	"strings"

	"github.com/albertocavalcante/go-webresource/label"
)

// Graph is a snapshot of the module dependency graph reachable from Roots.
// It supports traversal in both directions.
type Graph struct {
	// Roots are the modules the snapshot was built from.
	Roots []label.Key

	// Modules contains every reachable node, including declared but missing
	// dependencies.
	Modules map[label.Key]*Node
}

// Node is a module in the graph.
type Node struct {
	Key label.Key

	// Dependencies are the declared dependencies, in declaration order.
	Dependencies []label.Key

	// Dependents are modules that directly depend on this one, sorted.
	Dependents []label.Key

	// Contexts are the contexts the module declares.
	Contexts []label.Context

	// Version is the owning plugin's version.
	Version string

	// Missing is true for a dependency the catalog does not declare.
	Missing bool

	// Disabled is true for a declared but disabled module.
	Disabled bool

	// NotWebResource is true for a module of another kind.
	NotWebResource bool

	// IsRoot is true for the modules the graph was built from.
	IsRoot bool
}

// Skipped reports whether resolution drops the module.
func (n *Node) Skipped() bool {
	return n.Missing || n.Disabled || n.NotWebResource
}

// DependencyChain is a path of dependencies from a root to a module.
type DependencyChain struct {
	Path []label.Key
}

// String renders the chain as "a:a -> b:b -> c:c".
func (c DependencyChain) String() string {
	parts := make([]string, len(c.Path))
	for i, k := range c.Path {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}

// Stats summarizes a graph.
type Stats struct {
	// TotalModules is the number of nodes, missing ones included.
	TotalModules int

	// DirectDependencies is the number of distinct direct dependencies of
	// the roots.
	DirectDependencies int

	// TransitiveDependencies counts nodes that are neither roots nor direct
	// dependencies.
	TransitiveDependencies int

	// MaxDepth is the longest acyclic path below a root.
	MaxDepth int

	Missing  int
	Disabled int
	Cycles   int
}

// Package graph provides a read-only view of the module dependency graph
// declared in a catalog, for inspection and troubleshooting.
//
// It answers the questions that come up when a page ships the wrong
// resources:
//
//   - What does a module pull in, directly and transitively?
//   - Which modules depend on a given module?
//   - Through which chain is a module included?
//   - Which declared dependencies are missing, disabled or cyclic?
//
// # Building a Graph
//
// A Graph is a snapshot taken from a catalog, starting at one or more roots:
//
//	g := graph.Build(cat, label.MustKey("com.example.app:page"))
//
// # Querying the Graph
//
//	deps := g.TransitiveDeps(key)
//	path := g.Path(from, to)
//	cycles := g.FindCycles()
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dotString := g.ToDOT()
//	textString := g.ToText()
package graph

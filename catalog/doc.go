// Package catalog models the web-resource modules declared by plugins and
// provides the lookups the resolver needs.
//
// A [Catalog] answers two questions: "what is the descriptor for this complete
// key" and "which enabled modules declare this context". [MemoryCatalog] is a
// thread-safe in-memory implementation; descriptors can be registered
// programmatically or loaded from descriptor files:
//
//	plugin(key = "com.example.app", version = "1.2.0")
//
//	web_resource(
//	    key = "core",
//	    dependencies = ["com.example.lib:jquery", ":util"],
//	    contexts = ["atl.general"],
//	    resources = [
//	        resource(name = "core.js"),
//	        resource(name = "print.css", params = {"media": "print"}),
//	    ],
//	)
//
// Descriptor files use Starlark syntax and are parsed with
// github.com/bazelbuild/buildtools/build. Dependency keys starting with ':'
// resolve against the enclosing plugin.
//
// # Thread Safety
//
// Descriptors are immutable once registered. MemoryCatalog may be read and
// written concurrently.
package catalog

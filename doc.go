// Package webresource resolves, batches and addresses the static web
// resources (scripts and stylesheets) that plugin modules contribute to
// rendered pages.
//
// # Overview
//
// The package provides four main components:
//
//   - DependencyResolver: computes dependency-ordered closures of modules
//   - ContextBatchBuilder: groups the modules of page contexts into batches
//     so no module is delivered twice
//   - Manager: tracks per-request requirements, renders tags and maps
//     incoming request paths back to the resources they serve
//   - HashModules: derives the cache-busting hash of a batch
//
// Module descriptors come from a catalog.Catalog; URLs are formatted and
// parsed by package addressing.
//
// # Quick Start
//
//	cat, err := catalog.LoadDir("plugins")
//	m, err := webresource.New(cat, webresource.WithBaseURL("/app"))
//
//	ctx = webresource.WithRequestState(ctx, webresource.NewRequestState())
//	m.RequireContext(ctx, label.MustContext("atl.general"))
//	m.RequireModule(ctx, label.MustKey("com.example.app:core"))
//	err = m.RenderRequired(ctx, w, addressing.ModeRelative, nil)
//
// # Super-batch
//
// A super-batch is a single batch of modules included on every page. Its
// closure is excluded from every other resolution:
//
//	m, err := webresource.New(cat,
//	    webresource.WithSuperBatch(roots, func() string { return deployID }),
//	)
//
// # Thread Safety
//
// Manager, DependencyResolver and RequestState are safe for concurrent use.
// A ContextBatchBuilder belongs to one goroutine.
package webresource

package webresource

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/internal/metrics"
	"github.com/albertocavalcante/go-webresource/label"
)

// DependencyResolver computes dependency closures over a Catalog.
//
// Resolution is a depth-first, post-order expansion driven by an explicit
// frame stack, so arbitrarily deep dependency chains never grow the goroutine
// stack. Anomalies never fail a resolution:
//   - a key already in the super-batch is skipped when super-batch
//     exclusion is requested;
//   - a key already being expanded (a cycle) is not expanded again, and a
//     warning names the stack;
//   - missing, disabled and non-web-resource modules are dropped.
//
// The super-batch closure is memoized per version token and replaced with a
// single atomic pointer swap, so readers see either the previous or the new
// closure in full.
//
// DependencyResolver is safe for concurrent use.
type DependencyResolver struct {
	catalog    catalog.Catalog
	superBatch SuperBatchConfig
	logger     *slog.Logger
	metrics    *metrics.Recorder

	sbGroup    singleflight.Group
	sbSnapshot atomic.Pointer[superBatchSnapshot]
}

// superBatchSnapshot is an immutable memoized super-batch closure.
type superBatchSnapshot struct {
	version string
	keys    *KeySet
}

// NewDependencyResolver creates a resolver over cat.
func NewDependencyResolver(cat catalog.Catalog, opts ...Option) (*DependencyResolver, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	rec, err := metrics.New(cfg.registerer)
	if err != nil {
		return nil, err
	}
	return newDependencyResolver(cat, cfg, rec), nil
}

func newDependencyResolver(cat catalog.Catalog, cfg *config, rec *metrics.Recorder) *DependencyResolver {
	return &DependencyResolver{
		catalog:    cat,
		superBatch: cfg.superBatch,
		logger:     cfg.log(),
		metrics:    rec,
	}
}

// Resolve returns the closure of key: its transitive dependencies followed
// by key itself. With excludeSuperBatch, modules already delivered by the
// super-batch are left out.
func (r *DependencyResolver) Resolve(key label.Key, excludeSuperBatch bool) *KeySet {
	return r.ResolveAll([]label.Key{key}, excludeSuperBatch)
}

// ResolveAll returns the union of the closures of keys, in order.
func (r *DependencyResolver) ResolveAll(keys []label.Key, excludeSuperBatch bool) *KeySet {
	var exclude *KeySet
	if excludeSuperBatch {
		exclude = r.superBatchKeys()
	}
	w := r.newWalk(exclude, nil)
	for _, k := range keys {
		w.run(k)
	}
	return w.out
}

// SuperBatch returns the closure of the configured super-batch modules, or
// an empty set when the super-batch is disabled.
func (r *DependencyResolver) SuperBatch() *KeySet {
	return r.superBatchKeys().Clone()
}

// SuperBatchEnabled reports whether a super-batch is configured.
func (r *DependencyResolver) SuperBatchEnabled() bool {
	return r.superBatch.Enabled
}

// ResolveInContext returns the union of the closures of every module in
// context c, excluding super-batch modules. Modules that may not be batched
// are added to skipped (when non-nil) and left out of the closure.
func (r *DependencyResolver) ResolveInContext(c label.Context, skipped *KeySet) *KeySet {
	return r.resolveInContext(c, nil, skipped)
}

// resolveInContext is ResolveInContext that also leaves out the modules in
// exclude. exclude must be closed under dependencies.
func (r *DependencyResolver) resolveInContext(c label.Context, exclude, skipped *KeySet) *KeySet {
	skip := r.superBatchKeys()
	if exclude.Len() > 0 {
		skip = skip.Clone()
		skip.AddAll(exclude)
	}
	w := r.newWalk(skip, skipped)
	if skipped == nil {
		w.skipped = &KeySet{}
	}
	for _, k := range r.catalog.ContextModules(c) {
		w.run(k)
	}
	return w.out
}

// ResolveContexts returns every module a page receives for contexts outside
// the super-batch: the context closures followed by the closures of their
// non-batchable members.
func (r *DependencyResolver) ResolveContexts(contexts []label.Context) *KeySet {
	out := &KeySet{}
	skipped := &KeySet{}
	for _, c := range contexts {
		out.AddAll(r.ResolveInContext(c, skipped))
	}
	out.AddAll(r.ResolveAll(skipped.keys, true))
	return out
}

// superBatchKeys returns the shared memoized closure. Callers must not
// modify it.
func (r *DependencyResolver) superBatchKeys() *KeySet {
	if !r.superBatch.Enabled {
		return nil
	}
	version := r.superBatch.Version()
	if snap := r.sbSnapshot.Load(); snap != nil && snap.version == version {
		return snap.keys
	}

	v, _, _ := r.sbGroup.Do(version, func() (any, error) {
		if snap := r.sbSnapshot.Load(); snap != nil && snap.version == version {
			return snap.keys, nil
		}
		w := r.newWalk(nil, nil)
		for _, k := range r.superBatch.Modules {
			w.run(k)
		}
		r.sbSnapshot.Store(&superBatchSnapshot{version: version, keys: w.out})
		r.metrics.SuperBatchRebuild()
		r.logger.Debug("rebuilt super-batch", "version", version, "modules", w.out.Len())
		return w.out, nil
	})
	return v.(*KeySet)
}

// frame is one module being expanded.
type frame struct {
	key  label.Key
	deps []label.Key
	next int
}

// walk is the state of one resolution call. It is owned by that call.
type walk struct {
	r       *DependencyResolver
	exclude *KeySet
	skipped *KeySet
	out     *KeySet
	stack   []frame
	onStack map[label.Key]struct{}
}

func (r *DependencyResolver) newWalk(exclude, skipped *KeySet) *walk {
	return &walk{
		r:       r,
		exclude: exclude,
		skipped: skipped,
		out:     &KeySet{},
		onStack: make(map[label.Key]struct{}),
	}
}

// run expands root into w.out.
func (w *walk) run(root label.Key) {
	if w.out.Contains(root) {
		return
	}
	w.enter(root)
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++
			if !w.out.Contains(dep) {
				w.enter(dep)
			}
			continue
		}
		key := top.key
		w.stack = w.stack[:len(w.stack)-1]
		delete(w.onStack, key)
		w.out.Add(key)
	}
}

// enter pushes key unless it must be skipped.
func (w *walk) enter(key label.Key) {
	log := w.r.logger
	if w.exclude.Contains(key) {
		log.Debug("module already delivered", "module", key.String())
		return
	}
	if _, ok := w.onStack[key]; ok {
		log.Warn("dependency cycle detected", "module", key.String(), "stack", w.path(key))
		w.r.metrics.Anomaly(metrics.ReasonCycle)
		return
	}

	m, ok := w.r.catalog.Module(key)
	switch {
	case !ok:
		log.Warn("cannot find web resource module", "module", key.String(), "required_by", w.parent())
		w.r.metrics.Anomaly(metrics.ReasonMissing)
		return
	case m.Kind != catalog.KindWebResource:
		log.Warn("module is not a web resource", "module", key.String(), "kind", string(m.Kind), "required_by", w.parent())
		w.r.metrics.Anomaly(metrics.ReasonNotWebResource)
		return
	case !m.Enabled:
		log.Warn("web resource module is disabled", "module", key.String(), "required_by", w.parent())
		w.r.metrics.Anomaly(metrics.ReasonDisabled)
		return
	}

	if w.skipped != nil && !m.Batchable {
		log.Debug("module cannot be batched", "module", key.String())
		w.skipped.Add(key)
		return
	}

	w.onStack[key] = struct{}{}
	w.stack = append(w.stack, frame{key: key, deps: m.Dependencies})
}

// path renders the current stack followed by key, e.g. "a:a -> b:b -> a:a".
func (w *walk) path(key label.Key) string {
	parts := make([]string, 0, len(w.stack)+1)
	for _, f := range w.stack {
		parts = append(parts, f.key.String())
	}
	parts = append(parts, key.String())
	return strings.Join(parts, " -> ")
}

func (w *walk) parent() string {
	if len(w.stack) == 0 {
		return ""
	}
	return w.stack[len(w.stack)-1].key.String()
}

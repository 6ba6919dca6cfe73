package webresource

import (
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/internal/metrics"
	"github.com/albertocavalcante/go-webresource/label"
)

// ResourceFilter selects the resources a build registers, e.g. by type.
// A nil filter accepts every resource.
type ResourceFilter func(catalog.Resource) bool

// FilterType accepts resources of the given types.
func FilterType(types ...string) ResourceFilter {
	return func(r catalog.Resource) bool {
		return slices.Contains(types, r.Type)
	}
}

// ContextBatchBuilder groups the modules of a list of contexts into context
// batches so that no module is delivered twice.
//
// Contexts are processed in the order given. A context whose closure
// overlaps an earlier batch is merged into it; the merged batch keeps the
// position of the earliest batch it absorbs.
//
// A builder is owned by one goroutine. Included and Skipped describe the
// most recent Build.
type ContextBatchBuilder struct {
	resolver    *DependencyResolver
	batchParams []string
	logger      *slog.Logger
	metrics     *metrics.Recorder

	included *KeySet
	skipped  *KeySet
}

// NewContextBatchBuilder creates a builder resolving through resolver.
func NewContextBatchBuilder(resolver *DependencyResolver, opts ...Option) (*ContextBatchBuilder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newContextBatchBuilder(resolver, cfg), nil
}

func newContextBatchBuilder(resolver *DependencyResolver, cfg *config) *ContextBatchBuilder {
	return &ContextBatchBuilder{
		resolver:    resolver,
		batchParams: cfg.batchParams,
		logger:      cfg.log(),
		metrics:     resolver.metrics,
		included:    &KeySet{},
		skipped:     &KeySet{},
	}
}

// Included returns the modules grouped into a batch by the last Build.
func (b *ContextBatchBuilder) Included() *KeySet {
	return b.included.Clone()
}

// Skipped returns the modules the last Build left out of batching because
// they are not batchable.
func (b *ContextBatchBuilder) Skipped() *KeySet {
	return b.skipped.Clone()
}

// Build groups contexts into batches and returns one resource per batch
// partition. Batches appear in the order their first context was supplied;
// partitions within a batch in first-registration order. A context with no
// resolvable modules contributes nothing.
func (b *ContextBatchBuilder) Build(contexts []label.Context, filter ResourceFilter) []*ContextBatchResource {
	return b.BuildExcluding(contexts, nil, filter)
}

// BuildExcluding is Build for a page that already received the contexts in
// excluded: their modules are left out of every batch, and each resource
// names excluded so its URL reproduces the same membership.
func (b *ContextBatchBuilder) BuildExcluding(contexts, excluded []label.Context, filter ResourceFilter) []*ContextBatchResource {
	b.included = &KeySet{}
	b.skipped = &KeySet{}

	var exclude *KeySet
	if len(excluded) > 0 {
		exclude = b.resolver.ResolveContexts(excluded)
	}

	var working []*ContextBatch
	owner := make(map[label.Key]*ContextBatch)

	for _, c := range contexts {
		closure := b.resolver.resolveInContext(c, exclude, b.skipped)
		current := NewContextBatch(c, b.batchParams)

		var overlaps []*ContextBatch
		for _, key := range closure.keys {
			if b.included.Contains(key) {
				if prior, ok := owner[key]; ok && !slices.Contains(overlaps, prior) {
					overlaps = append(overlaps, prior)
				}
				continue
			}
			m, ok := b.resolver.catalog.Module(key)
			if !ok {
				// Removed between resolution and lookup.
				continue
			}
			current.AddModule(m)
			for _, r := range m.Resources {
				if !r.Batchable() {
					continue
				}
				if filter == nil || filter(r) {
					current.AddResourceType(r)
				}
			}
			b.included.Add(key)
			owner[key] = current
		}

		if len(overlaps) == 0 {
			working = append(working, current)
			continue
		}

		working, current = b.merge(working, overlaps, current)
		for _, key := range current.moduleKeys.keys {
			owner[key] = current
		}
	}

	var out []*ContextBatchResource
	emitted := 0
	for _, batch := range working {
		if len(batch.partitions) == 0 {
			continue
		}
		emitted++
		hash, err := hashOrPlaceholder(batch.modules)
		if err != nil {
			b.logger.Warn("cannot compute batch hash, using placeholder", "batch", batch.Key(), "error", err)
			b.metrics.HashFallback()
		}
		for _, res := range batch.buildResources(hash) {
			res.Excluded = slices.Clone(excluded)
			out = append(out, res)
		}
	}
	b.metrics.ContextBatches(emitted)
	return out
}

// merge folds overlaps and current into one batch placed at the slot of the
// earliest overlapping batch. Overlaps are merged in working-set order.
func (b *ContextBatchBuilder) merge(working, overlaps []*ContextBatch, current *ContextBatch) ([]*ContextBatch, *ContextBatch) {
	var merged *ContextBatch
	slot := -1
	kept := working[:0:0]
	for _, batch := range working {
		if !slices.Contains(overlaps, batch) {
			kept = append(kept, batch)
			continue
		}
		if merged == nil {
			merged = batch
			slot = len(kept)
			kept = append(kept, nil)
			continue
		}
		merged = MergeContextBatches(merged, batch)
		b.metrics.Merge()
	}
	merged = MergeContextBatches(merged, current)
	b.metrics.Merge()
	kept[slot] = merged

	b.logger.Debug("merged overlapping context batches", "batch", merged.Key())
	return kept, merged
}

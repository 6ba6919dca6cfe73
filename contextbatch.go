package webresource

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

// Partition is a (type, discriminating parameters) pair. Resources in the
// same partition of a batch are served together.
type Partition struct {
	Type   string
	Params catalog.Params

	id string
}

func newPartition(typ string, params catalog.Params) Partition {
	return Partition{
		Type:   typ,
		Params: params,
		id:     typ + "?" + params.Canonical(),
	}
}

// ContextBatch is the aggregate of the modules contributed by one or more
// overlapping contexts, together with the partitions their resources occupy.
//
// A ContextBatch is built by a single ContextBatchBuilder call and is not
// safe for concurrent mutation.
type ContextBatch struct {
	contexts    []label.Context
	modules     []*catalog.ModuleDescriptor
	moduleKeys  *KeySet
	partitions  []Partition
	seen        map[string]struct{}
	batchParams []string
}

// NewContextBatch creates an empty batch for context c. batchParams names the
// discriminating parameters; nil selects catalog.BatchParams.
func NewContextBatch(c label.Context, batchParams []string) *ContextBatch {
	if batchParams == nil {
		batchParams = catalog.BatchParams
	}
	return &ContextBatch{
		contexts:    []label.Context{c},
		moduleKeys:  &KeySet{},
		seen:        make(map[string]struct{}),
		batchParams: batchParams,
	}
}

// Key is the batch key: the contributing context names joined in merge order.
func (b *ContextBatch) Key() string {
	return label.JoinContexts(b.contexts)
}

// Contexts returns the contributing contexts in merge order.
func (b *ContextBatch) Contexts() []label.Context {
	return slices.Clone(b.contexts)
}

// Modules returns the contributing module keys in contribution order.
func (b *ContextBatch) Modules() []label.Key {
	return b.moduleKeys.Keys()
}

// Includes reports whether key contributes to the batch.
func (b *ContextBatch) Includes(key label.Key) bool {
	return b.moduleKeys.Contains(key)
}

// Partitions returns the registered partitions in first-registration order.
func (b *ContextBatch) Partitions() []Partition {
	return slices.Clone(b.partitions)
}

// AddModule records m as a contributor. Adding the same key twice is a no-op.
func (b *ContextBatch) AddModule(m *catalog.ModuleDescriptor) {
	if b.moduleKeys.Add(m.Key) {
		b.modules = append(b.modules, m)
	}
}

// AddResourceType registers the partition of r, de-duplicating by partition.
func (b *ContextBatch) AddResourceType(r catalog.Resource) {
	b.addPartition(newPartition(r.Type, r.Params.Discriminating(b.batchParams)))
}

func (b *ContextBatch) addPartition(p Partition) {
	if _, ok := b.seen[p.id]; ok {
		return
	}
	b.seen[p.id] = struct{}{}
	b.partitions = append(b.partitions, p)
}

// Hash returns the batch hash, or PlaceholderHash if it cannot be computed.
func (b *ContextBatch) Hash() string {
	h, _ := hashOrPlaceholder(b.modules)
	return h
}

// BuildResources materializes one resource per partition, in
// first-registration order, each carrying the batch hash.
func (b *ContextBatch) BuildResources() []*ContextBatchResource {
	return b.buildResources(b.Hash())
}

func (b *ContextBatch) buildResources(hash string) []*ContextBatchResource {
	out := make([]*ContextBatchResource, 0, len(b.partitions))
	for _, p := range b.partitions {
		out = append(out, &ContextBatchResource{
			Key:      b.Key(),
			Contexts: b.Contexts(),
			Type:     p.Type,
			Params:   p.Params.Clone(),
			Hash:     hash,
			Modules:  b.Modules(),
		})
	}
	return out
}

// MergeContextBatches returns a batch holding the contexts, modules and
// partitions of a followed by those of b.
//
// a and b must not share a module; the builder's bookkeeping guarantees it
// and a violation panics.
func MergeContextBatches(a, b *ContextBatch) *ContextBatch {
	for _, k := range b.moduleKeys.keys {
		if a.moduleKeys.Contains(k) {
			panic(fmt.Sprintf("webresource: merging batches %q and %q that share module %s", a.Key(), b.Key(), k))
		}
	}

	merged := &ContextBatch{
		contexts:    append(slices.Clone(a.contexts), b.contexts...),
		modules:     append(slices.Clone(a.modules), b.modules...),
		moduleKeys:  a.moduleKeys.Clone(),
		seen:        make(map[string]struct{}, len(a.seen)+len(b.seen)),
		batchParams: a.batchParams,
	}
	merged.moduleKeys.AddAll(b.moduleKeys)
	for _, p := range a.partitions {
		merged.addPartition(p)
	}
	for _, p := range b.partitions {
		merged.addPartition(p)
	}
	return merged
}

// ContextBatchResource is one partition of a finished context batch.
type ContextBatchResource struct {
	// Key is the joined context list, e.g. "x,y".
	Key      string
	Contexts []label.Context
	Type     string
	Params   catalog.Params
	Hash     string

	// Excluded are contexts already delivered to the page whose modules the
	// batch leaves out.
	Excluded []label.Context

	// Modules are the contributing modules in batch order.
	Modules []label.Key
}

// Resource returns the addressable form of r.
func (r *ContextBatchResource) Resource() addressing.Resource {
	return addressing.Resource{
		Kind:     addressing.KindContextBatch,
		Contexts: r.Contexts,
		Excluded: r.Excluded,
		Type:     r.Type,
		Params:   r.Params,
		Hash:     r.Hash,
	}
}

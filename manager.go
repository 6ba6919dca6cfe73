package webresource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"path"
	"slices"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/internal/metrics"
	"github.com/albertocavalcante/go-webresource/label"
)

// Manager ties resolution, batching and addressing together for page
// rendering and for serving resource requests.
//
// Manager is safe for concurrent use. Per-request state lives in a
// RequestState carried by the context.
type Manager struct {
	catalog   catalog.Catalog
	cfg       *config
	resolver  *DependencyResolver
	addresser *addressing.Addresser
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// New creates a Manager over cat.
func New(cat catalog.Catalog, opts ...Option) (*Manager, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	addresser, err := addressing.New(cfg.baseURL, cfg.devMode)
	if err != nil {
		return nil, err
	}
	rec, err := metrics.New(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return &Manager{
		catalog:   cat,
		cfg:       cfg,
		resolver:  newDependencyResolver(cat, cfg, rec),
		addresser: addresser,
		logger:    cfg.log(),
		metrics:   rec,
	}, nil
}

// Resolver returns the manager's dependency resolver.
func (m *Manager) Resolver() *DependencyResolver {
	return m.resolver
}

// Addresser returns the manager's URL addresser.
func (m *Manager) Addresser() *addressing.Addresser {
	return m.addresser
}

// NewBuilder returns a context batch builder sharing the manager's resolver
// and configuration.
func (m *Manager) NewBuilder() *ContextBatchBuilder {
	return newContextBatchBuilder(m.resolver, m.cfg)
}

// RequireModule marks key as required by the request carried in ctx.
func (m *Manager) RequireModule(ctx context.Context, key label.Key) error {
	rs := RequestStateFrom(ctx)
	if rs == nil {
		return ErrNoRequestState
	}
	rs.RequireModule(key)
	return nil
}

// RequireContext marks c as required by the request carried in ctx.
func (m *Manager) RequireContext(ctx context.Context, c label.Context) error {
	rs := RequestStateFrom(ctx)
	if rs == nil {
		return ErrNoRequestState
	}
	rs.RequireContext(c)
	return nil
}

// RenderRequired writes tags for everything required in the top layer of
// the request state: the super-batch, then context batches, then the
// remaining modules as module batches or single resources. CSS tags precede
// JS tags. Requirements are cleared, and anything already written by an
// earlier call in the same layer is not written again.
func (m *Manager) RenderRequired(ctx context.Context, w io.Writer, mode addressing.URLMode, filter ResourceFilter) error {
	rs := RequestStateFrom(ctx)
	if rs == nil {
		return ErrNoRequestState
	}
	l, modules, contexts := rs.take()
	delivered, deliveredContexts := rs.delivered(l)

	var pending []label.Context
	for _, c := range contexts {
		if !slices.Contains(deliveredContexts, c) {
			pending = append(pending, c)
		}
	}
	planned, now := m.plan(pending, deliveredContexts, modules, delivered, filter)

	var tags []Tag
	for _, p := range planned {
		kind, ok := KindOf(p.Resource.Type)
		if !ok {
			continue
		}
		tags = append(tags, Tag{Kind: kind, URL: m.addresser.URL(p.Resource, mode), Params: p.Resource.Params})
	}
	sortTags(tags)

	var unique []Tag
	for _, t := range tags {
		if rs.markWritten(l, t.URL) {
			unique = append(unique, t)
		}
	}
	rs.recordModules(l, now, pending)
	return writeTags(w, unique)
}

// Planned is one resource a page needs, with the modules it delivers.
type Planned struct {
	Resource addressing.Resource
	Modules  []label.Key
}

// Plan returns the resources that deliver contexts and modules, in
// rendering order: the super-batch, context batches, then module batches
// and single resources. Resources of every type are returned, including
// those with no tag form.
func (m *Manager) Plan(contexts []label.Context, modules []label.Key, filter ResourceFilter) []Planned {
	planned, _ := m.plan(contexts, nil, modules, &KeySet{}, filter)
	return planned
}

// plan implements Plan for a page that already received the contexts in
// excluded and the modules in delivered. It also returns every module the
// plan delivers.
func (m *Manager) plan(contexts, excluded []label.Context, modules []label.Key, delivered *KeySet, filter ResourceFilter) ([]Planned, *KeySet) {
	var out []Planned
	now := &KeySet{}

	if m.resolver.SuperBatchEnabled() {
		sb := m.resolver.superBatchKeys()
		out = append(out, m.superBatchResources(sb, filter)...)
		now.AddAll(sb)
	}

	builder := m.NewBuilder()
	for _, r := range builder.BuildExcluding(contexts, excluded, filter) {
		out = append(out, Planned{Resource: r.Resource(), Modules: r.Modules})
	}
	now.AddAll(builder.Included())

	// Non-batchable context members are served like required modules, with
	// their dependencies.
	rest := m.resolver.ResolveAll(append(builder.Skipped().Keys(), modules...), true)
	seen := &KeySet{}
	for _, key := range rest.keys {
		if delivered.Contains(key) || now.Contains(key) || !seen.Add(key) {
			continue
		}
		if desc, ok := m.catalog.Module(key); ok {
			out = append(out, m.moduleResources(desc, filter)...)
		}
	}
	now.AddAll(seen)
	return out, now
}

// superBatchResources returns one super-batch resource per partition of the
// super-batch modules.
func (m *Manager) superBatchResources(keys *KeySet, filter ResourceFilter) []Planned {
	batch := m.collect(keys.keys, filter)
	hash := m.hash(batch.modules, "superbatch")
	var out []Planned
	for _, p := range batch.partitions {
		out = append(out, Planned{
			Resource: addressing.Resource{
				Kind:   addressing.KindSuperBatch,
				Type:   p.Type,
				Params: p.Params,
				Hash:   hash,
			},
			Modules: batch.Modules(),
		})
	}
	return out
}

// moduleResources returns the module batch partitions of desc followed by
// its unbatched resources. A non-batchable module is served entirely as
// single resources.
func (m *Manager) moduleResources(desc *catalog.ModuleDescriptor, filter ResourceFilter) []Planned {
	var out []Planned
	if desc.Batchable {
		batch := m.collect([]label.Key{desc.Key}, filter)
		hash := m.hash(batch.modules, desc.Key.String())
		for _, p := range batch.partitions {
			out = append(out, Planned{
				Resource: addressing.Resource{
					Kind:   addressing.KindModuleBatch,
					Module: desc.Key,
					Type:   p.Type,
					Params: p.Params,
					Hash:   hash,
				},
				Modules: []label.Key{desc.Key},
			})
		}
	}
	for _, r := range desc.Resources {
		if desc.Batchable && r.Batchable() {
			continue
		}
		if filter != nil && !filter(r) {
			continue
		}
		out = append(out, Planned{
			Resource: addressing.Resource{
				Kind:   addressing.KindSingle,
				Module: desc.Key,
				Type:   r.Type,
				Name:   r.Name,
				Params: r.Params.Discriminating(m.cfg.batchParams),
			},
			Modules: []label.Key{desc.Key},
		})
	}
	return out
}

// collect gathers the batchable partitions of keys into an unnamed batch.
func (m *Manager) collect(keys []label.Key, filter ResourceFilter) *ContextBatch {
	batch := NewContextBatch(label.Context{}, m.cfg.batchParams)
	for _, key := range keys {
		desc, ok := m.catalog.Module(key)
		if !ok {
			continue
		}
		batch.AddModule(desc)
		for _, r := range desc.Resources {
			if r.Batchable() && (filter == nil || filter(r)) {
				batch.AddResourceType(r)
			}
		}
	}
	return batch
}

func (m *Manager) hash(mods []*catalog.ModuleDescriptor, name string) string {
	h, err := hashOrPlaceholder(mods)
	if err != nil {
		m.logger.Warn("cannot compute batch hash, using placeholder", "batch", name, "error", err)
		m.metrics.HashFallback()
	}
	return h
}

// Member is one resource to stream for a request.
type Member struct {
	Module   label.Key
	Resource catalog.Resource
}

// Match is a resolved resource request.
type Match struct {
	Request addressing.Resource

	// Members are the resources to concatenate, in order.
	Members []Member
}

// Modules returns the distinct modules of the match, in order.
func (m *Match) Modules() []label.Key {
	s := &KeySet{}
	for _, mem := range m.Members {
		s.Add(mem.Module)
	}
	return s.Keys()
}

// ResolveRequest maps an incoming request path and query to the resources
// it serves. It returns an error wrapping ErrCannotParse for paths that are
// not resource URLs and ErrNotFound for URLs naming nothing servable.
func (m *Manager) ResolveRequest(p, rawQuery string) (*Match, error) {
	req, err := addressing.Parse(p, rawQuery)
	if err != nil {
		return nil, err
	}
	want := req.Params.Discriminating(m.cfg.batchParams)

	match := &Match{Request: req}
	switch req.Kind {
	case addressing.KindSingle:
		desc, ok := m.servable(req.Module)
		if !ok {
			break
		}
		if r, ok := desc.Resource(req.Name); ok {
			match.Members = append(match.Members, Member{Module: desc.Key, Resource: r})
		}
	case addressing.KindModuleBatch:
		if desc, ok := m.servable(req.Module); ok && desc.Batchable {
			match.Members = m.members([]label.Key{desc.Key}, req.Type, want)
		}
	case addressing.KindContextBatch:
		builder := m.NewBuilder()
		modules := &KeySet{}
		for _, r := range builder.BuildExcluding(req.Contexts, req.Excluded, FilterType(req.Type)) {
			if maps.Equal(r.Params, want) {
				modules.AddAll(NewKeySet(r.Modules...))
			}
		}
		match.Members = m.members(modules.keys, req.Type, want)
	case addressing.KindSuperBatch:
		if m.resolver.SuperBatchEnabled() {
			match.Members = m.members(m.resolver.superBatchKeys().keys, req.Type, want)
		}
	}

	if len(match.Members) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return match, nil
}

// servable looks up an enabled web resource module.
func (m *Manager) servable(key label.Key) (*catalog.ModuleDescriptor, bool) {
	desc, ok := m.catalog.Module(key)
	if !ok || desc.Kind != catalog.KindWebResource || !desc.Enabled {
		return nil, false
	}
	return desc, true
}

// members lists the batchable resources of keys in partition (typ, want).
func (m *Manager) members(keys []label.Key, typ string, want catalog.Params) []Member {
	var out []Member
	for _, key := range keys {
		desc, ok := m.servable(key)
		if !ok {
			continue
		}
		for _, r := range desc.Resources {
			if r.Type != typ || !r.Batchable() {
				continue
			}
			if !maps.Equal(r.Params.Discriminating(m.cfg.batchParams), want) {
				continue
			}
			out = append(out, Member{Module: key, Resource: r})
		}
	}
	return out
}

// ResourceSource opens the content of a module's resource.
type ResourceSource interface {
	Open(module label.Key, name string) (io.ReadCloser, error)
}

// FSSource serves resources from a file system laid out as
// {plugin}/{module}/{resource name}.
type FSSource struct {
	FS fs.FS
}

// Open implements ResourceSource.
func (s FSSource) Open(module label.Key, name string) (io.ReadCloser, error) {
	return s.FS.Open(path.Join(module.Plugin(), module.Module(), name))
}

// WriteMatch streams the members of match to w, newline separated. Members
// that cannot be opened are logged and skipped; a failed write is returned.
func (m *Manager) WriteMatch(ctx context.Context, w io.Writer, match *Match, source ResourceSource) error {
	for i, mem := range match.Members {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := source.Open(mem.Module, mem.Resource.Name)
		if err != nil {
			m.logger.Warn("cannot open resource", "module", mem.Module.String(), "resource", mem.Resource.Name, "error", err)
			continue
		}
		_, err = io.Copy(w, rc)
		if cerr := rc.Close(); cerr != nil {
			m.logger.Debug("cannot close resource", "module", mem.Module.String(), "resource", mem.Resource.Name, "error", cerr)
		}
		if err != nil {
			return fmt.Errorf("writing %s/%s: %w", mem.Module, mem.Resource.Name, err)
		}
		if i < len(match.Members)-1 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

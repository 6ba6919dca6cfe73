package catalog

import (
	"path"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-webresource/label"
)

// Kind identifies the kind of plugin module a descriptor was declared as.
type Kind string

const (
	// KindWebResource is the only kind the resolver expands.
	KindWebResource Kind = "web-resource"
)

// Parameter names with special meaning to batching.
const (
	ParamIEOnly             = "ieonly"
	ParamMedia              = "media"
	ParamContentType        = "content-type"
	ParamCache              = "cache"
	ParamConditionalComment = "conditionalComment"

	// ParamBatch set to "false" keeps a resource out of every batch.
	ParamBatch = "batch"
)

// BatchParams are the parameters whose values must match for two resources
// of the same type to share a batch.
var BatchParams = []string{
	ParamIEOnly,
	ParamMedia,
	ParamContentType,
	ParamCache,
	ParamConditionalComment,
}

// Params is the parameter map of a resource.
type Params map[string]string

// Clone returns a copy of p. A nil map clones to nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Discriminating returns the subset of p named in names. Missing parameters
// are absent from the result, so "missing" and "present" never compare equal.
func (p Params) Discriminating(names []string) Params {
	out := Params{}
	for _, name := range names {
		if v, ok := p[name]; ok {
			out[name] = v
		}
	}
	return out
}

// SortedKeys returns the parameter names in lexical order.
func (p Params) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Canonical renders p as "k1=v1&k2=v2" with sorted keys. Equal maps always
// render identically.
func (p Params) Canonical() string {
	var b strings.Builder
	for i, k := range p.SortedKeys() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p[k])
	}
	return b.String()
}

// Resource describes one static asset owned by a module.
type Resource struct {
	// Name is the resource name, e.g. "core.js" or "images/logo.png".
	Name string `json:"name"`

	// Type is the file suffix without the dot, e.g. "css" or "js".
	Type string `json:"type"`

	// Params holds declared parameters such as "media" or "ieonly".
	Params Params `json:"params,omitempty"`
}

// Batchable reports whether the resource may be merged into a batch.
func (r Resource) Batchable() bool {
	return r.Params[ParamBatch] != "false"
}

// NewResource builds a Resource, inferring its type from the name suffix.
func NewResource(name string, params Params) Resource {
	return Resource{Name: name, Type: TypeOf(name), Params: params}
}

// TypeOf returns the type suffix of a resource name ("core.min.js" -> "js").
func TypeOf(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}

// ModuleDescriptor is a read-only snapshot of a declared module.
type ModuleDescriptor struct {
	// Key is the module's complete key.
	Key label.Key `json:"key"`

	// Kind is the module kind; only KindWebResource modules are resolved.
	Kind Kind `json:"kind"`

	// Enabled is false when the owning plugin disabled the module.
	Enabled bool `json:"enabled"`

	// Batchable is false for modules that must always be served unbatched.
	Batchable bool `json:"batchable"`

	// Resources are the declared assets in declaration order.
	Resources []Resource `json:"resources"`

	// Dependencies are complete keys of required modules in declaration order.
	Dependencies []label.Key `json:"dependencies"`

	// Contexts are the context names the module belongs to.
	Contexts []label.Context `json:"contexts"`

	// Version is the owning plugin's version string.
	Version string `json:"version"`
}

// InContext reports whether the module declares membership in c.
func (m *ModuleDescriptor) InContext(c label.Context) bool {
	return slices.Contains(m.Contexts, c)
}

// Resource returns the resource with the given name.
func (m *ModuleDescriptor) Resource(name string) (Resource, bool) {
	for _, r := range m.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// clone returns a deep copy so stored descriptors cannot be mutated by callers.
func (m *ModuleDescriptor) clone() *ModuleDescriptor {
	out := *m
	out.Resources = make([]Resource, len(m.Resources))
	for i, r := range m.Resources {
		r.Params = r.Params.Clone()
		out.Resources[i] = r
	}
	out.Dependencies = slices.Clone(m.Dependencies)
	out.Contexts = slices.Clone(m.Contexts)
	return &out
}

// Catalog is the read interface the resolver consumes.
//
// Implementations must be safe for concurrent use.
type Catalog interface {
	// Module returns the descriptor for key in whatever state it is in,
	// or false if no such module is declared.
	Module(key label.Key) (*ModuleDescriptor, bool)

	// ContextModules returns the keys of enabled web-resource modules that
	// declare context c, in registration order.
	ContextModules(c label.Context) []label.Key
}

package manifest

import (
	"slices"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/label"
)

// CurrentVersion is the manifest schema version written by this package.
const CurrentVersion = 1

// Manifest maps batch keys to their entries.
type Manifest struct {
	// Version is the schema version.
	Version int `json:"manifestVersion"`

	// Batches holds one entry per batch key.
	Batches map[string]Entry `json:"batches"`
}

// Entry describes one served batch.
type Entry struct {
	// Kind is the addressing kind name, e.g. "contextbatch".
	Kind string `json:"kind"`

	// Hash is the content hash of the batch.
	Hash string `json:"hash"`

	// URL is the full URL the batch was rendered under.
	URL string `json:"url,omitempty"`

	// Modules are the contributing module keys, in batch order.
	Modules []string `json:"modules,omitempty"`
}

// New creates an empty manifest at the current version.
func New() *Manifest {
	return &Manifest{
		Version: CurrentVersion,
		Batches: make(map[string]Entry),
	}
}

// Key returns the manifest key of r: its development-mode path and query.
func Key(r addressing.Resource) string {
	key := r.Path(true)
	if q := r.Query(); q != "" {
		key += "?" + q
	}
	return key
}

// Add records r as served at url, delivering modules.
func (m *Manifest) Add(r addressing.Resource, url string, modules []label.Key) {
	names := make([]string, len(modules))
	for i, k := range modules {
		names[i] = k.String()
	}
	m.Set(Key(r), Entry{Kind: r.Kind.String(), Hash: r.Hash, URL: url, Modules: names})
}

// Set stores e under key.
func (m *Manifest) Set(key string, e Entry) {
	if m.Batches == nil {
		m.Batches = make(map[string]Entry)
	}
	e.Modules = slices.Clone(e.Modules)
	m.Batches[key] = e
}

// Get returns the entry for key.
func (m *Manifest) Get(key string) (Entry, bool) {
	e, ok := m.Batches[key]
	return e, ok
}

// Keys returns every batch key, sorted.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.Batches))
	for k := range m.Batches {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Batches)
}

// Package addressing builds and parses the canonical URLs under which
// single resources, module batches, context batches and the super-batch are
// served.
//
// Canonical paths:
//
//	/download/resources/{moduleKey}/{resourceName}
//	/download/batch/{moduleKey}/{moduleKey}.{type}
//	/download/contextbatch/{type}/{ctx1,ctx2}/batch.{type}
//	/download/superbatch/{type}/sb_{hash}.{type}
//
// Hashed batches (module and context batches) are additionally prefixed with
// a static cache-busting segment "/s/{hash}/_" so a content change produces
// a new URL. Development mode drops both the static prefix and the
// super-batch hash.
//
// Query parameters carry the discriminating batch parameters, encoded with
// sorted keys so identical parameter sets always yield byte-identical URLs.
package addressing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

// ErrCannotParse indicates a request path that is not a recognizable
// resource URL. Callers typically answer it with a 400-class response.
var ErrCannotParse = errors.New("cannot parse resource path")

// Kind is the kind of an addressable resource.
type Kind int

const (
	KindSingle Kind = iota + 1
	KindModuleBatch
	KindContextBatch
	KindSuperBatch
)

// Path markers. Each one identifies its kind wherever it appears in a path.
const (
	DownloadPrefix     = "/download"
	SinglePrefix       = DownloadPrefix + "/resources/"
	ModuleBatchPrefix  = DownloadPrefix + "/batch/"
	ContextBatchPrefix = DownloadPrefix + "/contextbatch/"
	SuperBatchPrefix   = DownloadPrefix + "/superbatch/"

	staticMarker = "/s/"
	staticSuffix = "/_"

	contextBatchName = "batch"
	superBatchName   = "sb"
)

// String returns the kind name used in logs and CLI output.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindModuleBatch:
		return "batch"
	case KindContextBatch:
		return "contextbatch"
	case KindSuperBatch:
		return "superbatch"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Depth returns the number of path segments from "download" to the resource
// name inclusive, for a resource name without slashes. Relative references
// inside a served CSS file climb this many levels to reach the prefix.
func (k Kind) Depth() int {
	switch k {
	case KindContextBatch:
		return 5
	case KindSingle, KindModuleBatch, KindSuperBatch:
		return 4
	}
	return 0
}

func (k Kind) prefix() string {
	switch k {
	case KindSingle:
		return SinglePrefix
	case KindModuleBatch:
		return ModuleBatchPrefix
	case KindContextBatch:
		return ContextBatchPrefix
	case KindSuperBatch:
		return SuperBatchPrefix
	}
	return ""
}

// Resource is an addressable resource: one asset, or one partition of a batch.
type Resource struct {
	Kind Kind

	// Module is set for KindSingle and KindModuleBatch.
	Module label.Key

	// Contexts is set for KindContextBatch, in batch order.
	Contexts []label.Context

	// Excluded lists, for KindContextBatch, contexts whose modules the batch
	// leaves out because the page already received them.
	Excluded []label.Context

	// Type is the resource type suffix ("css", "js").
	Type string

	// Name is the resource name segment. Empty selects the kind's default.
	Name string

	// Params are the discriminating parameters, encoded as the query string.
	Params catalog.Params

	// Hash is the cache-busting batch hash. Empty means unhashed.
	Hash string
}

// ResourceName returns the name segment, applying the kind's default when
// Name is empty.
func (r Resource) ResourceName(devMode bool) string {
	if r.Name != "" {
		return r.Name
	}
	switch r.Kind {
	case KindModuleBatch:
		return r.Module.String() + "." + r.Type
	case KindContextBatch:
		return contextBatchName + "." + r.Type
	case KindSuperBatch:
		if devMode || r.Hash == "" {
			return superBatchName + "." + r.Type
		}
		return superBatchName + "_" + r.Hash + "." + r.Type
	}
	return ""
}

// Path returns the canonical path of r, without static prefix or query.
func (r Resource) Path(devMode bool) string {
	var b strings.Builder
	b.WriteString(r.Kind.prefix())
	switch r.Kind {
	case KindSingle, KindModuleBatch:
		b.WriteString(r.Module.String())
	case KindContextBatch:
		b.WriteString(url.PathEscape(r.Type))
		b.WriteByte('/')
		b.WriteString(escapeContexts(r.Contexts, r.Excluded))
	case KindSuperBatch:
		b.WriteString(url.PathEscape(r.Type))
	}
	b.WriteByte('/')
	b.WriteString(escapeName(r.ResourceName(devMode)))
	return b.String()
}

// Query returns the encoded discriminating parameters, sorted by key.
func (r Resource) Query() string {
	if len(r.Params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range r.Params {
		values.Set(k, v)
	}
	// url.Values.Encode sorts by key.
	return values.Encode()
}

// hashedPrefix reports whether r is addressed below a static cache-busting prefix.
func (r Resource) hashedPrefix(devMode bool) bool {
	if devMode || r.Hash == "" {
		return false
	}
	return r.Kind == KindModuleBatch || r.Kind == KindContextBatch
}

// escapeContexts joins path-escaped context names, excluded ones prefixed
// with label.ExcludePrefix.
func escapeContexts(contexts, excluded []label.Context) string {
	parts := make([]string, 0, len(contexts)+len(excluded))
	for _, c := range contexts {
		parts = append(parts, url.PathEscape(c.String()))
	}
	for _, c := range excluded {
		parts = append(parts, label.ExcludePrefix+url.PathEscape(c.String()))
	}
	return strings.Join(parts, label.ContextSeparator)
}

func escapeName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func unescapeName(name string) (string, error) {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		u, err := url.PathUnescape(p)
		if err != nil {
			return "", err
		}
		parts[i] = u
	}
	return strings.Join(parts, "/"), nil
}

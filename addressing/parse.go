package addressing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

var kindsByPrefix = []Kind{KindContextBatch, KindSuperBatch, KindModuleBatch, KindSingle}

// Parse parses an incoming request path and raw query string into a
// Resource. Any prefix before the canonical "/download/..." segment (a
// context path, a locale segment, a static prefix) is tolerated; a static
// "/s/{hash}/_" prefix immediately before it is recovered as the Hash.
//
// If rawQuery is empty and path contains '?', the query is taken from path.
// Failures wrap ErrCannotParse.
func Parse(path, rawQuery string) (Resource, error) {
	if rawQuery == "" {
		if p, q, ok := strings.Cut(path, "?"); ok {
			path, rawQuery = p, q
		}
	}

	kind, prefix, rest := locate(path)
	if kind == 0 {
		return Resource{}, fmt.Errorf("%w: %q: no resource marker", ErrCannotParse, path)
	}

	r := Resource{Kind: kind, Hash: staticHash(prefix)}

	var err error
	switch kind {
	case KindSingle, KindModuleBatch:
		err = parseModulePath(&r, rest)
	case KindContextBatch:
		err = parseContextBatchPath(&r, rest)
	case KindSuperBatch:
		err = parseSuperBatchPath(&r, rest)
	}
	if err != nil {
		return Resource{}, fmt.Errorf("%w: %q: %v", ErrCannotParse, path, err)
	}

	if rawQuery != "" {
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return Resource{}, fmt.Errorf("%w: %q: bad query: %v", ErrCannotParse, path, err)
		}
		r.Params = make(catalog.Params, len(values))
		for k, v := range values {
			if len(v) > 0 {
				r.Params[k] = v[0]
			}
		}
	}
	return r, nil
}

// locate finds the first resource marker in path and splits around it.
func locate(path string) (Kind, string, string) {
	best, bestIdx := Kind(0), -1
	for _, k := range kindsByPrefix {
		idx := strings.Index(path, k.prefix())
		if idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = k, idx
		}
	}
	if bestIdx < 0 {
		return 0, "", ""
	}
	return best, path[:bestIdx], path[bestIdx+len(best.prefix()):]
}

// staticHash extracts {hash} from a prefix ending in "/s/{hash}/_".
func staticHash(prefix string) string {
	trimmed, ok := strings.CutSuffix(prefix, staticSuffix)
	if !ok {
		return ""
	}
	idx := strings.LastIndex(trimmed, staticMarker)
	if idx < 0 {
		return ""
	}
	hash, err := url.PathUnescape(trimmed[idx+len(staticMarker):])
	if err != nil || strings.Contains(hash, "/") {
		return ""
	}
	return hash
}

func parseModulePath(r *Resource, rest string) error {
	keyPart, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		return fmt.Errorf("missing resource name")
	}
	key, err := label.ParseKey(keyPart)
	if err != nil {
		return err
	}
	r.Module = key
	if r.Name, err = unescapeName(name); err != nil {
		return err
	}
	r.Type = catalog.TypeOf(r.Name)
	if r.Kind == KindModuleBatch {
		if r.Type == "" {
			return fmt.Errorf("batch name %q has no type", r.Name)
		}
		if r.Name == r.ResourceNameDefault() {
			r.Name = ""
		}
	}
	return nil
}

func parseContextBatchPath(r *Resource, rest string) error {
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return fmt.Errorf("want {type}/{contexts}/{name}")
	}
	contexts, excluded, err := unescapeContexts(parts[1])
	if err != nil {
		return err
	}
	r.Type = parts[0]
	r.Contexts = contexts
	r.Excluded = excluded
	if r.Name, err = unescapeName(parts[2]); err != nil {
		return err
	}
	if r.Name == r.ResourceNameDefault() {
		r.Name = ""
	}
	return nil
}

// unescapeContexts splits a context list written by escapeContexts. At least
// one included context is required.
func unescapeContexts(s string) ([]label.Context, []label.Context, error) {
	var contexts, excluded []label.Context
	for _, part := range strings.Split(s, label.ContextSeparator) {
		raw, isExcluded := strings.CutPrefix(part, label.ExcludePrefix)
		name, err := url.PathUnescape(raw)
		if err != nil {
			return nil, nil, err
		}
		c, err := label.NewContext(name)
		if err != nil {
			return nil, nil, err
		}
		if isExcluded {
			excluded = append(excluded, c)
		} else {
			contexts = append(contexts, c)
		}
	}
	if len(contexts) == 0 {
		return nil, nil, fmt.Errorf("no included context in %q", s)
	}
	return contexts, excluded, nil
}

func parseSuperBatchPath(r *Resource, rest string) error {
	typ, name, ok := strings.Cut(rest, "/")
	if !ok || typ == "" || name == "" {
		return fmt.Errorf("want {type}/{name}")
	}
	r.Type = typ
	suffix := "." + typ
	base, ok := strings.CutSuffix(name, suffix)
	if !ok {
		return fmt.Errorf("super-batch name %q does not end in %q", name, suffix)
	}
	switch {
	case base == superBatchName:
		r.Hash = ""
	case strings.HasPrefix(base, superBatchName+"_") && len(base) > len(superBatchName)+1:
		r.Hash = base[len(superBatchName)+1:]
	default:
		return fmt.Errorf("unrecognized super-batch name %q", name)
	}
	return nil
}

// ResourceNameDefault is the name segment the kind uses when Name is empty,
// ignoring dev mode.
func (r Resource) ResourceNameDefault() string {
	n := r
	n.Name = ""
	return n.ResourceName(false)
}

package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-webresource/internal/buildutil"
	"github.com/albertocavalcante/go-webresource/label"
)

// Position represents a source position for diagnostics.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
	}
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Pos.Filename, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// ParseResult contains the descriptors declared in one file and any diagnostics.
type ParseResult struct {
	// Plugin is the key declared by plugin(key = ...).
	Plugin string

	// Version is the plugin version declared by plugin(version = ...).
	Version string

	// Modules are the declared modules in file order.
	Modules []*ModuleDescriptor

	Errors   []*ParseError
	Warnings []*ParseError
}

// HasErrors returns true if there were parse errors.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins all collected errors, or returns nil.
func (r *ParseResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// ParseFile reads and parses a descriptor file from disk.
func ParseFile(filename string) (*ParseResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return ParseContent(filename, data)
}

// ParseContent parses descriptor content. A syntax error is returned as a
// *ParseError; semantic problems are collected in the result.
func ParseContent(filename string, content []byte) (*ParseResult, error) {
	p := &parser{filename: filename}
	return p.parse(content)
}

type parser struct {
	filename string
	result   *ParseResult
}

func (p *parser) parse(content []byte) (*ParseResult, error) {
	raw, err := build.ParseDefault(p.filename, content)
	if err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: p.filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		}
	}

	p.result = &ParseResult{}
	for _, stmt := range raw.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			continue
		}
		pos := p.position(call)
		switch name := buildutil.FuncName(call); name {
		case "plugin":
			p.parsePlugin(call, pos)
		case "web_resource":
			p.parseModule(call, pos, KindWebResource)
		case "plugin_module":
			kind := buildutil.String(call, "kind")
			if kind == "" {
				p.addError(pos, "plugin_module: missing required kind")
				continue
			}
			p.parseModule(call, pos, Kind(kind))
		default:
			p.addWarning(pos, "ignoring unknown statement %q", name)
		}
	}
	return p.result, nil
}

func (p *parser) parsePlugin(call *build.CallExpr, pos Position) {
	if p.result.Plugin != "" {
		p.addError(pos, "plugin: declared more than once")
		return
	}
	key := buildutil.String(call, "key")
	if key == "" {
		p.addError(pos, "plugin: missing required key")
		return
	}
	p.result.Plugin = key
	p.result.Version = buildutil.String(call, "version")
	if p.result.Version == "" {
		p.addWarning(pos, "plugin %q has no version; batch hashes will not change between releases", key)
	}
}

func (p *parser) parseModule(call *build.CallExpr, pos Position, kind Kind) {
	fn := buildutil.FuncName(call)
	if p.result.Plugin == "" {
		p.addError(pos, "%s: must follow a plugin() declaration", fn)
		return
	}

	moduleKey := buildutil.String(call, "key")
	key, err := label.NewKey(p.result.Plugin, moduleKey)
	if err != nil {
		p.addError(pos, "%s: %v", fn, err)
		return
	}

	enabled, _ := buildutil.Bool(call, "enabled", true)
	batchable, _ := buildutil.Bool(call, "batch", true)
	m := &ModuleDescriptor{
		Key:       key,
		Kind:      kind,
		Enabled:   enabled,
		Batchable: batchable,
		Version:   p.result.Version,
	}

	for _, dep := range buildutil.StringList(call, "dependencies") {
		depKey, err := label.ParseRelativeKey(p.result.Plugin, dep)
		if err != nil {
			p.addError(pos, "%s %s: dependency: %v", fn, key, err)
			continue
		}
		if depKey == key {
			p.addWarning(pos, "%s %s: ignoring dependency on itself", fn, key)
			continue
		}
		m.Dependencies = append(m.Dependencies, depKey)
	}

	for _, name := range buildutil.StringList(call, "contexts") {
		c, err := label.NewContext(name)
		if err != nil {
			p.addError(pos, "%s %s: %v", fn, key, err)
			continue
		}
		if !m.InContext(c) {
			m.Contexts = append(m.Contexts, c)
		}
	}

	for _, rc := range buildutil.Calls(call, "resources") {
		rpos := p.position(rc)
		if buildutil.FuncName(rc) != "resource" {
			p.addWarning(rpos, "%s %s: ignoring non-resource entry", fn, key)
			continue
		}
		name := buildutil.String(rc, "name")
		if name == "" {
			p.addError(rpos, "resource: missing required name")
			continue
		}
		if _, dup := m.Resource(name); dup {
			p.addError(rpos, "%s %s: duplicate resource %q", fn, key, name)
			continue
		}
		r := NewResource(name, Params(buildutil.StringDict(rc, "params")))
		if t := buildutil.String(rc, "type"); t != "" {
			r.Type = t
		}
		if len(r.Params) == 0 {
			r.Params = nil
		}
		m.Resources = append(m.Resources, r)
	}

	p.result.Modules = append(p.result.Modules, m)
}

func (p *parser) position(expr build.Expr) Position {
	start, _ := expr.Span()
	return Position{
		Filename: p.filename,
		Line:     start.Line,
		Column:   start.LineRune,
	}
}

func (p *parser) addError(pos Position, format string, args ...any) {
	p.result.Errors = append(p.result.Errors, &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) addWarning(pos Position, format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

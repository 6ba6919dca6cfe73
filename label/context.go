package label

import (
	"fmt"
	"strings"
)

// ContextSeparator joins context names in merged batch keys and URLs.
const ContextSeparator = ","

// ExcludePrefix marks an excluded context in a context batch URL, as in
// "x,y,-z". Context names may not begin with it.
const ExcludePrefix = "-"

const forbiddenContextChars = ",/?#"

// Context is a validated context name.
type Context struct {
	name string
}

// NewContext creates a validated Context.
func NewContext(name string) (Context, error) {
	if name == "" {
		return Context{}, fmt.Errorf("context name cannot be empty")
	}
	if strings.ContainsAny(name, forbiddenContextChars) {
		return Context{}, fmt.Errorf("invalid context %q: may not contain any of %q", name, forbiddenContextChars)
	}
	if strings.HasPrefix(name, ExcludePrefix) {
		return Context{}, fmt.Errorf("invalid context %q: may not begin with %q", name, ExcludePrefix)
	}
	if strings.IndexFunc(name, isSpace) >= 0 {
		return Context{}, fmt.Errorf("invalid context %q: may not contain whitespace", name)
	}
	return Context{name: name}, nil
}

// MustContext creates a Context or panics. Use only for constants/tests.
func MustContext(name string) Context {
	c, err := NewContext(name)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the context name.
func (c Context) String() string {
	return c.name
}

// IsEmpty returns true if this is a zero-value Context.
func (c Context) IsEmpty() bool {
	return c.name == ""
}

// JoinContexts joins context names with ContextSeparator, preserving order.
func JoinContexts(contexts []Context) string {
	names := make([]string, len(contexts))
	for i, c := range contexts {
		names[i] = c.name
	}
	return strings.Join(names, ContextSeparator)
}

// SplitContexts parses a joined context list produced by JoinContexts.
func SplitContexts(s string) ([]Context, error) {
	if s == "" {
		return nil, fmt.Errorf("context list cannot be empty")
	}
	parts := strings.Split(s, ContextSeparator)
	result := make([]Context, 0, len(parts))
	for _, p := range parts {
		c, err := NewContext(p)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// MarshalText implements encoding.TextMarshaler.
func (c Context) MarshalText() ([]byte, error) {
	return []byte(c.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Context) UnmarshalText(text []byte) error {
	parsed, err := NewContext(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Package label provides validated identifiers for web-resource modules and
// contexts.
//
// All types in this package are immutable and validate their values at
// construction time. Zero values are invalid; use the constructor functions
// (NewKey, ParseKey, NewContext) to create valid instances.
//
// # Types
//
//   - [Key]: a complete module key, "plugin-key:module-key" (e.g. "com.example.app:core")
//   - [Context]: a context name (e.g. "atl.general")
//
// # Validation Patterns
//
// Plugin and module keys must match: [A-Za-z0-9_]([A-Za-z0-9._-]*)
// Contexts must be non-empty and may not contain ',', '/', '?', '#' or whitespace.
package label

import (
	"fmt"
	"regexp"
	"strings"
)

// KeySeparator separates the plugin key from the module key in a complete key.
const KeySeparator = ":"

var keyPartRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// Key is the complete key of a web-resource module. It is comparable and can
// be used as a map key.
type Key struct {
	plugin string
	module string
}

// NewKey creates a validated Key from its plugin and module parts.
func NewKey(plugin, module string) (Key, error) {
	if plugin == "" {
		return Key{}, fmt.Errorf("plugin key cannot be empty")
	}
	if module == "" {
		return Key{}, fmt.Errorf("module key cannot be empty")
	}
	if !keyPartRegex.MatchString(plugin) {
		return Key{}, fmt.Errorf("invalid plugin key %q", plugin)
	}
	if !keyPartRegex.MatchString(module) {
		return Key{}, fmt.Errorf("invalid module key %q", module)
	}
	return Key{plugin: plugin, module: module}, nil
}

// ParseKey parses a complete key of the form "plugin-key:module-key".
func ParseKey(s string) (Key, error) {
	plugin, module, ok := strings.Cut(s, KeySeparator)
	if !ok {
		return Key{}, fmt.Errorf("invalid complete key %q: missing %q", s, KeySeparator)
	}
	k, err := NewKey(plugin, module)
	if err != nil {
		return Key{}, fmt.Errorf("invalid complete key %q: %w", s, err)
	}
	return k, nil
}

// ParseRelativeKey parses s, resolving the short form ":module-key" against
// the given plugin key.
func ParseRelativeKey(plugin, s string) (Key, error) {
	if rest, ok := strings.CutPrefix(s, KeySeparator); ok {
		return NewKey(plugin, rest)
	}
	return ParseKey(s)
}

// MustKey parses a complete key or panics. Use only for constants/tests.
func MustKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Plugin returns the plugin part of the key.
func (k Key) Plugin() string {
	return k.plugin
}

// Module returns the module part of the key.
func (k Key) Module() string {
	return k.module
}

// String returns the complete key.
func (k Key) String() string {
	if k.IsEmpty() {
		return ""
	}
	return k.plugin + KeySeparator + k.module
}

// IsEmpty returns true if this is a zero-value Key.
func (k Key) IsEmpty() bool {
	return k.plugin == "" && k.module == ""
}

// Compare orders keys by their string form.
func (k Key) Compare(other Key) int {
	return strings.Compare(k.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

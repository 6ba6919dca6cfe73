package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// filePermissions is the file mode for written manifests.
const filePermissions = 0o644

// ReadFile reads and parses a manifest from path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest JSON. Manifests from a newer schema are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	if m.Version > CurrentVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported version %d", m.Version, CurrentVersion)
	}

	// Initialize nil maps to empty maps for consistency
	if m.Batches == nil {
		m.Batches = make(map[string]Entry)
	}
	return &m, nil
}

// WriteFile writes the manifest to path with deterministic formatting.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePermissions)
}

// WriteTo writes the manifest to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the manifest as indented JSON with sorted keys.
func (m *Manifest) Marshal() ([]byte, error) {
	ordered := orderedManifest{
		Version: m.Version,
		Batches: orderedEntries{keys: m.Keys(), values: m.Batches},
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ordered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orderedManifest is used for deterministic JSON output.
type orderedManifest struct {
	Version int            `json:"manifestVersion"`
	Batches orderedEntries `json:"batches"`
}

// orderedEntries marshals a map in the order of keys.
type orderedEntries struct {
	keys   []string
	values map[string]Entry
}

func (o orderedEntries) MarshalJSON() ([]byte, error) {
	if len(o.keys) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := marshalNoEscape(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape is json.Marshal without HTML escaping, so URLs with '&'
// stay readable.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Exists reports whether a manifest file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

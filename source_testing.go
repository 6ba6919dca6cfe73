package webresource

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/albertocavalcante/go-webresource/label"
)

// Compile-time interface compliance checks
var _ ResourceSource = (*MemorySource)(nil)
var _ ResourceSource = (*FailingSource)(nil)
var _ ResourceSource = FSSource{}

// MemorySource is a thread-safe in-memory ResourceSource for testing.
type MemorySource struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		items: make(map[string]string),
	}
}

// Open returns the stored content, or an error wrapping ErrNotFound.
func (s *MemorySource) Open(module label.Key, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.items[sourceKey(module, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// Put stores content for the resource.
func (s *MemorySource) Put(module label.Key, name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sourceKey(module, name)] = content
}

// Len returns the number of stored resources.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func sourceKey(module label.Key, name string) string {
	return module.String() + "/" + name
}

// ErrSourceFailure is returned by FailingSource.
var ErrSourceFailure = errors.New("source failure")

// FailingSource is a ResourceSource that always fails to open.
// Useful for testing error handling paths.
type FailingSource struct {
	// Err is returned by Open. Defaults to ErrSourceFailure if nil.
	Err error
}

// Open returns the configured error.
func (s *FailingSource) Open(label.Key, string) (io.ReadCloser, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return nil, ErrSourceFailure
}

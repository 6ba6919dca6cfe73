package webresource

import (
	"context"
	"slices"
	"sync"

	"github.com/albertocavalcante/go-webresource/label"
)

// RequestState holds the resources required while rendering one request.
//
// The state is a stack of layers. Push opens an empty layer for a nested
// rendering pass, for example a page fragment rendered separately from its
// page, and Pop discards it so the outer layer continues where it left off.
// Requirements and write bookkeeping always apply to the top layer.
//
// RequestState is safe for concurrent use.
type RequestState struct {
	mu     sync.Mutex
	layers []*layer
}

// layer is one level of request requirements.
type layer struct {
	modules  KeySet
	contexts []label.Context

	// written records what earlier renders in this layer already emitted.
	written        KeySet
	writtenContext []label.Context
	writtenURLs    map[string]struct{}
}

func newLayer() *layer {
	return &layer{writtenURLs: make(map[string]struct{})}
}

// NewRequestState returns a state with one empty layer.
func NewRequestState() *RequestState {
	return &RequestState{layers: []*layer{newLayer()}}
}

// Push opens a fresh, empty layer.
func (s *RequestState) Push() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, newLayer())
}

// Pop discards the top layer. The bottom layer is never popped; Pop reports
// whether a layer was removed.
func (s *RequestState) Pop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.layers) <= 1 {
		return false
	}
	s.layers = s.layers[:len(s.layers)-1]
	return true
}

// Depth returns the number of layers.
func (s *RequestState) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// RequireModule marks key as required in the top layer.
func (s *RequestState) RequireModule(key label.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top().modules.Add(key)
}

// RequireContext marks c as required in the top layer.
func (s *RequestState) RequireContext(c label.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.top()
	if !slices.Contains(l.contexts, c) {
		l.contexts = append(l.contexts, c)
	}
}

// Required returns the modules and contexts required in the top layer and
// not yet rendered.
func (s *RequestState) Required() ([]label.Key, []label.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.top()
	return l.modules.Keys(), slices.Clone(l.contexts)
}

// take returns the pending requirements of the top layer and clears them.
func (s *RequestState) take() (*layer, []label.Key, []label.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.top()
	modules, contexts := l.modules.Keys(), l.contexts
	l.modules = KeySet{}
	l.contexts = nil
	return l, modules, contexts
}

// markWritten records url and reports whether it was new to layer l.
func (s *RequestState) markWritten(l *layer, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := l.writtenURLs[url]; ok {
		return false
	}
	l.writtenURLs[url] = struct{}{}
	return true
}

// recordModules remembers modules and contexts as delivered in layer l.
func (s *RequestState) recordModules(l *layer, modules *KeySet, contexts []label.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.written.AddAll(modules)
	for _, c := range contexts {
		if !slices.Contains(l.writtenContext, c) {
			l.writtenContext = append(l.writtenContext, c)
		}
	}
}

// delivered returns copies of what layer l already delivered.
func (s *RequestState) delivered(l *layer) (*KeySet, []label.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.written.Clone(), slices.Clone(l.writtenContext)
}

// Written returns the modules already delivered by renders in the top layer.
func (s *RequestState) Written() []label.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top().written.Keys()
}

func (s *RequestState) top() *layer {
	if len(s.layers) == 0 {
		s.layers = append(s.layers, newLayer())
	}
	return s.layers[len(s.layers)-1]
}

type requestStateKey struct{}

// WithRequestState returns a copy of ctx carrying rs.
func WithRequestState(ctx context.Context, rs *RequestState) context.Context {
	return context.WithValue(ctx, requestStateKey{}, rs)
}

// RequestStateFrom returns the state carried by ctx, or nil.
func RequestStateFrom(ctx context.Context) *RequestState {
	rs, _ := ctx.Value(requestStateKey{}).(*RequestState)
	return rs
}

package webresource

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-webresource/label"
)

// KeySet is an insertion-ordered, duplicate-free set of module keys.
//
// Dependency closures are KeySets: every dependency precedes its dependents
// and no key appears twice. The zero value is an empty set ready to use.
type KeySet struct {
	keys  []label.Key
	index map[label.Key]struct{}
}

// NewKeySet returns a set holding keys in order, dropping repeats.
func NewKeySet(keys ...label.Key) *KeySet {
	s := &KeySet{}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add appends k if absent and reports whether it was added.
func (s *KeySet) Add(k label.Key) bool {
	if s.index == nil {
		s.index = make(map[label.Key]struct{})
	}
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.keys = append(s.keys, k)
	return true
}

// AddAll adds every key of other, in order.
func (s *KeySet) AddAll(other *KeySet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		s.Add(k)
	}
}

// Contains reports whether k is in the set. A nil set contains nothing.
func (s *KeySet) Contains(k label.Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[k]
	return ok
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns a copy of the keys in insertion order.
func (s *KeySet) Keys() []label.Key {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// Clone returns an independent copy.
func (s *KeySet) Clone() *KeySet {
	out := &KeySet{}
	out.AddAll(s)
	return out
}

// String renders the keys as "[a:b c:d]".
func (s *KeySet) String() string {
	if s == nil {
		return "[]"
	}
	parts := make([]string, len(s.keys))
	for i, k := range s.keys {
		parts[i] = k.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

package catalog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/albertocavalcante/go-webresource/label"
)

var _ Catalog = (*MemoryCatalog)(nil)

// MemoryCatalog is a thread-safe in-memory Catalog.
//
// Registration order is preserved: ContextModules reports modules in the
// order they were first registered, and re-registering a key keeps its slot.
type MemoryCatalog struct {
	mu      sync.RWMutex
	modules map[label.Key]*ModuleDescriptor
	order   []label.Key
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		modules: make(map[label.Key]*ModuleDescriptor),
	}
}

// Put registers or replaces a module descriptor. The descriptor is copied.
func (c *MemoryCatalog) Put(m *ModuleDescriptor) error {
	if m == nil {
		return fmt.Errorf("descriptor is nil")
	}
	if m.Key.IsEmpty() {
		return fmt.Errorf("descriptor has no key")
	}

	stored := m.clone()
	if stored.Kind == "" {
		stored.Kind = KindWebResource
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.modules[m.Key]; !exists {
		c.order = append(c.order, m.Key)
	}
	c.modules[m.Key] = stored
	return nil
}

// Remove unregisters a module. Removing an unknown key is a no-op.
func (c *MemoryCatalog) Remove(key label.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.modules[key]; !exists {
		return
	}
	delete(c.modules, key)
	c.order = slices.DeleteFunc(c.order, func(k label.Key) bool { return k == key })
}

// SetEnabled flips a module's enabled state. It reports whether the key exists.
func (c *MemoryCatalog) SetEnabled(key label.Key, enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[key]
	if !ok {
		return false
	}
	updated := m.clone()
	updated.Enabled = enabled
	c.modules[key] = updated
	return true
}

// Module implements Catalog.
func (c *MemoryCatalog) Module(key label.Key) (*ModuleDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[key]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// ContextModules implements Catalog.
func (c *MemoryCatalog) ContextModules(ctx label.Context) []label.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []label.Key
	for _, key := range c.order {
		m := c.modules[key]
		if m.Enabled && m.Kind == KindWebResource && m.InContext(ctx) {
			result = append(result, key)
		}
	}
	return result
}

// Keys returns every registered key in registration order.
func (c *MemoryCatalog) Keys() []label.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Len returns the number of registered modules.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

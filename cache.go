package crann

import (
	"sync"
)

// instanceCache holds shared instances for the lifetime of the container.
// Entries are keyed by the requested identifier, not the type built, so an
// alias such as "[A]" and the identifier "A" cache independently.
type instanceCache struct {
	instances map[string]any
	mu        sync.RWMutex
}

// newInstanceCache creates an empty cache.
func newInstanceCache() *instanceCache {
	return &instanceCache{
		instances: make(map[string]any),
	}
}

func (ic *instanceCache) get(id string) (any, bool) {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	v, ok := ic.instances[id]
	return v, ok
}

func (ic *instanceCache) put(id string, instance any) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.instances[id] = instance
}

// delete removes an entry stored by a build that later failed.
func (ic *instanceCache) delete(id string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.instances, id)
}

func (ic *instanceCache) len() int {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return len(ic.instances)
}

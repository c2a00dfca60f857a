package containers

import "sync"

// AtomicMap protects a standard library map with a mutex. Unlike
// sync.Map it does not allocate per element.
type AtomicMap[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// LoadOrStore returns the value stored for key, storing value first when
// the key is absent. loaded is true when the key was already present.
func (m *AtomicMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.m == nil {
		m.m = make(map[K]V)
	}

	if v, ok := m.m[key]; ok {
		return v, true
	}
	m.m[key] = value
	return value, false
}

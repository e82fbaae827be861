// Package syncmap provides a small generic, typed wrapper over sync.Map.
// The catalog's ID and parent-child maps need a lock-free-for-readers
// concurrent map; Go's sync.Map fits, but its any-typed API forces a type
// assertion at every call site. This wrapper pushes that assertion into
// one place, the way a generic container library would.
package syncmap

import "sync"

// Map is a typed concurrent map. The zero value is ready to use.
type Map[K comparable, V any] struct {
	inner sync.Map
}

func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.inner.Load(key)
	if ok {
		value = v.(V)
	}
	return value, ok
}

func (m *Map[K, V]) Store(key K, value V) {
	m.inner.Store(key, value)
}

func (m *Map[K, V]) Delete(key K) {
	m.inner.Delete(key)
}

func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	a, loaded := m.inner.LoadOrStore(key, value)
	return a.(V), loaded
}

func (m *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	v, loaded := m.inner.LoadAndDelete(key)
	if loaded {
		value = v.(V)
	}
	return value, loaded
}

func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.inner.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}

// Clear removes every entry from the map.
func (m *Map[K, V]) Clear() {
	m.inner.Range(func(k, _ any) bool {
		m.inner.Delete(k)
		return true
	})
}

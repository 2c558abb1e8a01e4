// Package memo caches derived values and recomputes them only when the key
// they were derived from changes.
package memo

import "sync"

// Map holds one derived value per key. Compute runs at most once per key
// unless the entry is reset.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	compute func(K) (V, error)
	values  map[K]V
}

func New[K comparable, V any](compute func(K) (V, error)) *Map[K, V] {
	return &Map[K, V]{compute: compute, values: make(map[K]V)}
}

// Get returns the value derived from key, computing it on first use. Errors
// are not cached.
func (m *Map[K, V]) Get(key K) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok {
		return v, nil
	}
	v, err := m.compute(key)
	if err != nil {
		var zero V
		return zero, err
	}
	m.values[key] = v
	return v, nil
}

// Forget drops the value for key so the next Get recomputes it.
func (m *Map[K, V]) Forget(key K) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}

func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Last memoizes a single value against its most recent key, recomputing only
// when the key differs from the previous call. Errors are not cached.
type Last[K comparable, V any] struct {
	mu      sync.Mutex
	compute func(K) (V, error)
	key     K
	value   V
	set     bool
}

func NewLast[K comparable, V any](compute func(K) (V, error)) *Last[K, V] {
	return &Last[K, V]{compute: compute}
}

func (l *Last[K, V]) Get(key K) (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set && l.key == key {
		return l.value, nil
	}
	v, err := l.compute(key)
	if err != nil {
		var zero V
		return zero, err
	}
	l.key, l.value, l.set = key, v, true
	return v, nil
}

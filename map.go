package lazy

import (
	"context"
	"fmt"
	"sync"
)

// Map holds one Cell per key, created on first use. Every cell shares the
// options the Map was built with.
type Map[K comparable, V any] struct {
	factory func(ctx context.Context, key K) (V, error)
	cfg     config

	mu    sync.RWMutex
	cells map[K]*Cell[V]
}

// NewMap returns a Map whose cells compute their values with factory.
func NewMap[K comparable, V any](factory func(ctx context.Context, key K) (V, error), opts ...Option) (*Map[K, V], error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidArgument)
	}
	cfg := newConfig(opts)
	if !cfg.mode.valid() {
		return nil, fmt.Errorf("%w: unknown mode %s", ErrInvalidArgument, cfg.mode)
	}
	return &Map[K, V]{
		factory: factory,
		cfg:     cfg,
		cells:   make(map[K]*Cell[V]),
	}, nil
}

// Get returns the value for key, running the factory for key according to
// the Map's mode.
func (m *Map[K, V]) Get(ctx context.Context, key K) (V, error) {
	return m.Cell(key).Value(ctx)
}

// Cell returns the cell for key, creating it if needed. Creating a cell does
// not run the factory.
func (m *Map[K, V]) Cell(key K) *Cell[V] {
	// Fast path: already created.
	m.mu.RLock()
	c, ok := m.cells[key]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[key]; ok {
		return c
	}

	cfg := m.cfg
	cfg.name = fmt.Sprintf("%s[%v]", m.cfg.name, key)
	cfg.group = m.cfg.name
	cfg.keyed = true
	// The mode was validated by NewMap.
	c, _ = newCell[V](func(ctx context.Context) (V, error) {
		return m.factory(ctx, key)
	}, cfg)
	m.cells[key] = c
	return c
}

// Peek returns the cell for key without creating it.
func (m *Map[K, V]) Peek(key K) (*Cell[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cells[key]
	return c, ok
}

// Delete drops the cell for key. Callers already holding it keep using it;
// the next Get builds a new one.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	delete(m.cells, key)
	m.mu.Unlock()
}

func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}

// Range calls fn for each cell until fn returns false. It iterates over a
// snapshot, so fn may call back into the Map.
func (m *Map[K, V]) Range(fn func(key K, c *Cell[V]) bool) {
	m.mu.RLock()
	keys := make([]K, 0, len(m.cells))
	cells := make([]*Cell[V], 0, len(m.cells))
	for k, c := range m.cells {
		keys = append(keys, k)
		cells = append(cells, c)
	}
	m.mu.RUnlock()

	for i := range keys {
		if !fn(keys[i], cells[i]) {
			return
		}
	}
}

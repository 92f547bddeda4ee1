// Package confcell holds a single-writer, many-reader configuration cell.
//
// Readers take a refcounted snapshot handle; the snapshot stays stable for
// the handle's lifetime even when the writer swaps a new value in. Retired
// values are dropped at an explicit safe point (Cleanup) once no handle
// references them.
package confcell

import (
	"sync"
	"sync/atomic"
)

type version[T any] struct {
	val  *T
	refs atomic.Int64
}

// Cell is an atomically-swappable pointer to an immutable value plus a
// retired-versions list reclaimed by Cleanup.
type Cell[T any] struct {
	cur atomic.Pointer[version[T]]

	mu      sync.Mutex
	retired []*version[T]
}

func New[T any](initial *T) *Cell[T] {
	c := &Cell[T]{}
	c.cur.Store(&version[T]{val: initial})
	return c
}

// Read returns a snapshot handle. The handle must be closed; until then the
// underlying value is never reclaimed.
func (c *Cell[T]) Read() *Handle[T] {
	for {
		v := c.cur.Load()
		v.refs.Add(1)
		if c.cur.Load() == v {
			return &Handle[T]{v: v}
		}
		// Lost a race with Assign between Load and Add: this version may
		// already sit on the retired list, so retry against the fresh one.
		v.refs.Add(-1)
	}
}

// Assign installs val as the current value. In-flight handles keep reading
// the version they started with.
func (c *Cell[T]) Assign(val *T) {
	next := &version[T]{val: val}

	c.mu.Lock()
	prev := c.cur.Swap(next)
	c.retired = append(c.retired, prev)
	c.mu.Unlock()
}

// Cleanup drops retired versions that no live handle references.
func (c *Cell[T]) Cleanup() {
	c.mu.Lock()
	kept := c.retired[:0]
	for _, v := range c.retired {
		if v.refs.Load() > 0 {
			kept = append(kept, v)
		}
	}
	// Nil out the tail so dropped versions are not pinned by the backing array.
	for i := len(kept); i < len(c.retired); i++ {
		c.retired[i] = nil
	}
	c.retired = kept
	c.mu.Unlock()
}

// Retired reports how many superseded versions still await reclamation.
func (c *Cell[T]) Retired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.retired)
}

// Handle pins one configuration version.
type Handle[T any] struct {
	v    *version[T]
	once sync.Once
}

func (h *Handle[T]) Value() *T {
	return h.v.val
}

// Close releases the pin. Safe to call more than once.
func (h *Handle[T]) Close() {
	h.once.Do(func() {
		h.v.refs.Add(-1)
	})
}

// Package arena provides a generational handle allocator that replaces the
// intrusive, pointer-linked containers the original implementation used for
// ownership and cross-references (see Design Notes on intrusive lists).
//
// An Arena[T] owns a dense slice of T. Callers address entries by Handle,
// never by index or pointer: once a slot is freed its generation is bumped,
// so any handle minted before the free resolves to "stale" rather than
// silently aliasing whatever got allocated into the same slot next.
package arena

import "fmt"

// Handle is an opaque, comparable reference to an arena slot.
type Handle struct {
	index underlyingIndex
	gen   uint32
}

type underlyingIndex = uint32

// Zero is the handle value that can never be returned by Arena.Insert; useful
// as an "unset" sentinel for optional cross-references.
var Zero Handle

// IsZero reports whether h is the unset sentinel.
func (h Handle) IsZero() bool { return h == Zero }

func (h Handle) String() string {
	if h.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

type slot[T any] struct {
	value T
	gen   uint32
	alive bool
}

// Arena owns a generation-tracked pool of T, addressed by Handle.
type Arena[T any] struct {
	slots []slot[T]
	free  []underlyingIndex
}

// New allocates an arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value in a free slot (recycled or new) and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = value
		s.alive = true
		return Handle{index: idx + 1, gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{value: value, gen: 1, alive: true})
	return Handle{index: underlyingIndex(len(a.slots)), gen: 1}
}

// Get returns the value for h and whether h is still live.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	var zero T
	if h.IsZero() {
		return zero, false
	}
	i := h.index - 1
	if int(i) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[i]
	if !s.alive || s.gen != h.gen {
		return zero, false
	}
	return s.value, true
}

// MustGet panics if h does not resolve to a live value. Reserved for
// internal invariants the model guarantees hold (e.g. an edge that was
// validated at set-time).
func (a *Arena[T]) MustGet(h Handle) T {
	v, ok := a.Get(h)
	if !ok {
		panic(fmt.Sprintf("arena: handle %s does not resolve to a live value", h))
	}
	return v
}

// Set overwrites the value stored at h. Returns false if h is stale.
func (a *Arena[T]) Set(h Handle, value T) bool {
	if h.IsZero() {
		return false
	}
	i := h.index - 1
	if int(i) >= len(a.slots) {
		return false
	}
	s := &a.slots[i]
	if !s.alive || s.gen != h.gen {
		return false
	}
	s.value = value
	return true
}

// Delete frees h's slot, bumping its generation so stale handles never
// resolve to whatever is allocated into the slot next.
func (a *Arena[T]) Delete(h Handle) {
	if h.IsZero() {
		return
	}
	i := h.index - 1
	if int(i) >= len(a.slots) {
		return
	}
	s := &a.slots[i]
	if !s.alive || s.gen != h.gen {
		return
	}
	var zero T
	s.value = zero
	s.alive = false
	s.gen++
	a.free = append(a.free, i)
}

// Live reports whether h currently resolves to a value.
func (a *Arena[T]) Live(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Handles returns a snapshot of every currently live handle, in slot order.
// Safe to range over while mutating the arena (per Design Notes: iteration
// protocols that remove the current element are expressed as
// snapshot-then-iterate).
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, len(a.slots))
	for i := range a.slots {
		s := &a.slots[i]
		if s.alive {
			out = append(out, Handle{index: underlyingIndex(i) + 1, gen: s.gen})
		}
	}
	return out
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].alive {
			n++
		}
	}
	return n
}

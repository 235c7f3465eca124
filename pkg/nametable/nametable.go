// Package nametable implements the unique-string registry the model uses to
// enforce one name per namespace (settings, nets, physes all get their own
// table). Lookup is a map, not the O(n) scan the original spec tolerates —
// there is no reason to reproduce that limitation in Go.
package nametable

import "github.com/lsdn-core/lsdn/pkg/arena"

// ErrDuplicate is returned by Set when the name is already taken by a
// different handle.
type ErrDuplicate struct {
	Name string
}

func (e *ErrDuplicate) Error() string {
	return "duplicate name: " + e.Name
}

// Table maps names to arena handles within one namespace.
type Table struct {
	byName map[string]arena.Handle
	byHdl  map[arena.Handle]string
}

// New creates an empty name table.
func New() *Table {
	return &Table{
		byName: make(map[string]arena.Handle),
		byHdl:  make(map[arena.Handle]string),
	}
}

// Set assigns name to h. If h already had a different name, the old name is
// released first. Returns *ErrDuplicate if name is held by a different
// handle.
func (t *Table) Set(h arena.Handle, name string) error {
	if existing, ok := t.byName[name]; ok && existing != h {
		return &ErrDuplicate{Name: name}
	}
	if old, ok := t.byHdl[h]; ok {
		delete(t.byName, old)
	}
	t.byName[name] = h
	t.byHdl[h] = name
	return nil
}

// Get returns the name bound to h, if any.
func (t *Table) Get(h arena.Handle) (string, bool) {
	name, ok := t.byHdl[h]
	return name, ok
}

// ByName resolves a handle from a name.
func (t *Table) ByName(name string) (arena.Handle, bool) {
	h, ok := t.byName[name]
	return h, ok
}

// Remove drops h's entry entirely (used when an object is freed).
func (t *Table) Remove(h arena.Handle) {
	if name, ok := t.byHdl[h]; ok {
		delete(t.byName, name)
		delete(t.byHdl, h)
	}
}

// Package broadcast implements the broadcast fan-out abstraction: an action
// list conceptually of arbitrary length, realised as a chain of filters
// because each underlying filter can hold at most K-1 actions (the last
// slot reserved for a continue-to-next-filter action). This package only
// tracks the chaining and slot bookkeeping — action construction is
// callback-driven because the real action objects are built against
// whatever filter the caller is materializing.
package broadcast

import "fmt"

// Builder is supplied by the caller so action creation can be driven
// directly against the filter being built (the original needs this because
// the underlying TC library emits actions onto the filter object itself).
type Builder interface {
	// AddAction asks the builder to materialize one action and returns an
	// opaque token identifying it within the filter.
	AddAction(desc any) (any, error)
	// RemoveAction asks the builder to remove a previously added action.
	RemoveAction(token any) error
}

// filter is one link in the broadcast chain.
type filter struct {
	priority int
	actions  []entry // len <= capacity-1; last slot reserved for continue
}

type entry struct {
	desc  any
	token any
}

// errFull names the "filter has no room" condition. Add never returns it:
// when no filter has room it allocates a new filter instead.
var errFull = fmt.Errorf("filter full")

// FanOut is a chain of filters implementing one broadcast action list.
type FanOut struct {
	capacity int // max actions a filter can hold including the continue slot
	builder  Builder
	filters  []*filter
	freePrio int
	basePrio int
}

// New creates a FanOut whose filters hold at most capacity actions each
// (reserving the last slot for a continue-to-next-filter action), starting
// allocation at basePriority.
func New(capacity int, basePriority int, builder Builder) *FanOut {
	if capacity < 2 {
		panic("broadcast: capacity must allow at least one real action plus the continue slot")
	}
	return &FanOut{
		capacity: capacity,
		builder:  builder,
		freePrio: basePriority,
		basePrio: basePriority,
	}
}

// Add appends one action, reusing the lowest-priority filter with a free
// slot, else allocating a new one at freePrio++.
func (f *FanOut) Add(desc any) (token any, priority int, err error) {
	for _, fl := range f.filters {
		if len(fl.actions) < f.capacity-1 {
			tok, err := f.builder.AddAction(desc)
			if err != nil {
				return nil, 0, err
			}
			fl.actions = append(fl.actions, entry{desc: desc, token: tok})
			return tok, fl.priority, nil
		}
	}
	// No filter with room — allocate a new one.
	tok, err := f.builder.AddAction(desc)
	if err != nil {
		return nil, 0, err
	}
	nf := &filter{priority: f.freePrio}
	nf.actions = append(nf.actions, entry{desc: desc, token: tok})
	f.filters = append(f.filters, nf)
	priority = f.freePrio
	f.freePrio++
	return tok, priority, nil
}

// ErrNotFound is returned by Remove when the token is not present in any
// filter of this FanOut.
var ErrNotFound = fmt.Errorf("broadcast: action not found")

// Remove frees the action identified by token, reclaiming its filter if it
// becomes empty.
func (f *FanOut) Remove(token any) error {
	for i, fl := range f.filters {
		for j, e := range fl.actions {
			if e.token == token {
				if err := f.builder.RemoveAction(token); err != nil {
					return err
				}
				fl.actions = append(fl.actions[:j], fl.actions[j+1:]...)
				if len(fl.actions) == 0 {
					f.filters = append(f.filters[:i], f.filters[i+1:]...)
				}
				return nil
			}
		}
	}
	return ErrNotFound
}

// FilterCount returns the number of filters currently in the chain.
func (f *FanOut) FilterCount() int {
	return len(f.filters)
}

// ActionCount returns the total number of actions across all filters.
func (f *FanOut) ActionCount() int {
	n := 0
	for _, fl := range f.filters {
		n += len(fl.actions)
	}
	return n
}

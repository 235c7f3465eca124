// Package cleanup implements the deferred resource-release registry. The
// original's cleanup list let one resource be linked into several
// subscriber lists at once; Go has no intrusive-member trick for that, so
// this is rebuilt as a plain ordered slice of closures per Design Notes —
// a scheduler of pending releases rather than a polymorphic observer graph.
package cleanup

// List accumulates release closures and runs them in LIFO order (the order
// that matches the dependency direction of everything this engine frees:
// children are registered after their parents, and must run first).
type List struct {
	fns []func()
}

// New returns an empty cleanup list.
func New() *List {
	return &List{}
}

// Defer registers fn to run on Run.
func (l *List) Defer(fn func()) {
	l.fns = append(l.fns, fn)
}

// Run executes every registered closure in LIFO order and clears the list.
func (l *List) Run() {
	for i := len(l.fns) - 1; i >= 0; i-- {
		l.fns[i]()
	}
	l.fns = nil
}

// Len reports how many closures are pending.
func (l *List) Len() int {
	return len(l.fns)
}

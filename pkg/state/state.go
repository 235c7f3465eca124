// Package state implements the per-object lifecycle lattice every graph
// object in the model goes through: NEW -> OK -> RENEW -> OK, and
// {NEW,OK,RENEW} -> DELETE. It is expressed as a sum type with transition
// methods returning a new value, so illegal transitions (e.g. resurrecting a
// DELETE object) are simply not representable by the API surface.
package state

// State is the lifecycle state of one graph object.
type State int

const (
	// New means the object was created in memory and never committed.
	New State = iota
	// OK means the object is committed and unchanged since.
	OK
	// Renew means the object was committed but must be torn down and
	// rebuilt on the next commit.
	Renew
	// Delete means the user requested removal; the object awaits decommit.
	Delete
)

func (s State) String() string {
	switch s {
	case New:
		return "NEW"
	case OK:
		return "OK"
	case Renew:
		return "RENEW"
	case Delete:
		return "DELETE"
	default:
		return "INVALID"
	}
}

// MustRenew requires s != Delete; OK transitions to Renew, every other state
// is unaffected. Invoked whenever an attribute that affects committed
// configuration is mutated.
func (s State) MustRenew() State {
	if s == Delete {
		panic("state: Renew called on a DELETE object")
	}
	if s == OK {
		return Renew
	}
	return s
}

// Propagate implements the cross-edge propagation rule: if from is Renew and
// to is OK, to becomes Renew. The model's setters apply it as they mutate
// the graph, so a structural change to a parent forces re-creation of every
// dependent's data-plane state.
func Propagate(from, to State) State {
	if from == Renew && to == OK {
		return Renew
	}
	return to
}

// AckCommitted lifts New/Renew to OK after a successful (re)commit.
func AckCommitted(s State) State {
	switch s {
	case New, Renew:
		return OK
	default:
		return s
	}
}

// AckUncommitted is the decommit-pass primitive: it reports whether s needs
// decommitting, and if so returns the state to carry forward (Renew resets to
// New so the next recommit pass recreates it; Delete is left as Delete so the
// caller knows to free the object once decommit finishes).
func AckUncommitted(s State) (next State, needsDecommit bool) {
	switch s {
	case Renew:
		return New, true
	case Delete:
		return Delete, true
	default:
		return s, false
	}
}

// MarkForDeletion implements "freeing a NEW object removes it immediately
// (skipping decommit); freeing any other state marks it DELETE". It returns
// the new state and whether the caller should free the object immediately
// rather than wait for the decommit pass.
func MarkForDeletion(s State) (next State, freeImmediately bool) {
	if s == New {
		return s, true
	}
	return Delete, false
}

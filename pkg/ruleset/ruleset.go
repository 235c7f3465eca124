// Package ruleset implements the rule-set abstraction: an ordered classifier
// chain attached to one interface at one (parent handle, chain) coordinate,
// occupying a fixed contiguous range of priorities. This is a data-structure
// layer only — it tracks priority slots, target/mask agreement, duplicate
// detection and handle allocation, exactly the bookkeeping a TC flower
// compiler needs before it ever touches netlink. Emitting the actual filters
// is out of scope for this package (and for the core as a whole).
package ruleset

import (
	"fmt"
	"sort"
)

// Coordinate identifies where a RuleSet attaches: one interface, one parent
// (TC) handle, one classifier chain.
type Coordinate struct {
	Interface string
	Parent    uint32
	Chain     uint32
}

// Target names one match field a slot classifies on (e.g. "dst_mac",
// "vlan_id", "dst_ip"). Masks are opaque byte strings so the package stays
// agnostic to the concrete field width.
type Target string

// Key is the masked match value for one rule, keyed by Target.
type Key map[Target]string

func (k Key) signature() string {
	keys := make([]string, 0, len(k))
	for t := range k {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	sig := ""
	for _, t := range keys {
		sig += string(t) + "=" + k[Target(t)] + ";"
	}
	return sig
}

// targetSet returns the set of targets present in k, for comparing against a
// slot's declared target/mask set.
func (k Key) targetSet() map[Target]string {
	out := make(map[Target]string, len(k))
	for t, v := range k {
		out[t] = v
	}
	return out
}

// ErrMismatchedTargets is returned when a rule's target/mask set does not
// match the slot it is being added to.
type ErrMismatchedTargets struct {
	Slot int
}

func (e *ErrMismatchedTargets) Error() string {
	return fmt.Sprintf("rule targets/masks do not match existing slot %d", e.Slot)
}

// ErrDuplicateRule is returned when a (key, subprio) pair is already present
// in the slot.
type ErrDuplicateRule struct {
	Slot    int
	Subprio int
}

func (e *ErrDuplicateRule) Error() string {
	return fmt.Sprintf("duplicate rule in slot %d at subprio %d", e.Slot, e.Subprio)
}

// Rule is one classifier entry within a priority slot.
type Rule struct {
	Handle  uint32
	Key     Key
	Subprio int
	Action  any // opaque to this package; the nettype driver interprets it
}

type ruleKey struct {
	sig     string
	subprio int
}

// Slot is one TC priority's worth of rules, all sharing the same declared
// target/mask set — materialized as one flower-filter aggregate.
type Slot struct {
	Priority int
	targets  map[Target]string // target -> mask, fixed at slot creation
	rules    map[ruleKey]*Rule
	order    []ruleKey // insertion order, for stable iteration
	nextID   uint32
}

// RuleSet is an ordered collection of priority slots within one Coordinate.
type RuleSet struct {
	Coord    Coordinate
	PrioLo   int
	PrioHi   int
	slots    map[int]*Slot
	byMasked map[string]*Slot // masked-key signature -> owning slot, for fast lookup
}

// New creates a RuleSet over the inclusive priority range [prioLo, prioHi].
func New(coord Coordinate, prioLo, prioHi int) *RuleSet {
	return &RuleSet{
		Coord:    coord,
		PrioLo:   prioLo,
		PrioHi:   prioHi,
		slots:    make(map[int]*Slot),
		byMasked: make(map[string]*Slot),
	}
}

// ErrPriorityOutOfRange is returned when a requested priority slot falls
// outside the RuleSet's allocated range.
type ErrPriorityOutOfRange struct {
	Priority, Lo, Hi int
}

func (e *ErrPriorityOutOfRange) Error() string {
	return fmt.Sprintf("priority %d out of range [%d, %d]", e.Priority, e.Lo, e.Hi)
}

// Slot returns the slot at priority, creating it (with the given
// target/mask declaration) if it does not yet exist.
func (rs *RuleSet) Slot(priority int, targets map[Target]string) (*Slot, error) {
	if priority < rs.PrioLo || priority > rs.PrioHi {
		return nil, &ErrPriorityOutOfRange{Priority: priority, Lo: rs.PrioLo, Hi: rs.PrioHi}
	}
	if s, ok := rs.slots[priority]; ok {
		if !sameTargets(s.targets, targets) {
			return nil, &ErrMismatchedTargets{Slot: priority}
		}
		return s, nil
	}
	s := &Slot{
		Priority: priority,
		targets:  targets,
		rules:    make(map[ruleKey]*Rule),
		nextID:   1,
	}
	rs.slots[priority] = s
	return s, nil
}

func sameTargets(a, b map[Target]string) bool {
	if len(a) != len(b) {
		return false
	}
	for t, mask := range a {
		if b[t] != mask {
			return false
		}
	}
	return true
}

// AddRule adds a rule to the slot at (key, subprio). key's target set must
// match the slot's declared targets; (key, subprio) must not already be
// present. Returns the newly allocated 32-bit handle.
func (s *Slot) AddRule(key Key, subprio int, action any) (*Rule, error) {
	if !keyMatchesTargets(key, s.targets) {
		return nil, &ErrMismatchedTargets{Slot: s.Priority}
	}
	rk := ruleKey{sig: key.signature(), subprio: subprio}
	if _, exists := s.rules[rk]; exists {
		return nil, &ErrDuplicateRule{Slot: s.Priority, Subprio: subprio}
	}
	r := &Rule{Handle: s.nextID, Key: key, Subprio: subprio, Action: action}
	s.nextID++
	s.rules[rk] = r
	s.order = append(s.order, rk)
	return r, nil
}

func keyMatchesTargets(key Key, targets map[Target]string) bool {
	if len(key) != len(targets) {
		return false
	}
	for t := range key {
		if _, ok := targets[t]; !ok {
			return false
		}
	}
	return true
}

// RemoveRule removes the rule at (key, subprio), if present.
func (s *Slot) RemoveRule(key Key, subprio int) {
	rk := ruleKey{sig: key.signature(), subprio: subprio}
	if _, ok := s.rules[rk]; !ok {
		return
	}
	delete(s.rules, rk)
	for i, o := range s.order {
		if o == rk {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rules returns every rule in the slot, in insertion order.
func (s *Slot) Rules() []*Rule {
	out := make([]*Rule, 0, len(s.order))
	for _, rk := range s.order {
		out = append(out, s.rules[rk])
	}
	return out
}

// Empty reports whether the slot has no rules (a candidate for reclamation
// the same way an empty broadcast filter is).
func (s *Slot) Empty() bool {
	return len(s.order) == 0
}

// Slots returns every slot in priority order.
func (rs *RuleSet) Slots() []*Slot {
	prios := make([]int, 0, len(rs.slots))
	for p := range rs.slots {
		prios = append(prios, p)
	}
	sort.Ints(prios)
	out := make([]*Slot, 0, len(prios))
	for _, p := range prios {
		out = append(out, rs.slots[p])
	}
	return out
}

// DeleteSlot drops the slot at priority entirely.
func (rs *RuleSet) DeleteSlot(priority int) {
	delete(rs.slots, priority)
}

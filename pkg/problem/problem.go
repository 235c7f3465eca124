// Package problem implements the validation diagnostics engine: a
// structured accumulator of Problems, each carrying a numeric Code, a
// human-readable message, and zero or more typed References back to the
// objects involved. It is grounded on the fluent-builder precondition
// checkers the rest of this codebase's lineage uses (accumulate, don't fail
// fast), generalized so cross-object validation passes can attach multiple
// typed refs to one problem instead of a single resource string.
package problem

import "fmt"

// Code identifies a class of validation problem.
type Code string

// Error codes the validator can raise (non-exhaustive per the originating
// spec, but these are the ones the in-scope passes actually emit).
const (
	CodePhysNotAttached Code = "PHYS_NOT_ATTACHED"
	CodeVirtNoIf        Code = "VIRT_NOIF"
	CodeVirtDupAttr     Code = "VIRT_DUPATTR"
	CodeNetDupID        Code = "NET_DUPID"
	CodeNetBadNettype   Code = "NET_BAD_NETTYPE"
	CodePhysNoAttr      Code = "PHYS_NOATTR"
	CodePhysDupAttr     Code = "PHYS_DUPATTR"
	CodeCommitFailed    Code = "COMMIT_FAILED"
)

// RefKind identifies what kind of object a Reference points at.
type RefKind string

const (
	RefIF    RefKind = "IF"
	RefNet   RefKind = "NET"
	RefVirt  RefKind = "VIRT"
	RefPhys  RefKind = "PHYS"
	RefAttr  RefKind = "ATTR"
	RefNetID RefKind = "NETID"
)

// Reference points from a Problem back at one object or attribute involved
// in it, identified by its human-readable name (names are unique within
// their namespace, so this is sufficient for reporting — no handle needed).
type Reference struct {
	Kind RefKind
	Name string
}

func (r Reference) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.Name)
}

// Problem is one validation finding.
type Problem struct {
	Code    Code
	Message string
	Refs    []Reference
}

func (p *Problem) Error() string {
	return p.Message
}

// Callback receives each Problem as it is raised during validate/commit.
type Callback func(p *Problem, user any)

// Reporter accumulates problems for a single validate/commit invocation.
// A fresh Reporter must be created per call — it is never reused across
// invocations, so one call's problems never show up in a later call's
// result.
type Reporter struct {
	cb       Callback
	user     any
	problems []*Problem
}

// NewReporter creates a reporter that forwards every raised Problem to cb
// (which may be nil, in which case problems are only accumulated).
func NewReporter(cb Callback, user any) *Reporter {
	return &Reporter{cb: cb, user: user}
}

// Raise records a problem and immediately invokes the callback, if any.
func (r *Reporter) Raise(code Code, format string, refs []Reference, args ...any) {
	p := &Problem{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Refs:    refs,
	}
	r.problems = append(r.problems, p)
	if r.cb != nil {
		r.cb(p, r.user)
	}
}

// Count returns the number of problems raised so far.
func (r *Reporter) Count() int {
	return len(r.problems)
}

// Clean reports whether no problems were raised — validation succeeds only
// when this is true.
func (r *Reporter) Clean() bool {
	return len(r.problems) == 0
}

// Problems returns every problem raised, in raise order.
func (r *Reporter) Problems() []*Problem {
	return r.problems
}

// Package audit provides audit logging for context mutations and commits.
package audit

import (
	"fmt"
	"time"
)

// Event represents an auditable operation against a context: a mutation
// call, a Validate, or a Commit.
type Event struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	User        string        `json:"user"`
	Context     string        `json:"context"`
	Operation   string        `json:"operation"`
	Net         string        `json:"net,omitempty"`
	Phys        string        `json:"phys,omitempty"`
	Virt        string        `json:"virt,omitempty"`
	ProblemRefs []string      `json:"problem_refs,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	DryRun      bool          `json:"dry_run"`
	Duration    time.Duration `json:"duration"`
	SessionID   string        `json:"session_id,omitempty"`
}

// EventType categorizes audit events.
type EventType string

const (
	EventTypeValidate EventType = "validate"
	EventTypeCommit   EventType = "commit"
	EventTypeMutate   EventType = "mutate"
	EventTypeFree     EventType = "free"
)

// Severity indicates the importance of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events.
type Filter struct {
	Context     string
	User        string
	Operation   string
	Net         string
	Phys        string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event.
func NewEvent(user, ctxName, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Context:   ctxName,
		Operation: operation,
	}
}

// WithNet sets the net name this event concerns.
func (e *Event) WithNet(net string) *Event {
	e.Net = net
	return e
}

// WithPhys sets the phys name this event concerns.
func (e *Event) WithPhys(phys string) *Event {
	e.Phys = phys
	return e
}

// WithVirt sets the virt name this event concerns.
func (e *Event) WithVirt(virt string) *Event {
	e.Virt = virt
	return e
}

// WithProblemRefs records a short textual summary of each problem a
// Validate/Commit call raised, for events that report on them.
func (e *Event) WithProblemRefs(refs []string) *Event {
	e.ProblemRefs = refs
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithDryRun marks whether the operation was a Validate-only dry run rather
// than a full Commit.
func (e *Event) WithDryRun(dryRun bool) *Event {
	e.DryRun = dryRun
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

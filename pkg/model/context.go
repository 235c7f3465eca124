// Package model implements the in-memory object graph: Context, Settings,
// Net, Phys, Attachment, Virt, their cross-links, and the mutation API that
// keeps the graph well-formed between commits. Validation and commit
// orchestration live in the sibling pkg/engine; this package only owns
// entity storage, naming, and the lifecycle-state bookkeeping each setter
// touches.
package model

import (
	"context"
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/cleanup"
	"github.com/lsdn-core/lsdn/pkg/nametable"
	"github.com/lsdn-core/lsdn/pkg/problem"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// noopCtx is used for driver calls made outside of Commit's own
// context-threaded call chain (teardown during Free/Cleanup has no caller
// context to propagate).
var noopCtx = context.Background()

// Context is the root of the object graph. It owns every Settings, Net and
// Phys (and, transitively through them, every Attachment and Virt), their
// name tables, and an interface-name counter (see nextIfaceName).
type Context struct {
	name string

	settings *arena.Arena[*Settings]
	nets     *arena.Arena[*Net]
	physes   *arena.Arena[*Phys]
	attaches *arena.Arena[*Attachment]
	virts    *arena.Arena[*Virt]

	settingsNames *nametable.Table
	netNames      *nametable.Table
	physNames     *nametable.Table
	virtNames     *nametable.Table

	ifaceCounter int

	onNoMem      func(operation string) error
	abortOnNoMem bool

	// lastProblems is the most recent validate/commit's diagnostic output,
	// mirroring the original's "pending problem buffer" field on Context.
	lastProblems []*problem.Problem
}

// New creates an empty Context. By default, allocation failures are
// escalated through onNoMem (nil by default, meaning "surface ErrNoMem to
// the caller") — call AbortOnNomem to switch to process-abort semantics.
func New(name string) *Context {
	return &Context{
		name:          name,
		settings:      arena.New[*Settings](),
		nets:          arena.New[*Net](),
		physes:        arena.New[*Phys](),
		attaches:      arena.New[*Attachment](),
		virts:         arena.New[*Virt](),
		settingsNames: nametable.New(),
		netNames:      nametable.New(),
		physNames:     nametable.New(),
		virtNames:     nametable.New(),
	}
}

// Name returns the context's name.
func (c *Context) Name() string { return c.name }

// SetNomemCallback installs fn to be invoked whenever an allocation fails.
// If fn returns nil, the originating call proceeds to return ErrNoMem to its
// caller; if fn returns a non-nil error, that error is returned wrapped in
// ErrNoMem. With no callback installed and AbortOnNomem not called, the
// call returns plain ErrNoMem. Installing a callback clears AbortOnNomem.
func (c *Context) SetNomemCallback(fn func(operation string) error) {
	c.onNoMem = fn
	c.abortOnNoMem = false
}

// AbortOnNomem configures the context so that any allocation failure aborts
// the process instead of returning an error. Matches the original's
// "installations that abort_on_nomem never return" contract.
func (c *Context) AbortOnNomem() {
	c.abortOnNoMem = true
	c.onNoMem = nil
}

// raiseNoMem implements the allocation-failure escalation path described in
// §7. No constructor in this package calls it, since arena insertion never
// fails on its own; it is reached only through RaiseNoMem, so user code
// exercising the callback sees the same contract as the original.
func (c *Context) raiseNoMem(operation string) error {
	util.WithField("operation", operation).Warn("allocation failure escalated to no-mem handler")
	if c.abortOnNoMem {
		panic(&NoMemError{Operation: operation})
	}
	if c.onNoMem != nil {
		if err := c.onNoMem(operation); err != nil {
			return fmt.Errorf("%w: %s", ErrNoMem, err)
		}
		return ErrNoMem
	}
	return ErrNoMem
}

// Nets returns every net in the context, in arena slot order.
func (c *Context) Nets() []*Net {
	hs := c.nets.Handles()
	out := make([]*Net, 0, len(hs))
	for _, h := range hs {
		if n, ok := c.nets.Get(h); ok {
			out = append(out, n)
		}
	}
	return out
}

// Physes returns every phys in the context, in arena slot order.
func (c *Context) Physes() []*Phys {
	hs := c.physes.Handles()
	out := make([]*Phys, 0, len(hs))
	for _, h := range hs {
		if p, ok := c.physes.Get(h); ok {
			out = append(out, p)
		}
	}
	return out
}

// AllSettings returns every Settings object in the context, in arena slot
// order. Named AllSettings rather than Settings to avoid colliding with the
// Settings type itself when read as a method expression.
func (c *Context) AllSettings() []*Settings {
	hs := c.settings.Handles()
	out := make([]*Settings, 0, len(hs))
	for _, h := range hs {
		if s, ok := c.settings.Get(h); ok {
			out = append(out, s)
		}
	}
	return out
}

// Attachments returns every attachment in the context, in arena slot order.
func (c *Context) Attachments() []*Attachment {
	hs := c.attaches.Handles()
	out := make([]*Attachment, 0, len(hs))
	for _, h := range hs {
		if a, ok := c.attaches.Get(h); ok {
			out = append(out, a)
		}
	}
	return out
}

// Virts returns every virt in the context, in arena slot order.
func (c *Context) Virts() []*Virt {
	hs := c.virts.Handles()
	out := make([]*Virt, 0, len(hs))
	for _, h := range hs {
		if v, ok := c.virts.Get(h); ok {
			out = append(out, v)
		}
	}
	return out
}

// SetLastProblems is called by pkg/engine after Validate/Commit to record
// this run's diagnostics for later inspection via LastProblems.
func (c *Context) SetLastProblems(p []*problem.Problem) {
	c.setLastProblems(p)
}

// RaiseNoMem exposes the no-mem escalation path outside this package.
// pkg/engine does not call it.
func (c *Context) RaiseNoMem(operation string) error {
	return c.raiseNoMem(operation)
}

// LastProblems returns the problems raised by the most recent Validate or
// Commit call against this context.
func (c *Context) LastProblems() []*problem.Problem {
	return c.lastProblems
}

func (c *Context) setLastProblems(p []*problem.Problem) {
	c.lastProblems = p
}

// nextIfaceName returns the next counter-based interface name ("lsdn0",
// "lsdn1", ...). Nothing calls it: a virt connected without an interface
// gets "<phys iface>.<virt name>" from the validator instead.
func (c *Context) nextIfaceName() string {
	n := c.ifaceCounter
	c.ifaceCounter++
	return fmt.Sprintf("lsdn%d", n)
}

// Free tears down every child object unconditionally. A data-plane error
// encountered while doing so is fatal: it is logged and the process aborts,
// matching §7 kind 5 ("during context_free, errors are printed and
// aborted").
func (c *Context) Free() {
	if err := c.teardownAll(nil, nil); err != nil {
		util.WithField("context", c.name).Errorf("fatal error during context free: %v", err)
		panic(err)
	}
}

// Cleanup tears down every child object, reporting any data-plane error
// through cb instead of aborting (§7 kind 5: "during context_cleanup the
// problem callback is invoked instead").
func (c *Context) Cleanup(cb problem.Callback, user any) {
	_ = c.teardownAll(cb, user)
}

// teardownAll tears down the whole graph using a cleanup.List: every
// release is registered as a deferred closure, deepest dependency first
// (settings depend on nothing beneath them, so they are registered first
// and therefore run last; data-plane teardown depends on everything still
// being alive, so it is registered last and runs first). Errors from the
// data-plane pass are collected and, if cb is non-nil, reported through it;
// otherwise the first error is returned so Free can escalate it.
func (c *Context) teardownAll(cb problem.Callback, user any) error {
	var first error
	report := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if cb != nil {
			cb(&problem.Problem{Code: problem.CodeCommitFailed, Message: msg}, user)
		} else if first == nil {
			first = fmt.Errorf("%s", msg)
		}
	}

	releases := cleanup.New()

	settingsHandles := c.settings.Handles()
	netHandles := c.nets.Handles()
	physHandles := c.physes.Handles()
	attachHandles := c.attaches.Handles()
	virtHandles := c.virts.Handles()

	releases.Defer(func() {
		for _, h := range settingsHandles {
			c.settings.Delete(h)
		}
	})
	releases.Defer(func() {
		for _, h := range netHandles {
			c.nets.Delete(h)
		}
	})
	releases.Defer(func() {
		for _, h := range physHandles {
			c.physes.Delete(h)
		}
	})
	releases.Defer(func() {
		for _, h := range attachHandles {
			c.attaches.Delete(h)
		}
	})
	releases.Defer(func() {
		for _, h := range virtHandles {
			c.virts.Delete(h)
		}
	})
	releases.Defer(func() {
		for _, h := range attachHandles {
			a, ok := c.attaches.Get(h)
			if !ok || !a.committedAsLocal {
				continue
			}
			net, _ := c.nets.Get(a.netH)
			phys, _ := c.physes.Get(a.physH)
			if net == nil || net.settings == nil || net.settings.ops == nil {
				continue
			}
			pa := a.paView(net, phys)
			if err := net.settings.ops.DestroyPA(noopCtx, pa); err != nil {
				report("destroy_pa(%s/%s): %v", net.name, phys.name, err)
			}
		}
	})

	releases.Run()
	return first
}

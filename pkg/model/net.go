package model

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/state"
)

// Net is a virtual network: one instance of a Settings' network type,
// identified within it by vnetID (VLAN tag, VNI, or similar, depending on
// kind). A Net owns its Attachments and, transitively, their Virts.
type Net struct {
	h    arena.Handle
	ctx  *Context
	name string

	settings   *Settings
	settingsH  arena.Handle
	vnetID     int
	st         state.State

	attaches map[arena.Handle]struct{}
	virts    map[arena.Handle]struct{}
}

// New creates a Net bound to settings with the given vnetID (VLAN tag, VNI,
// or similar — meaning depends on settings.Kind()). The net starts in state
// NEW and only becomes OK once a commit succeeds.
func (s *Settings) New(vnetID int) *Net {
	n := &Net{
		ctx:       s.ctx,
		settings:  s,
		settingsH: s.h,
		vnetID:    vnetID,
		st:        state.New,
		attaches:  make(map[arena.Handle]struct{}),
		virts:     make(map[arena.Handle]struct{}),
	}
	n.h = s.ctx.nets.Insert(n)
	s.nets[n.h] = struct{}{}
	return n
}

// Settings returns the Settings object this net is an instance of.
func (n *Net) Settings() *Settings { return n.settings }

// Attachments returns every attachment currently referencing this net.
func (n *Net) Attachments() []*Attachment {
	out := make([]*Attachment, 0, len(n.attaches))
	for h := range n.attaches {
		if a, ok := n.ctx.attaches.Get(h); ok {
			out = append(out, a)
		}
	}
	return out
}

// Virts returns every virt belonging to this net.
func (n *Net) Virts() []*Virt {
	out := make([]*Virt, 0, len(n.virts))
	for h := range n.virts {
		if v, ok := n.ctx.virts.Get(h); ok {
			out = append(out, v)
		}
	}
	return out
}

// VnetID returns this net's VLAN tag / VNI / equivalent.
func (n *Net) VnetID() int { return n.vnetID }

// State returns the net's current lifecycle state.
func (n *Net) State() state.State { return n.st }

// SetState overrides the net's lifecycle state. Called only by the commit
// engine's ack and decommit passes.
func (n *Net) SetState(s state.State) { n.st = s }

// Purge removes this net (and, as a safety net, anything still referencing
// it) unconditionally. Called only by the commit engine once it has
// confirmed every attachment and virt beneath a DELETE net has already been
// decommitted and purged.
func (n *Net) Purge() { n.destroyImmediate() }

// SetVnetID changes the net's identifier, re-validating it on the next
// commit (RENEW propagates to every attachment and virt below it).
func (n *Net) SetVnetID(id int) {
	n.vnetID = id
	n.st = n.st.MustRenew()
	n.propagateRenew()
}

func (n *Net) propagateRenew() {
	for h := range n.attaches {
		if a, ok := n.ctx.attaches.Get(h); ok {
			a.st = state.Propagate(n.st, a.st)
			a.propagateRenew()
		}
	}
}

// SetName assigns a unique name to this net within its context.
func (n *Net) SetName(name string) error {
	if err := n.ctx.netNames.Set(n.h, name); err != nil {
		return &DuplicateError{Kind: "net", Name: name}
	}
	n.name = name
	return nil
}

// GetName returns the net's name, or "" if unset.
func (n *Net) GetName() string { return n.name }

// NetByName looks up a net by name within ctx.
func (c *Context) NetByName(name string) (*Net, bool) {
	h, ok := c.netNames.ByName(name)
	if !ok {
		return nil, false
	}
	return c.nets.Get(h)
}

// Free marks the net for deletion. A net that never committed (state NEW)
// is removed immediately along with every attachment and virt beneath it;
// an already-committed net is marked DELETE and torn down by the next
// commit's decommit pass.
func (n *Net) Free() {
	next, immediate := state.MarkForDeletion(n.st)
	n.st = next
	if immediate {
		n.destroyImmediate()
	}
}

// destroyImmediate removes the net and everything beneath it without
// waiting for a commit pass, used when freeing an object that never made it
// past NEW (nothing was ever programmed for it).
func (n *Net) destroyImmediate() {
	for h := range n.virts {
		if v, ok := n.ctx.virts.Get(h); ok {
			v.destroyImmediate()
		}
	}
	for h := range n.attaches {
		if a, ok := n.ctx.attaches.Get(h); ok {
			a.destroyImmediate()
		}
	}
	delete(n.settings.nets, n.h)
	n.ctx.netNames.Remove(n.h)
	n.ctx.nets.Delete(n.h)
}

func (n *Net) String() string {
	return fmt.Sprintf("net(%s, vnet_id=%d, state=%s)", n.name, n.vnetID, n.st)
}

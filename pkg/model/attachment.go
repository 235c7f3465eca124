package model

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/state"
)

// Attachment is the junction between one Net and one Phys: it exists
// whenever that phys participates in that net, either because the user
// called Phys.Attach explicitly or because a Virt.Connect implicitly
// created it. An attachment with explicit == false and no connected virts
// is garbage and is freed as soon as its last virt disconnects.
type Attachment struct {
	h    arena.Handle
	ctx  *Context
	netH arena.Handle
	physH arena.Handle

	explicit bool
	st       state.State

	// committedAsLocal is set by the engine's recommit pass the moment it
	// calls CreatePA for this attachment, and is what governs whether the
	// next decommit calls DestroyPA — not Phys.IsLocal(), which may have
	// changed since the attachment was actually programmed.
	committedAsLocal bool

	virts map[arena.Handle]struct{}

	remotePeers map[arena.Handle]*remotePeer // peer attachment handle -> bookkeeping
}

func newAttachment(ctx *Context, n *Net, p *Phys, explicit bool) *Attachment {
	a := &Attachment{
		ctx:         ctx,
		netH:        n.h,
		physH:       p.h,
		explicit:    explicit,
		st:          state.New,
		virts:       make(map[arena.Handle]struct{}),
		remotePeers: make(map[arena.Handle]*remotePeer),
	}
	a.h = ctx.attaches.Insert(a)
	n.attaches[a.h] = struct{}{}
	p.attaches[a.h] = struct{}{}
	return a
}

// Net returns the net side of this attachment.
func (a *Attachment) Net() *Net {
	n, _ := a.ctx.nets.Get(a.netH)
	return n
}

// Phys returns the phys side of this attachment.
func (a *Attachment) Phys() *Phys {
	p, _ := a.ctx.physes.Get(a.physH)
	return p
}

// Explicit reports whether this attachment was created (or re-marked) by an
// explicit Phys.Attach call, as opposed to only existing implicitly to host
// connected virts.
func (a *Attachment) Explicit() bool { return a.explicit }

// State returns the attachment's lifecycle state.
func (a *Attachment) State() state.State { return a.st }

// CommittedAsLocal reports whether the last successful recommit programmed
// this attachment's PA locally (CreatePA was called and has not yet been
// undone).
func (a *Attachment) CommittedAsLocal() bool { return a.committedAsLocal }

// Virts returns every virt currently connected through this attachment.
func (a *Attachment) Virts() []*Virt {
	out := make([]*Virt, 0, len(a.virts))
	for h := range a.virts {
		if v, ok := a.ctx.virts.Get(h); ok {
			out = append(out, v)
		}
	}
	return out
}

func (a *Attachment) propagateRenew() {
	for h := range a.virts {
		if v, ok := a.ctx.virts.Get(h); ok {
			v.st = state.Propagate(a.st, v.st)
		}
	}
}

// paView builds the read-only PA snapshot a driver hook receives.
func (a *Attachment) paView(n *Net, p *Phys) nettype.PA {
	return nettype.PA{
		NetName:   n.name,
		NetID:     n.vnetID,
		PhysName:  p.name,
		PhysIface: p.iface,
		PhysIP:    p.ip,
		IsLocal:   p.local,
	}
}

// PAView is the exported equivalent of paView, used by the commit engine.
func (a *Attachment) PAView() nettype.PA {
	return a.paView(a.Net(), a.Phys())
}

// MarkCommittedLocal records that CreatePA has just been called for this
// attachment. Called only by the commit engine.
func (a *Attachment) MarkCommittedLocal(v bool) { a.committedAsLocal = v }

// SetState overrides the attachment's lifecycle state. Called only by the
// commit engine's ack and decommit passes.
func (a *Attachment) SetState(s state.State) { a.st = s }

// Purge removes this attachment unconditionally. Called only by the commit
// engine once it has confirmed a DELETE attachment has been fully
// decommitted (its PA destroyed, remote views dropped, every virt
// disconnected).
func (a *Attachment) Purge() { a.destroyImmediate() }

// Free marks this attachment for deletion, cascading to every virt still
// connected through it.
func (a *Attachment) Free() {
	for h := range a.virts {
		if v, ok := a.ctx.virts.Get(h); ok {
			v.Free()
		}
	}
	next, immediate := state.MarkForDeletion(a.st)
	a.st = next
	if immediate {
		a.destroyImmediate()
	}
}

func (a *Attachment) destroyImmediate() {
	a.clearRemotePAs()
	if n := a.Net(); n != nil {
		delete(n.attaches, a.h)
	}
	if p := a.Phys(); p != nil {
		delete(p.attaches, a.h)
	}
	a.ctx.attaches.Delete(a.h)
}

func (a *Attachment) String() string {
	return fmt.Sprintf("attachment(net=%s, phys=%s, explicit=%v, state=%s)",
		a.Net().GetName(), a.Phys().GetName(), a.explicit, a.st)
}

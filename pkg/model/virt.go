package model

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/state"
)

// Virt is one virtual endpoint on a Net — the model's equivalent of a VM's
// or container's NIC. A connected Virt references the Attachment it reaches
// the net through and the local interface it is bound to; both can change
// across RENEW cycles as the caller reconnects it to a different phys.
type Virt struct {
	h   arena.Handle
	ctx *Context
	net *Net

	name string
	mac  string

	st state.State

	attachH     arena.Handle // the attachment currently requested, zero if disconnected
	connectedIf string       // interface requested for the next commit

	committedTo arena.Handle // the attachment last successfully committed to
	committedIf string       // the interface last successfully committed
}

// New creates a disconnected Virt on net. Use Connect to attach it to a
// phys before the next commit.
func (n *Net) New() *Virt {
	v := &Virt{
		ctx: n.ctx,
		net: n,
		st:  state.New,
	}
	v.h = n.ctx.virts.Insert(v)
	n.virts[v.h] = struct{}{}
	return v
}

// Net returns the net this virt belongs to.
func (v *Virt) Net() *Net { return v.net }

// State returns the virt's lifecycle state.
func (v *Virt) State() state.State { return v.st }

// SetState overrides the virt's lifecycle state. Called only by the commit
// engine's ack and decommit passes.
func (v *Virt) SetState(s state.State) { v.st = s }

// ResolveIface flushes the validator's interface-name resolution for this
// virt (synthesizing one when the caller never set one explicitly). Called
// only by the commit engine, and only once validation has succeeded.
func (v *Virt) ResolveIface(iface string) { v.connectedIf = iface }

// MarkCommitted records that this virt is (re)created on attachment a with
// interface iface. The commit engine's recommit pass calls it right before
// AddVirt, so the View the driver receives carries iface.
func (v *Virt) MarkCommitted(a *Attachment, iface string) {
	v.committedTo = a.h
	v.committedIf = iface
}

// Purge removes this virt unconditionally. Called only by the commit
// engine once it has confirmed a DELETE virt's data-plane state has been
// torn down.
func (v *Virt) Purge() { v.destroyImmediate() }

// SetName assigns a unique name to this virt within its context.
func (v *Virt) SetName(name string) error {
	if err := v.ctx.virtNames.Set(v.h, name); err != nil {
		return &DuplicateError{Kind: "virt", Name: name}
	}
	v.name = name
	return nil
}

// GetName returns the virt's name, or "" if unset.
func (v *Virt) GetName() string { return v.name }

// VirtByName looks up a virt by name within ctx.
func (c *Context) VirtByName(name string) (*Virt, bool) {
	h, ok := c.virtNames.ByName(name)
	if !ok {
		return nil, false
	}
	return c.virts.Get(h)
}

// SetMAC assigns this virt's MAC address, re-validated (duplicate MAC
// within the same net) on the next commit.
func (v *Virt) SetMAC(mac string) {
	v.mac = mac
	v.st = v.st.MustRenew()
}

// MAC returns the virt's configured MAC, or "" if unset.
func (v *Virt) MAC() string { return v.mac }

// View builds the read-only nettype.Virt snapshot a driver hook receives,
// using the last-committed interface (the one actually programmed).
func (v *Virt) View() nettype.Virt {
	return nettype.Virt{Name: v.name, MAC: v.mac, Iface: v.committedIf}
}

// ConnectedIface returns the interface requested for the next commit (which
// may differ from CommittedIface if a reconnect is pending).
func (v *Virt) ConnectedIface() string { return v.connectedIf }

// CommittedIface returns the interface last successfully committed.
func (v *Virt) CommittedIface() string { return v.committedIf }

// Attachment returns the attachment this virt is currently requested to
// connect through (which may be zero if disconnected).
func (v *Virt) Attachment() *Attachment {
	a, _ := v.ctx.attaches.Get(v.attachH)
	return a
}

// CommittedAttachment returns the attachment this virt was last
// successfully committed through.
func (v *Virt) CommittedAttachment() *Attachment {
	a, _ := v.ctx.attaches.Get(v.committedTo)
	return a
}

// Connect requests that this virt reach its net through phys, using iface
// as its local interface name (empty string mints a synthetic name at
// commit time). If the virt was already connected elsewhere, that
// attachment is released (and garbage-collected if it becomes implicit and
// empty). The phys/net attachment is created implicitly if Phys.Attach was
// never called for this pair.
func (v *Virt) Connect(p *Phys, iface string) {
	if old := v.Attachment(); old != nil {
		v.disconnectFrom(old)
	}
	a := v.findOrCreateAttachment(p)
	a.virts[v.h] = struct{}{}
	v.attachH = a.h
	v.connectedIf = iface
	v.st = v.st.MustRenew()
	a.st = state.Propagate(a.st, v.st)
}

func (v *Virt) findOrCreateAttachment(p *Phys) *Attachment {
	for h := range p.attaches {
		if a, ok := v.ctx.attaches.Get(h); ok && a.netH == v.net.h {
			return a
		}
	}
	return newAttachment(v.ctx, v.net, p, false)
}

// Disconnect removes this virt from whatever attachment it currently uses.
// The virt object itself survives (disconnected); Free fully removes it.
func (v *Virt) Disconnect() {
	if a := v.Attachment(); a != nil {
		v.disconnectFrom(a)
	}
	v.attachH = arena.Zero
	v.connectedIf = ""
	v.st = v.st.MustRenew()
}

func (v *Virt) disconnectFrom(a *Attachment) {
	delete(a.virts, v.h)
	a.st = a.st.MustRenew()
	if !a.explicit && len(a.virts) == 0 {
		a.Free()
	}
}

// Free marks this virt for deletion, disconnecting it first.
func (v *Virt) Free() {
	if a := v.Attachment(); a != nil {
		v.disconnectFrom(a)
	}
	next, immediate := state.MarkForDeletion(v.st)
	v.st = next
	if immediate {
		v.destroyImmediate()
	}
}

func (v *Virt) destroyImmediate() {
	delete(v.net.virts, v.h)
	v.ctx.virtNames.Remove(v.h)
	v.ctx.virts.Delete(v.h)
}

func (v *Virt) String() string {
	return fmt.Sprintf("virt(%s, mac=%s, state=%s)", v.name, v.mac, v.st)
}

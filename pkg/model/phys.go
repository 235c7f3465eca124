package model

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/state"
)

// Phys represents one physical host participating in the virtual network
// graph. A Phys may or may not be "local" (this process's own host);
// non-local Physes exist only so their attachments can be validated and
// their PA views handed to drivers as remote peers.
type Phys struct {
	h    arena.Handle
	ctx  *Context
	name string

	iface string
	ip    string
	local bool
	st    state.State

	attaches map[arena.Handle]struct{}
}

// NewPhys creates a Phys. It starts non-local and with no interface or IP
// set. A local attachment carrying virts requires an interface; an IP is
// checked only by drivers whose ValidatePA needs one (VXLAN). Both checks
// run at validation time, not here, so setters can run in any order.
func (c *Context) NewPhys() *Phys {
	p := &Phys{
		ctx:      c,
		st:       state.New,
		attaches: make(map[arena.Handle]struct{}),
	}
	p.h = c.physes.Insert(p)
	return p
}

// SetName assigns a unique name to this phys within its context.
func (p *Phys) SetName(name string) error {
	if err := p.ctx.physNames.Set(p.h, name); err != nil {
		return &DuplicateError{Kind: "phys", Name: name}
	}
	p.name = name
	return nil
}

// GetName returns the phys's name, or "" if unset.
func (p *Phys) GetName() string { return p.name }

// PhysByName looks up a phys by name within ctx.
func (c *Context) PhysByName(name string) (*Phys, bool) {
	h, ok := c.physNames.ByName(name)
	if !ok {
		return nil, false
	}
	return c.physes.Get(h)
}

// SetIface records the local network interface this phys attaches through.
// Only meaningful once ClaimLocal has been called; validated at commit
// time, not here.
func (p *Phys) SetIface(iface string) {
	p.iface = iface
	p.renewAttachments()
}

// ClearIface removes a previously set interface.
func (p *Phys) ClearIface() {
	p.iface = ""
	p.renewAttachments()
}

// Iface returns the configured local interface, or "" if unset.
func (p *Phys) Iface() string { return p.iface }

// SetIP records the phys's underlay IP address, used by remote peers to
// reach it (tunnel endpoint, multicast source address, etc).
func (p *Phys) SetIP(ip string) {
	p.ip = ip
	p.renewAttachments()
}

// IP returns the configured underlay IP, or "" if unset.
func (p *Phys) IP() string { return p.ip }

// ClaimLocal marks this phys as representing the process's own host. Only
// one Phys per context should be claimed local at a time; the caller is
// responsible for that invariant (validated against duplicate local claims
// is out of scope — see Non-goals).
func (p *Phys) ClaimLocal() {
	p.local = true
	p.renewAttachments()
}

// UnclaimLocal reverses ClaimLocal.
func (p *Phys) UnclaimLocal() {
	p.local = false
	p.renewAttachments()
}

// IsLocal reports whether this phys represents the process's own host.
func (p *Phys) IsLocal() bool { return p.local }

func (p *Phys) renewAttachments() {
	for h := range p.attaches {
		if a, ok := p.ctx.attaches.Get(h); ok {
			a.st = a.st.MustRenew()
			a.propagateRenew()
		}
	}
}

// Attach creates (or re-marks as explicit) the Attachment joining this phys
// to net. An attachment created implicitly by a Virt.Connect call becomes
// explicit here and will survive even if its last virt disconnects.
func (p *Phys) Attach(n *Net) *Attachment {
	for h := range p.attaches {
		if a, ok := p.ctx.attaches.Get(h); ok && a.netH == n.h {
			a.explicit = true
			a.st = a.st.MustRenew()
			return a
		}
	}
	return newAttachment(p.ctx, n, p, true)
}

// Detach removes the explicit marking on the phys/net attachment. If no
// virts are connected through it, the attachment is freed immediately (or
// marked for deletion if already committed); otherwise it survives
// implicitly, matching the spec's "attachment persists while virts
// reference it" rule.
func (p *Phys) Detach(n *Net) {
	for h := range p.attaches {
		a, ok := p.ctx.attaches.Get(h)
		if !ok || a.netH != n.h {
			continue
		}
		a.explicit = false
		if len(a.virts) == 0 {
			a.Free()
		}
		return
	}
}

// State returns the phys's current lifecycle state.
func (p *Phys) State() state.State { return p.st }

// SetState overrides the phys's lifecycle state. Called only by the commit
// engine's ack and decommit passes.
func (p *Phys) SetState(s state.State) { p.st = s }

// Purge removes this phys unconditionally. Called only by the commit
// engine once it has confirmed every attachment beneath a DELETE phys has
// already been decommitted and purged.
func (p *Phys) Purge() { p.destroyImmediate() }

// Free frees every attachment through this phys, then marks the phys for
// deletion. A phys that never committed (state NEW) is removed immediately;
// an already-committed phys is marked DELETE and torn down by the next
// commit's decommit pass, mirroring Net and Virt — Attachment.Phys resolves
// only through the arena, so removing a phys before its own commit has run
// would leave any still-committed attachment pointing at a dangling handle.
func (p *Phys) Free() {
	for h := range p.attaches {
		if a, ok := p.ctx.attaches.Get(h); ok {
			a.Free()
		}
	}
	next, immediate := state.MarkForDeletion(p.st)
	p.st = next
	if immediate {
		p.destroyImmediate()
	}
}

// destroyImmediate removes the phys without waiting for a commit pass.
func (p *Phys) destroyImmediate() {
	p.ctx.physNames.Remove(p.h)
	p.ctx.physes.Delete(p.h)
}

func (p *Phys) String() string {
	return fmt.Sprintf("phys(%s, iface=%s, ip=%s, local=%v)", p.name, p.iface, p.ip, p.local)
}

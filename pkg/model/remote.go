package model

import (
	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/nettype"
)

// remotePeer is the bookkeeping an attachment keeps for one peer attachment
// on the same net once both are known to the local commit engine: a
// RemotePA view was (or will be) handed to the driver, plus whichever peer
// virts have their own RemoteVirt view materialized (STATIC_E2E only).
type remotePeer struct {
	virts map[arena.Handle]struct{} // peer virt handle -> has RemoteVirt view
}

// RemotePAPeers returns the peer attachments this attachment currently
// keeps a RemotePA view for.
func (a *Attachment) RemotePAPeers() []*Attachment {
	out := make([]*Attachment, 0, len(a.remotePeers))
	for h := range a.remotePeers {
		if p, ok := a.ctx.attaches.Get(h); ok {
			out = append(out, p)
		}
	}
	return out
}

// EnsureRemotePA records that this attachment now keeps a RemotePA view for
// peer, returning whether the view did not previously exist.
func (a *Attachment) EnsureRemotePA(peer *Attachment) bool {
	if _, ok := a.remotePeers[peer.h]; ok {
		return false
	}
	a.remotePeers[peer.h] = &remotePeer{virts: make(map[arena.Handle]struct{})}
	return true
}

// DropRemotePA removes the RemotePA (and any RemoteVirt) bookkeeping kept
// for peer.
func (a *Attachment) DropRemotePA(peer *Attachment) {
	delete(a.remotePeers, peer.h)
}

// EnsureRemoteVirt records that this attachment now keeps a RemoteVirt view
// for v (owned by peer), returning whether the view did not previously
// exist. peer must already have a RemotePA view (EnsureRemotePA first).
func (a *Attachment) EnsureRemoteVirt(peer *Attachment, v *Virt) bool {
	rp, ok := a.remotePeers[peer.h]
	if !ok {
		rp = &remotePeer{virts: make(map[arena.Handle]struct{})}
		a.remotePeers[peer.h] = rp
	}
	if _, ok := rp.virts[v.h]; ok {
		return false
	}
	rp.virts[v.h] = struct{}{}
	return true
}

// RemoteVirtsFor returns the peer virts this attachment keeps a RemoteVirt
// view for, scoped to one peer attachment.
func (a *Attachment) RemoteVirtsFor(peer *Attachment) []*Virt {
	rp, ok := a.remotePeers[peer.h]
	if !ok {
		return nil
	}
	out := make([]*Virt, 0, len(rp.virts))
	for h := range rp.virts {
		if v, ok := a.ctx.virts.Get(h); ok {
			out = append(out, v)
		}
	}
	return out
}

func (a *Attachment) clearRemotePAs() {
	a.remotePeers = make(map[arena.Handle]*remotePeer)
}

// BuildRemotePAView constructs the driver-facing view for the RemotePA this
// attachment keeps toward peer.
func (a *Attachment) BuildRemotePAView(peer *Attachment) nettype.RemotePA {
	return nettype.RemotePA{PA: peer.PAView(), LocalPA: a.PAView()}
}

// BuildRemoteVirtView constructs the driver-facing view for one peer virt
// reached through peer's RemotePA.
func (a *Attachment) BuildRemoteVirtView(peer *Attachment, v *Virt) nettype.RemoteVirt {
	return nettype.RemoteVirt{
		Virt:     v.View(),
		LocalPA:  a.PAView(),
		RemotePA: peer.PAView(),
	}
}

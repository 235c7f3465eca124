package engine

import (
	"context"
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/model"
	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/problem"
	"github.com/lsdn-core/lsdn/pkg/state"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// Commit runs one full reconciliation cycle: validate, then (only if clean)
// decommit every object that left OK, recommit every object that needs
// (re)creating, and ack everything that survives into OK. cb receives
// every problem Validate finds; it is never called again once Commit moves
// past validation, since a commit that reaches that point cannot itself
// invalidate the graph further.
//
// A *model.NoMemError panic (AbortOnNomem) is logged and re-panicked:
// allocation failure mid-commit is fatal. A driver hook panicking with any
// other value implementing error is recovered, logged, and returned wrapped
// in ErrCommit rather than crashing the caller's process outright.
func Commit(ctx context.Context, g *model.Context, cb problem.Callback, user any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if nm, ok := r.(*model.NoMemError); ok {
				util.WithField("context", g.Name()).Errorf("commit aborted: %v", nm)
				panic(r)
			}
			if e, ok := r.(error); ok {
				util.WithField("context", g.Name()).Errorf("commit aborted: %v", e)
				err = fmt.Errorf("%w: %s", model.ErrCommit, e)
				return
			}
			panic(r)
		}
	}()

	r := problem.NewReporter(cb, user)
	resolved := validate(g, r)
	g.SetLastProblems(r.Problems())
	if !r.Clean() {
		return model.ErrValidate
	}

	if err := decommit(ctx, g); err != nil {
		return fmt.Errorf("%w: %s", model.ErrNetlink, err)
	}
	if err := recommit(ctx, g, resolved); err != nil {
		return fmt.Errorf("%w: %s", model.ErrNetlink, err)
	}
	ack(g)
	return nil
}

// decommit walks every net deepest-first (virts, then attachments, then the
// net itself) tearing down whatever left the OK state, and purges anything
// that was marked for deletion.
func decommit(ctx context.Context, g *model.Context) error {
	for _, n := range g.Nets() {
		ops := n.Settings().OpsOrNil()

		for _, a := range n.Attachments() {
			if err := decommitRemoteViews(ctx, a, ops); err != nil {
				return err
			}
		}

		for _, v := range n.Virts() {
			next, needs := state.AckUncommitted(v.State())
			if !needs {
				continue
			}
			if ca := v.CommittedAttachment(); ca != nil && ca.CommittedAsLocal() {
				if err := ops.RemoveVirt(ctx, ca.PAView(), v.View()); err != nil {
					return fmt.Errorf("remove_virt(%s): %w", v.GetName(), err)
				}
			}
			v.SetState(next)
			if next == state.Delete {
				v.Purge()
			}
		}

		for _, a := range n.Attachments() {
			next, needs := state.AckUncommitted(a.State())
			if !needs {
				continue
			}
			if a.CommittedAsLocal() {
				if err := ops.DestroyPA(ctx, a.PAView()); err != nil {
					return fmt.Errorf("destroy_pa(%s/%s): %w", n.GetName(), a.Phys().GetName(), err)
				}
				a.MarkCommittedLocal(false)
			}
			a.SetState(next)
			if next == state.Delete {
				a.Purge()
			}
		}

		netNext, netNeeds := state.AckUncommitted(n.State())
		if netNeeds {
			n.SetState(netNext)
			if netNext == state.Delete {
				n.Purge()
			}
		}
	}

	// Physes carry no data-plane state of their own, but Attachment.Phys
	// resolves only through the arena, so a phys must not be purged until
	// every attachment it owned (torn down above, through its net) has
	// already been decommitted.
	for _, p := range g.Physes() {
		next, needs := state.AckUncommitted(p.State())
		if !needs {
			continue
		}
		p.SetState(next)
		if next == state.Delete {
			p.Purge()
		}
	}
	return nil
}

// decommitRemoteViews drops the RemotePA/RemoteVirt bookkeeping a keeps
// toward any peer that is itself about to be decommitted, so a deleted or
// RENEWing attachment is cleanly forgotten by every other attachment's
// remote-view set before recommit rebuilds it.
func decommitRemoteViews(ctx context.Context, a *model.Attachment, ops nettype.Ops) error {
	for _, peer := range a.RemotePAPeers() {
		if peer.State() != state.Delete && peer.State() != state.Renew {
			continue
		}
		for _, pv := range a.RemoteVirtsFor(peer) {
			if err := ops.RemoveRemoteVirt(ctx, a.BuildRemoteVirtView(peer, pv)); err != nil {
				return fmt.Errorf("remove_remote_virt(%s): %w", pv.GetName(), err)
			}
		}
		if err := ops.RemoveRemotePA(ctx, a.BuildRemotePAView(peer)); err != nil {
			return fmt.Errorf("remove_remote_pa(%s): %w", peer.Phys().GetName(), err)
		}
		a.DropRemotePA(peer)
	}
	return nil
}

// recommit walks every net outermost-first: each local attachment that
// needs (re)creating gets CreatePA, each new virt on it gets AddVirt, and
// every other non-deleted attachment on the same net gets a RemotePA (and,
// for STATIC_E2E nets, per-virt RemoteVirt) view materialized against it.
func recommit(ctx context.Context, g *model.Context, resolved ifaceResolution) error {
	for v, iface := range resolved {
		v.ResolveIface(iface)
	}

	for _, n := range g.Nets() {
		ops := n.Settings().OpsOrNil()
		static := n.Settings().Discipline() == nettype.DisciplineStaticE2E

		for _, a := range n.Attachments() {
			phys := a.Phys()
			if !phys.IsLocal() || a.CommittedAsLocal() {
				continue
			}
			if err := ops.CreatePA(ctx, a.PAView()); err != nil {
				return fmt.Errorf("create_pa(%s/%s): %w", n.GetName(), phys.GetName(), err)
			}
			a.MarkCommittedLocal(true)
		}

		for _, a := range n.Attachments() {
			if !a.CommittedAsLocal() {
				continue
			}
			for _, v := range a.Virts() {
				if v.State() != state.New {
					continue
				}
				v.MarkCommitted(a, v.ConnectedIface())
				if err := ops.AddVirt(ctx, a.PAView(), v.View()); err != nil {
					return fmt.Errorf("add_virt(%s): %w", v.GetName(), err)
				}
			}
		}

		for _, a := range n.Attachments() {
			if !a.CommittedAsLocal() {
				continue
			}
			for _, peer := range n.Attachments() {
				if peer == a || peer.State() == state.Delete {
					continue
				}
				if a.EnsureRemotePA(peer) {
					if err := ops.AddRemotePA(ctx, a.BuildRemotePAView(peer)); err != nil {
						return fmt.Errorf("add_remote_pa(%s): %w", peer.Phys().GetName(), err)
					}
				}
				if !static {
					continue
				}
				for _, pv := range peer.Virts() {
					if a.EnsureRemoteVirt(peer, pv) {
						if err := ops.AddRemoteVirt(ctx, a.BuildRemoteVirtView(peer, pv)); err != nil {
							return fmt.Errorf("add_remote_virt(%s): %w", pv.GetName(), err)
						}
					}
				}
			}
		}
	}
	return nil
}

// ack lifts every surviving object from NEW/RENEW to OK, the final pass of
// a successful commit cycle.
func ack(g *model.Context) {
	for _, n := range g.Nets() {
		n.SetState(state.AckCommitted(n.State()))
		for _, a := range n.Attachments() {
			a.SetState(state.AckCommitted(a.State()))
		}
		for _, v := range n.Virts() {
			v.SetState(state.AckCommitted(v.State()))
		}
	}
	for _, p := range g.Physes() {
		p.SetState(state.AckCommitted(p.State()))
	}
}

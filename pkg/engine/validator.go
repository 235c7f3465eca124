// Package engine implements the differential reconciliation loop: Validate
// checks the object graph for structural problems without touching the
// data plane, and Commit runs decommit/recommit/ack against whichever
// nettype.Ops each net's Settings selected. Neither function retains state
// across calls — every invocation builds its own problem.Reporter and
// interface-name resolution scratch, so a failed validate leaves no visible
// trace on the model (Design Notes open question on scratch-state
// semantics).
package engine

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/model"
	"github.com/lsdn-core/lsdn/pkg/problem"
	"github.com/lsdn-core/lsdn/pkg/state"
)

// ifaceResolution is the validator's scratch state: the interface name each
// virt would resolve to if this validation were committed. It is discarded
// unless Commit's own validate pass succeeds and the caller proceeds to
// recommit.
type ifaceResolution map[*model.Virt]string

// Validate runs every structural check against ctx without mutating it
// (beyond the RENEW propagation every setter already keeps current) and
// without calling any driver hook that is not explicitly a pure check
// (ValidatePA/ValidateVirt). cb receives every problem found; it may be nil.
func Validate(ctx *model.Context, cb problem.Callback, user any) *problem.Reporter {
	r := problem.NewReporter(cb, user)
	validate(ctx, r)
	ctx.SetLastProblems(r.Problems())
	return r
}

// validate is the shared implementation Commit also uses, returning the
// interface-name resolutions a subsequent recommit should flush.
func validate(ctx *model.Context, r *problem.Reporter) ifaceResolution {
	checkDuplicateNets(ctx, r)
	checkDuplicateMACs(ctx, r)
	resolved := checkAttachments(ctx, r)
	checkDuplicatePhysIPs(ctx, r)

	return resolved
}

func checkDuplicateNets(ctx *model.Context, r *problem.Reporter) {
	type key struct {
		kind  string
		vnet  int
	}
	seen := make(map[key]*model.Net)
	ports := make(map[int][]*model.Net) // VXLAN port -> every VXLAN net (static or not) using it

	for _, n := range ctx.Nets() {
		if n.State() == state.Delete {
			continue
		}
		s := n.Settings()
		k := key{kind: string(s.Kind()), vnet: n.VnetID()}
		if other, ok := seen[k]; ok {
			r.Raise(problem.CodeNetDupID, "net %q and %q share nettype %s vnet_id %d",
				[]problem.Reference{{Kind: problem.RefNet, Name: n.GetName()}, {Kind: problem.RefNet, Name: other.GetName()}},
				n.GetName(), other.GetName(), s.Kind(), n.VnetID())
			continue
		}
		seen[k] = n

		if s.VXLANPort() != 0 {
			ports[s.VXLANPort()] = append(ports[s.VXLANPort()], n)
		}
	}

	for port, nets := range ports {
		var staticKind, otherKind *model.Net
		for _, n := range nets {
			if n.Settings().Kind() == "vxlan/static" {
				staticKind = n
			} else {
				otherKind = n
			}
		}
		if staticKind != nil && otherKind != nil {
			r.Raise(problem.CodeNetBadNettype,
				"port %d is used by both a static VXLAN net %q and a learning VXLAN net %q",
				[]problem.Reference{{Kind: problem.RefNet, Name: staticKind.GetName()}, {Kind: problem.RefNet, Name: otherKind.GetName()}},
				port, staticKind.GetName(), otherKind.GetName())
		}
	}
}

func checkDuplicateMACs(ctx *model.Context, r *problem.Reporter) {
	for _, n := range ctx.Nets() {
		if n.State() == state.Delete {
			continue
		}
		seen := make(map[string]*model.Virt)
		for _, v := range n.Virts() {
			if v.State() == state.Delete || v.MAC() == "" {
				continue
			}
			if other, ok := seen[v.MAC()]; ok {
				r.Raise(problem.CodeVirtDupAttr, "virt %q and %q on net %q share MAC %s",
					[]problem.Reference{{Kind: problem.RefVirt, Name: v.GetName()}, {Kind: problem.RefVirt, Name: other.GetName()}},
					v.GetName(), other.GetName(), n.GetName(), v.MAC())
				continue
			}
			seen[v.MAC()] = v
		}
	}
}

func checkAttachments(ctx *model.Context, r *problem.Reporter) ifaceResolution {
	resolved := make(ifaceResolution)

	for _, a := range ctx.Attachments() {
		if a.State() == state.Delete {
			continue
		}
		phys := a.Phys()
		net := a.Net()

		var virts []*model.Virt
		for _, v := range a.Virts() {
			if v.State() != state.Delete {
				virts = append(virts, v)
			}
		}

		if !a.Explicit() && len(virts) > 0 {
			r.Raise(problem.CodePhysNotAttached,
				"phys %q carries virts on net %q but was never explicitly attached",
				[]problem.Reference{{Kind: problem.RefPhys, Name: phys.GetName()}, {Kind: problem.RefNet, Name: net.GetName()}},
				phys.GetName(), net.GetName())
			continue
		}

		if !phys.IsLocal() {
			continue
		}

		if phys.Iface() == "" && len(virts) > 0 {
			r.Raise(problem.CodePhysNoAttr, "phys %q has virts on net %q but no local interface set",
				[]problem.Reference{{Kind: problem.RefPhys, Name: phys.GetName()}, {Kind: problem.RefIF, Name: ""}},
				phys.GetName(), net.GetName())
			continue
		}

		for _, v := range virts {
			iface := v.ConnectedIface()
			if iface == "" {
				iface = fmt.Sprintf("%s.%s", phys.Iface(), v.GetName())
			}
			resolved[v] = iface
		}

		ops := net.Settings().OpsOrNil()
		if err := ops.ValidatePA(a.PAView()); err != nil {
			r.Raise(problem.CodePhysNoAttr, "phys %q on net %q failed driver validation: %v",
				[]problem.Reference{{Kind: problem.RefPhys, Name: phys.GetName()}, {Kind: problem.RefNet, Name: net.GetName()}},
				phys.GetName(), net.GetName(), err)
		}
		for _, v := range virts {
			view := v.View()
			view.Iface = resolved[v]
			if err := ops.ValidateVirt(view); err != nil {
				r.Raise(problem.CodeVirtNoIf, "virt %q failed driver validation: %v",
					[]problem.Reference{{Kind: problem.RefVirt, Name: v.GetName()}},
					v.GetName(), err)
			}
		}
	}

	return resolved
}

func checkDuplicatePhysIPs(ctx *model.Context, r *problem.Reporter) {
	seen := make(map[string]*model.Phys)
	for _, p := range ctx.Physes() {
		if p.State() == state.Delete || p.IP() == "" {
			continue
		}
		if other, ok := seen[p.IP()]; ok {
			r.Raise(problem.CodePhysDupAttr, "phys %q and %q share underlay IP %s",
				[]problem.Reference{{Kind: problem.RefPhys, Name: p.GetName()}, {Kind: problem.RefPhys, Name: other.GetName()}},
				p.GetName(), other.GetName(), p.IP())
			continue
		}
		seen[p.IP()] = p
	}
}

// Package vxlan provides Settings constructors for the three VXLAN
// disciplines (multicast-learned, end-to-end-learned, statically
// provisioned) plus their ValidatePA/ValidateVirt hooks. Unlike the vlan
// and direct packages, it does not implement CreatePA/AddVirt/etc against
// netlink: a real deployment needs the FDB and multicast-group wiring a
// minimal exercise of the vtable contract has no business improvising, so
// those hooks are left as explicit not-implemented no-ops (BaseOps) until a
// concrete production target is chosen.
package vxlan

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/model"
	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// Ops validates VXLAN PAs and virts; every data-plane hook is BaseOps's
// no-op pending a concrete FDB/multicast backend.
type Ops struct {
	nettype.BaseOps
}

// ValidatePA requires a valid VNI and a resolvable underlay IP.
func (Ops) ValidatePA(pa nettype.PA) error {
	if err := util.ValidateVNI(pa.NetID); err != nil {
		return fmt.Errorf("vxlan: %w", err)
	}
	if pa.PhysIP == "" {
		return fmt.Errorf("vxlan: phys %q needs an underlay IP", pa.PhysName)
	}
	if !util.IsValidIPv4(pa.PhysIP) {
		return fmt.Errorf("vxlan: phys %q underlay IP %q is not a valid IPv4 address", pa.PhysName, pa.PhysIP)
	}
	return nil
}

// ValidateVirt requires a parseable MAC when one is set.
func (Ops) ValidateVirt(v nettype.Virt) error {
	if v.MAC == "" {
		return nil
	}
	if _, err := util.NormalizeMACAddress(v.MAC); err != nil {
		return fmt.Errorf("vxlan: virt %q: %w", v.Name, err)
	}
	return nil
}

var _ nettype.Ops = Ops{}

// NewMcast creates a Settings object for VXLAN with multicast-learned
// remote PAs, reachable at port/mcastGroup.
func NewMcast(ctx *model.Context, port int, mcastGroup string) *model.Settings {
	return ctx.NewVXLANMcast(port, mcastGroup, Ops{})
}

// NewE2E creates a Settings object for VXLAN where remote PAs are learned
// from the local commit engine's own attachment graph.
func NewE2E(ctx *model.Context, port int) *model.Settings {
	return ctx.NewVXLANE2E(port, Ops{})
}

// NewStatic creates a Settings object for VXLAN where both remote PAs and
// remote virt MACs must be statically provisioned.
func NewStatic(ctx *model.Context, port int) *model.Settings {
	return ctx.NewVXLANStatic(port, Ops{})
}

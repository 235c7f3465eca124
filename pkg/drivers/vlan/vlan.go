// Package vlan implements nettype.Ops for 802.1Q VLAN nets: one bridge per
// local PA, with a VLAN sub-interface of the phys's trunk added to it, and
// one veth pair per virt plugged into that bridge.
package vlan

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// Ops is the VLAN-nettype driver.
type Ops struct {
	nettype.BaseOps
}

func bridgeName(pa nettype.PA) string {
	return fmt.Sprintf("br-lsdn%d", pa.NetID)
}

func subIfaceName(pa nettype.PA) string {
	return fmt.Sprintf("%s.%d", pa.PhysIface, pa.NetID)
}

// CreatePA brings up a bridge and a VLAN sub-interface of the phys's trunk,
// enslaving the sub-interface to the bridge.
func (Ops) CreatePA(ctx context.Context, pa nettype.PA) error {
	if err := util.ValidateVLANID(pa.NetID); err != nil {
		return fmt.Errorf("vlan: %w", err)
	}
	trunk, err := netlink.LinkByName(pa.PhysIface)
	if err != nil {
		return fmt.Errorf("vlan: trunk %q: %w", pa.PhysIface, err)
	}

	br := &netlink.Bridge{LinkAttrs: netlink.NewLinkAttrs()}
	br.Name = bridgeName(pa)
	if err := netlink.LinkAdd(br); err != nil {
		return fmt.Errorf("vlan: bridge add %s: %w", br.Name, err)
	}
	if err := netlink.LinkSetUp(br); err != nil {
		return fmt.Errorf("vlan: bridge up %s: %w", br.Name, err)
	}

	subAttrs := netlink.NewLinkAttrs()
	subAttrs.Name = subIfaceName(pa)
	subAttrs.ParentIndex = trunk.Attrs().Index
	sub := &netlink.Vlan{LinkAttrs: subAttrs, VlanId: pa.NetID}
	if err := netlink.LinkAdd(sub); err != nil {
		return fmt.Errorf("vlan: sub-interface add %s: %w", subAttrs.Name, err)
	}
	if err := netlink.LinkSetMaster(sub, br); err != nil {
		return fmt.Errorf("vlan: enslave %s to %s: %w", subAttrs.Name, br.Name, err)
	}
	return netlink.LinkSetUp(sub)
}

// DestroyPA removes the bridge and VLAN sub-interface created by CreatePA.
func (Ops) DestroyPA(ctx context.Context, pa nettype.PA) error {
	if sub, err := netlink.LinkByName(subIfaceName(pa)); err == nil {
		_ = netlink.LinkDel(sub)
	}
	if br, err := netlink.LinkByName(bridgeName(pa)); err == nil {
		return netlink.LinkDel(br)
	}
	return nil
}

// AddVirt creates a veth pair for v and enslaves its host-side end to the
// PA's bridge.
func (Ops) AddVirt(ctx context.Context, pa nettype.PA, v nettype.Virt) error {
	br, err := netlink.LinkByName(bridgeName(pa))
	if err != nil {
		return fmt.Errorf("vlan: bridge %s not found: %w", bridgeName(pa), err)
	}
	attrs := netlink.NewLinkAttrs()
	attrs.Name = v.Iface
	veth := &netlink.Veth{LinkAttrs: attrs, PeerName: v.Iface + "-peer"}
	if err := netlink.LinkAdd(veth); err != nil {
		return fmt.Errorf("vlan: veth add %s: %w", v.Iface, err)
	}
	if err := netlink.LinkSetMaster(veth, br); err != nil {
		return fmt.Errorf("vlan: enslave %s: %w", v.Iface, err)
	}
	return netlink.LinkSetUp(veth)
}

// RemoveVirt tears down the veth pair created for v.
func (Ops) RemoveVirt(ctx context.Context, pa nettype.PA, v nettype.Virt) error {
	link, err := netlink.LinkByName(v.Iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return err
	}
	return netlink.LinkDel(link)
}

// ValidatePA requires a valid VLAN ID and a resolvable trunk interface name.
func (Ops) ValidatePA(pa nettype.PA) error {
	if err := util.ValidateVLANID(pa.NetID); err != nil {
		return err
	}
	if pa.PhysIface == "" {
		return fmt.Errorf("vlan: phys %q needs a trunk interface", pa.PhysName)
	}
	return nil
}

var _ nettype.Ops = Ops{}

// Package direct implements nettype.Ops for point-to-point nets: each virt
// becomes one end of a veth pair, with the other end left for the caller
// (container runtime, netns move, etc) to consume by name.
package direct

import (
	"context"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// Ops is the direct-nettype driver. It carries no per-PA state: a direct
// net has no shared data-plane object, only per-virt veth pairs.
type Ops struct {
	nettype.BaseOps
	// PeerSuffix names the far end of each veth pair ("<iface><PeerSuffix>");
	// defaults to "-peer" when empty.
	PeerSuffix string
}

func (o Ops) peerName(iface string) string {
	suffix := o.PeerSuffix
	if suffix == "" {
		suffix = "-peer"
	}
	return iface + suffix
}

// AddVirt creates the veth pair backing v on pa's local interface namespace.
func (o Ops) AddVirt(ctx context.Context, pa nettype.PA, v nettype.Virt) error {
	if v.Iface == "" {
		return fmt.Errorf("direct: virt %q has no resolved interface", v.Name)
	}
	attrs := netlink.NewLinkAttrs()
	attrs.Name = v.Iface
	if v.MAC != "" {
		mac, err := util.NormalizeMACAddress(v.MAC)
		if err != nil {
			return fmt.Errorf("direct: %w", err)
		}
		hw, err := net.ParseMAC(mac)
		if err != nil {
			return fmt.Errorf("direct: %w", err)
		}
		attrs.HardwareAddr = hw
	}
	veth := &netlink.Veth{
		LinkAttrs: attrs,
		PeerName:  o.peerName(v.Iface),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := netlink.LinkAdd(veth); err != nil {
		return fmt.Errorf("direct: link add %s: %w", v.Iface, err)
	}
	if err := netlink.LinkSetUp(veth); err != nil {
		return fmt.Errorf("direct: link up %s: %w", v.Iface, err)
	}
	util.WithFields(map[string]interface{}{"virt": v.Name, "iface": v.Iface}).Debug("direct: veth pair created")
	return nil
}

// RemoveVirt tears down the veth pair created for v.
func (o Ops) RemoveVirt(ctx context.Context, pa nettype.PA, v nettype.Virt) error {
	link, err := netlink.LinkByName(v.Iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("direct: lookup %s: %w", v.Iface, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("direct: link del %s: %w", v.Iface, err)
	}
	return nil
}

// ValidateVirt requires a resolved interface and, if set, a parseable MAC.
func (o Ops) ValidateVirt(v nettype.Virt) error {
	if v.Iface == "" {
		return fmt.Errorf("direct: virt %q needs a resolvable interface", v.Name)
	}
	if v.MAC != "" {
		if _, err := util.NormalizeMACAddress(v.MAC); err != nil {
			return err
		}
	}
	return nil
}

var _ nettype.Ops = Ops{}

package model

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/arena"
	"github.com/lsdn-core/lsdn/pkg/nettype"
)

// Settings binds a Kind/Discipline pair to the nettype.Ops implementation
// that drives it, plus whatever discipline-specific parameters (VNI, port,
// multicast group) the kind requires. Nets reference exactly one Settings
// object; many Nets may share one Settings.
type Settings struct {
	h    arena.Handle
	ctx  *Context
	name string

	kind       nettype.Kind
	discipline nettype.Discipline
	ops        nettype.Ops

	// VXLAN-specific parameters; zero-valued and unused for VLAN/direct.
	vxlanPort  int
	mcastGroup string
	vnetIDFromUser bool // not set anywhere in this package; always false

	nets map[arena.Handle]struct{}
}

func newSettings(ctx *Context, kind nettype.Kind, disc nettype.Discipline, ops nettype.Ops) *Settings {
	s := &Settings{
		ctx:        ctx,
		kind:       kind,
		discipline: disc,
		ops:        ops,
		nets:       make(map[arena.Handle]struct{}),
	}
	s.h = ctx.settings.Insert(s)
	return s
}

// NewVLAN creates a Settings object for 802.1Q VLAN nets, driven by ops (nil
// selects nettype.BaseOps, i.e. model-only bookkeeping with no data plane).
func (c *Context) NewVLAN(ops nettype.Ops) *Settings {
	return newSettings(c, nettype.KindVLAN, nettype.DisciplineLearning, orBase(ops))
}

// NewVXLANMcast creates a Settings object for VXLAN with multicast-learned
// remote PAs.
func (c *Context) NewVXLANMcast(port int, mcastGroup string, ops nettype.Ops) *Settings {
	s := newSettings(c, nettype.KindVXLANMcast, nettype.DisciplineLearning, orBase(ops))
	s.vxlanPort = port
	s.mcastGroup = mcastGroup
	return s
}

// NewVXLANE2E creates a Settings object for VXLAN where remote PAs are
// learned from the commit engine's own attachment graph (no multicast).
func (c *Context) NewVXLANE2E(port int, ops nettype.Ops) *Settings {
	s := newSettings(c, nettype.KindVXLANE2E, nettype.DisciplineLearningE2E, orBase(ops))
	s.vxlanPort = port
	return s
}

// NewVXLANStatic creates a Settings object for VXLAN where both remote PAs
// and remote virt MACs must be statically provisioned (no learning at all).
func (c *Context) NewVXLANStatic(port int, ops nettype.Ops) *Settings {
	s := newSettings(c, nettype.KindVXLANStatic, nettype.DisciplineStaticE2E, orBase(ops))
	s.vxlanPort = port
	return s
}

// NewDirect creates a Settings object for a point-to-point direct net (at
// most two attachments, no broadcast infrastructure needed).
func (c *Context) NewDirect(ops nettype.Ops) *Settings {
	return newSettings(c, nettype.KindDirect, nettype.DisciplineLearning, orBase(ops))
}

func orBase(ops nettype.Ops) nettype.Ops {
	if ops == nil {
		return nettype.BaseOps{}
	}
	return ops
}

// Kind returns the network type this Settings object drives.
func (s *Settings) Kind() nettype.Kind { return s.kind }

// Discipline returns the switching discipline this Settings object selected.
func (s *Settings) Discipline() nettype.Discipline { return s.discipline }

// VXLANPort returns the configured destination UDP port, or 0 for non-VXLAN
// kinds.
func (s *Settings) VXLANPort() int { return s.vxlanPort }

// OpsOrNil returns the driver this settings object was bound to. Never
// actually nil — newSettings always substitutes nettype.BaseOps{} for a nil
// ops argument — but named to signal callers should not assume a concrete
// driver type.
func (s *Settings) OpsOrNil() nettype.Ops { return s.ops }

// MulticastGroup returns the configured multicast group, or "" outside
// KindVXLANMcast.
func (s *Settings) MulticastGroup() string { return s.mcastGroup }

// SetName assigns a unique name to this Settings object within its context.
func (s *Settings) SetName(name string) error {
	if err := s.ctx.settingsNames.Set(s.h, name); err != nil {
		return &DuplicateError{Kind: "settings", Name: name}
	}
	s.name = name
	return nil
}

// GetName returns this Settings object's name, or "" if unset.
func (s *Settings) GetName() string { return s.name }

// SettingsByName looks up a Settings object by name within ctx.
func (c *Context) SettingsByName(name string) (*Settings, bool) {
	h, ok := c.settingsNames.ByName(name)
	if !ok {
		return nil, false
	}
	return c.settings.Get(h)
}

// Free releases this Settings object. Every Net still referencing it is
// freed first (cascading deletion, matching the original's ownership rule
// that a Settings object cannot outlive its nets).
func (s *Settings) Free() {
	for h := range s.nets {
		if n, ok := s.ctx.nets.Get(h); ok {
			n.Free()
		}
	}
	s.ctx.settingsNames.Remove(s.h)
	s.ctx.settings.Delete(s.h)
}

func (s *Settings) String() string {
	return fmt.Sprintf("settings(%s, kind=%s)", s.name, s.kind)
}

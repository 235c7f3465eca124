// Package topology loads a declarative YAML description of a Context's
// object graph and builds it against pkg/model — the format cmd/lsdnctl
// reads so an operator can describe nets, physes, attachments and virts in
// a file instead of writing Go.
package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lsdn-core/lsdn/pkg/drivers/direct"
	"github.com/lsdn-core/lsdn/pkg/drivers/vlan"
	"github.com/lsdn-core/lsdn/pkg/drivers/vxlan"
	"github.com/lsdn-core/lsdn/pkg/model"
	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// knownKinds are the nettype kinds buildSettings knows how to bind.
var knownKinds = map[string]bool{
	"vlan":         true,
	"vxlan-mcast":  true,
	"vxlan-e2e":    true,
	"vxlan-static": true,
	"direct":       true,
}

// Doc is the root of a topology file.
type Doc struct {
	Settings []SettingsDoc `yaml:"settings"`
	Physes   []PhysDoc     `yaml:"physes"`
	Nets     []NetDoc      `yaml:"nets"`
}

// SettingsDoc describes one Settings object.
type SettingsDoc struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"` // vlan | vxlan-mcast | vxlan-e2e | vxlan-static | direct
	VXLANPort  int    `yaml:"vxlan_port,omitempty"`
	MCastGroup string `yaml:"mcast_group,omitempty"`
}

// PhysDoc describes one Phys object.
type PhysDoc struct {
	Name  string `yaml:"name"`
	Iface string `yaml:"iface,omitempty"`
	IP    string `yaml:"ip,omitempty"`
	Local bool   `yaml:"local,omitempty"`
}

// NetDoc describes one Net object and everything attached to it.
type NetDoc struct {
	Name        string            `yaml:"name"`
	Settings    string            `yaml:"settings"`
	VnetID      int               `yaml:"vnet_id"`
	Attachments []AttachmentDoc   `yaml:"attachments,omitempty"`
	Virts       []VirtDoc         `yaml:"virts,omitempty"`
}

// AttachmentDoc marks a phys as explicitly attached to the enclosing net.
type AttachmentDoc struct {
	Phys string `yaml:"phys"`
}

// VirtDoc describes one Virt connected to the enclosing net.
type VirtDoc struct {
	Name  string `yaml:"name"`
	Phys  string `yaml:"phys"`
	MAC   string `yaml:"mac,omitempty"`
	Iface string `yaml:"iface,omitempty"`
}

// Load reads and parses a topology file.
func Load(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology %s: %w", path, err)
	}
	var doc Doc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing topology %s: %w", path, err)
	}
	return &doc, nil
}

// DriverMode selects which concrete nettype.Ops implementation Build binds
// to each Settings object. "netlink" wires the real vishvananda/netlink
// backed drivers (vlan.Ops, direct.Ops); anything else (including "") stays
// with nettype.BaseOps, i.e. model-only bookkeeping with no data-plane
// effect — the safe default for a workstation with no root/netns access.
const (
	DriverNetlink = "netlink"
	DriverNoop    = "noop"
)

// Build constructs a fresh model.Context named ctxName from doc, binding
// each SettingsDoc's Kind to a driver chosen by driverMode. Every reference
// and duplicate-name problem in doc is collected and reported together
// before anything is built against pkg/model — an operator fixing a
// topology file sees every mistake in one pass, not one fix-rerun-fail
// cycle per mistake.
func Build(ctxName string, doc *Doc, driverMode string) (*model.Context, error) {
	if err := validateDoc(doc); err != nil {
		return nil, fmt.Errorf("topology %q: %w", ctxName, err)
	}

	ctx := model.New(ctxName)

	settingsByName := make(map[string]*model.Settings, len(doc.Settings))
	for _, sd := range doc.Settings {
		s, err := buildSettings(ctx, sd, driverMode)
		if err != nil {
			return nil, fmt.Errorf("settings %q: %w", sd.Name, err)
		}
		if err := s.SetName(sd.Name); err != nil {
			return nil, fmt.Errorf("settings %q: %w", sd.Name, err)
		}
		settingsByName[sd.Name] = s
	}

	physByName := make(map[string]*model.Phys, len(doc.Physes))
	for _, pd := range doc.Physes {
		p := ctx.NewPhys()
		if err := p.SetName(pd.Name); err != nil {
			return nil, fmt.Errorf("phys %q: %w", pd.Name, err)
		}
		if pd.Iface != "" {
			p.SetIface(pd.Iface)
		}
		if pd.IP != "" {
			p.SetIP(pd.IP)
		}
		if pd.Local {
			p.ClaimLocal()
		}
		physByName[pd.Name] = p
	}

	for _, nd := range doc.Nets {
		n := settingsByName[nd.Settings].New(nd.VnetID)
		if err := n.SetName(nd.Name); err != nil {
			return nil, fmt.Errorf("net %q: %w", nd.Name, err)
		}

		for _, ad := range nd.Attachments {
			physByName[ad.Phys].Attach(n)
		}

		for _, vd := range nd.Virts {
			v := n.New()
			if err := v.SetName(vd.Name); err != nil {
				return nil, fmt.Errorf("virt %q: %w", vd.Name, err)
			}
			if vd.MAC != "" {
				v.SetMAC(vd.MAC)
			}
			v.Connect(physByName[vd.Phys], vd.Iface)
		}
	}

	return ctx, nil
}

// validateDoc aggregates every duplicate-name, unknown-kind and dangling
// reference problem in doc via util.ValidationBuilder, so Build can trust
// every name lookup below it to succeed.
func validateDoc(doc *Doc) error {
	v := &util.ValidationBuilder{}

	settingsNames := make(map[string]bool, len(doc.Settings))
	for _, sd := range doc.Settings {
		if settingsNames[sd.Name] {
			v.AddErrorf("duplicate settings name %q", sd.Name)
		}
		settingsNames[sd.Name] = true
		if !knownKinds[sd.Kind] {
			v.AddErrorf("settings %q: unknown kind %q", sd.Name, sd.Kind)
		}
	}

	physNames := make(map[string]bool, len(doc.Physes))
	for _, pd := range doc.Physes {
		if physNames[pd.Name] {
			v.AddErrorf("duplicate phys name %q", pd.Name)
		}
		physNames[pd.Name] = true
	}

	netNames := make(map[string]bool, len(doc.Nets))
	virtNames := make(map[string]bool)
	for _, nd := range doc.Nets {
		if netNames[nd.Name] {
			v.AddErrorf("duplicate net name %q", nd.Name)
		}
		netNames[nd.Name] = true

		if !settingsNames[nd.Settings] {
			v.AddError(util.NewDependencyError(fmt.Sprintf("net %q", nd.Name), "settings", nd.Settings).Error())
		}

		for _, ad := range nd.Attachments {
			if !physNames[ad.Phys] {
				v.AddError(util.NewDependencyError(fmt.Sprintf("net %q attachment", nd.Name), "phys", ad.Phys).Error())
			}
		}

		for _, vd := range nd.Virts {
			if virtNames[vd.Name] {
				v.AddErrorf("duplicate virt name %q", vd.Name)
			}
			virtNames[vd.Name] = true
			if !physNames[vd.Phys] {
				v.AddError(util.NewDependencyError(fmt.Sprintf("virt %q", vd.Name), "phys", vd.Phys).Error())
			}
		}
	}

	return v.Build()
}

func buildSettings(ctx *model.Context, sd SettingsDoc, driverMode string) (*model.Settings, error) {
	netlink := driverMode == DriverNetlink
	switch sd.Kind {
	case "vlan":
		var ops nettype.Ops
		if netlink {
			ops = vlan.Ops{}
		}
		return ctx.NewVLAN(ops), nil
	case "vxlan-mcast":
		s := vxlan.NewMcast(ctx, sd.VXLANPort, sd.MCastGroup)
		return s, nil
	case "vxlan-e2e":
		return vxlan.NewE2E(ctx, sd.VXLANPort), nil
	case "vxlan-static":
		return vxlan.NewStatic(ctx, sd.VXLANPort), nil
	case "direct":
		var ops nettype.Ops
		if netlink {
			ops = direct.Ops{}
		}
		return ctx.NewDirect(ops), nil
	default:
		return nil, fmt.Errorf("unknown nettype kind %q", sd.Kind)
	}
}

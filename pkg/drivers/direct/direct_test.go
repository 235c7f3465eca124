package direct

import (
	"context"
	"testing"

	"github.com/lsdn-core/lsdn/pkg/nettype"
)

func TestValidateVirt(t *testing.T) {
	tests := []struct {
		name    string
		v       nettype.Virt
		wantErr bool
	}{
		{"resolved, no mac", nettype.Virt{Name: "v0", Iface: "veth0"}, false},
		{"resolved, valid mac", nettype.Virt{Name: "v0", Iface: "veth0", MAC: "02:00:00:00:00:01"}, false},
		{"unresolved iface", nettype.Virt{Name: "v0"}, true},
		{"bad mac", nettype.Virt{Name: "v0", Iface: "veth0", MAC: "not-a-mac"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (Ops{}).ValidateVirt(tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVirt(%+v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
		})
	}
}

func TestPeerName(t *testing.T) {
	if got, want := (Ops{}).peerName("veth0"), "veth0-peer"; got != want {
		t.Errorf("peerName() default = %q, want %q", got, want)
	}
	custom := Ops{PeerSuffix: "-far"}
	if got, want := custom.peerName("veth0"), "veth0-far"; got != want {
		t.Errorf("peerName() custom = %q, want %q", got, want)
	}
}

func TestAddVirt_NoResolvedIface(t *testing.T) {
	v := nettype.Virt{Name: "v0"}
	if err := (Ops{}).AddVirt(context.Background(), nettype.PA{}, v); err == nil {
		t.Error("AddVirt() should error when the virt has no resolved interface")
	}
}

func TestAddVirt_BadMAC(t *testing.T) {
	v := nettype.Virt{Name: "v0", Iface: "lsdn-test-veth0", MAC: "not-a-mac"}
	if err := (Ops{}).AddVirt(context.Background(), nettype.PA{}, v); err == nil {
		t.Error("AddVirt() should error on an unparseable MAC before touching netlink")
	}
}

func TestAddVirt_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := nettype.Virt{Name: "v0", Iface: "lsdn-test-veth0"}
	if err := (Ops{}).AddVirt(ctx, nettype.PA{}, v); err == nil {
		t.Error("AddVirt() should respect a canceled context")
	}
}

func TestRemoveVirt_MissingLink(t *testing.T) {
	v := nettype.Virt{Name: "v0", Iface: "lsdn-test-nonexistent-veth"}
	if err := (Ops{}).RemoveVirt(context.Background(), nettype.PA{}, v); err != nil {
		t.Errorf("RemoveVirt() for a missing link should be a no-op, got %v", err)
	}
}

func TestOps_ImplementsNettypeOps(t *testing.T) {
	var _ nettype.Ops = Ops{}
}

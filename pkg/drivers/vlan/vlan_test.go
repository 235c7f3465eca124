package vlan

import (
	"context"
	"testing"

	"github.com/lsdn-core/lsdn/pkg/nettype"
)

func TestValidatePA(t *testing.T) {
	tests := []struct {
		name    string
		pa      nettype.PA
		wantErr bool
	}{
		{"valid", nettype.PA{NetID: 100, PhysIface: "eth0"}, false},
		{"bad vlan id", nettype.PA{NetID: 0, PhysIface: "eth0"}, true},
		{"vlan id too large", nettype.PA{NetID: 4095, PhysIface: "eth0"}, true},
		{"missing trunk", nettype.PA{NetID: 100, PhysIface: ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Ops{}.ValidatePA(tt.pa)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePA(%+v) error = %v, wantErr %v", tt.pa, err, tt.wantErr)
			}
		})
	}
}

func TestBridgeAndSubIfaceNames(t *testing.T) {
	pa := nettype.PA{NetID: 42, PhysIface: "eth0"}
	if got, want := bridgeName(pa), "br-lsdn42"; got != want {
		t.Errorf("bridgeName() = %q, want %q", got, want)
	}
	if got, want := subIfaceName(pa), "eth0.42"; got != want {
		t.Errorf("subIfaceName() = %q, want %q", got, want)
	}
}

func TestCreatePA_InvalidVLANID(t *testing.T) {
	pa := nettype.PA{NetID: 0, PhysIface: "eth0"}
	if err := (Ops{}).CreatePA(context.Background(), pa); err == nil {
		t.Error("CreatePA() with invalid VLAN ID should error before touching netlink")
	}
}

func TestCreatePA_MissingTrunk(t *testing.T) {
	pa := nettype.PA{NetID: 100, PhysIface: "lsdn-test-nonexistent-trunk"}
	if err := (Ops{}).CreatePA(context.Background(), pa); err == nil {
		t.Error("CreatePA() should error when the trunk interface does not exist")
	}
}

func TestRemoveVirt_MissingLink(t *testing.T) {
	pa := nettype.PA{NetID: 100, PhysIface: "eth0"}
	v := nettype.Virt{Name: "v0", Iface: "lsdn-test-nonexistent-veth"}
	if err := (Ops{}).RemoveVirt(context.Background(), pa, v); err != nil {
		t.Errorf("RemoveVirt() for a missing link should be a no-op, got %v", err)
	}
}

func TestAddVirt_MissingBridge(t *testing.T) {
	pa := nettype.PA{NetID: 100, PhysIface: "eth0"}
	v := nettype.Virt{Name: "v0", Iface: "lsdn-test-veth0"}
	if err := (Ops{}).AddVirt(context.Background(), pa, v); err == nil {
		t.Error("AddVirt() should error when the PA's bridge does not exist")
	}
}

func TestDestroyPA_NothingToDo(t *testing.T) {
	pa := nettype.PA{NetID: 100, PhysIface: "eth0"}
	if err := (Ops{}).DestroyPA(context.Background(), pa); err != nil {
		t.Errorf("DestroyPA() with nothing created should be a no-op, got %v", err)
	}
}

func TestOps_ImplementsNettypeOps(t *testing.T) {
	var _ nettype.Ops = Ops{}
}

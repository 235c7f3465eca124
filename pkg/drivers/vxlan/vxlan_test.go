package vxlan

import (
	"testing"

	"github.com/lsdn-core/lsdn/pkg/nettype"
)

func TestValidatePA(t *testing.T) {
	o := Ops{}
	if err := o.ValidatePA(nettype.PA{NetID: 100, PhysIP: "10.0.0.1", PhysName: "p1"}); err != nil {
		t.Fatalf("valid PA rejected: %v", err)
	}
	if err := o.ValidatePA(nettype.PA{NetID: 0, PhysIP: "10.0.0.1"}); err == nil {
		t.Fatal("expected error for VNI 0")
	}
	if err := o.ValidatePA(nettype.PA{NetID: 100, PhysIP: ""}); err == nil {
		t.Fatal("expected error for missing underlay IP")
	}
	if err := o.ValidatePA(nettype.PA{NetID: 100, PhysIP: "not-an-ip"}); err == nil {
		t.Fatal("expected error for invalid underlay IP")
	}
}

func TestValidateVirt(t *testing.T) {
	o := Ops{}
	if err := o.ValidateVirt(nettype.Virt{Name: "v1"}); err != nil {
		t.Fatalf("virt with no MAC should be valid: %v", err)
	}
	if err := o.ValidateVirt(nettype.Virt{Name: "v1", MAC: "aa:bb:cc:dd:ee:ff"}); err != nil {
		t.Fatalf("valid MAC rejected: %v", err)
	}
	if err := o.ValidateVirt(nettype.Virt{Name: "v1", MAC: "garbage"}); err == nil {
		t.Fatal("expected error for invalid MAC")
	}
}

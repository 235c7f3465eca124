package model

import (
	"testing"

	"github.com/lsdn-core/lsdn/pkg/nettype"
	"github.com/lsdn-core/lsdn/pkg/state"
)

func TestNameUniquenessPerNamespace(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	if err := s.SetName("s1"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	s2 := c.NewVLAN(nil)
	if err := s2.SetName("s1"); err == nil {
		t.Fatal("expected duplicate settings name to be rejected")
	}

	n := s.New(10)
	if err := n.SetName("n1"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	p := c.NewPhys()
	if err := p.SetName("n1"); err != nil {
		t.Fatalf("phys and net namespaces should be independent: %v", err)
	}
}

func TestDetachWithNoVirtsFreesImmediately(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	n := s.New(1)
	p := c.NewPhys()
	p.SetName("p1")
	n.SetName("n1")

	p.Attach(n)
	if len(n.Attachments()) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(n.Attachments()))
	}
	p.Detach(n)
	if len(n.Attachments()) != 0 {
		t.Fatalf("expected attachment to be freed on detach with no virts, got %d", len(n.Attachments()))
	}
}

func TestDetachWithVirtsKeepsImplicitAttachment(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	n := s.New(1)
	p := c.NewPhys()
	p.ClaimLocal()
	p.SetIface("eth0")

	a := p.Attach(n)
	v := n.New()
	v.Connect(p, "")

	p.Detach(n)

	if a.Explicit() {
		t.Fatal("attachment should no longer be explicit after Detach")
	}
	if len(n.Attachments()) != 1 {
		t.Fatalf("attachment with virts should survive Detach, got %d attachments", len(n.Attachments()))
	}
}

func TestConnectCreatesImplicitAttachment(t *testing.T) {
	c := New("t")
	s := c.NewDirect(nil)
	n := s.New(0)
	p := c.NewPhys()

	v := n.New()
	v.Connect(p, "veth0")

	if len(n.Attachments()) != 1 {
		t.Fatalf("expected Connect to implicitly create an attachment, got %d", len(n.Attachments()))
	}
	a := n.Attachments()[0]
	if a.Explicit() {
		t.Fatal("attachment created by Connect should not be explicit")
	}
	if len(a.Virts()) != 1 || a.Virts()[0] != v {
		t.Fatal("attachment should list the connected virt exactly once")
	}
}

func TestFreeingNewObjectSkipsDecommit(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	n := s.New(1)
	n.SetName("n1")
	if n.State() != state.New {
		t.Fatalf("fresh net should start NEW, got %s", n.State())
	}
	n.Free()
	if _, ok := c.NetByName("n1"); ok {
		t.Fatal("freeing a never-committed net should remove it immediately")
	}
}

func TestMustRenewTracksMutation(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	n := s.New(1)
	n.SetState(state.OK)

	n.SetVnetID(2)
	if n.State() != state.Renew {
		t.Fatalf("mutating vnet_id on a committed net should move it to RENEW, got %s", n.State())
	}
}

func TestOpsDefaultsToBaseOps(t *testing.T) {
	c := New("t")
	s := c.NewVLAN(nil)
	if s.OpsOrNil() == nil {
		t.Fatal("Settings should never carry a nil Ops")
	}
	if err := s.OpsOrNil().ValidatePA(nettype.PA{}); err != nil {
		t.Fatalf("BaseOps.ValidatePA should no-op: %v", err)
	}
}

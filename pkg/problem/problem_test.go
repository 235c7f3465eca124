package problem

import "testing"

func TestReporterAccumulatesAndInvokesCallback(t *testing.T) {
	var seen []*Problem
	r := NewReporter(func(p *Problem, user any) {
		seen = append(seen, p)
		if user != "ctx" {
			t.Errorf("callback user = %v, want ctx", user)
		}
	}, "ctx")

	if !r.Clean() {
		t.Fatalf("fresh reporter should be clean")
	}

	r.Raise(CodeVirtDupAttr, "duplicate MAC %s in net %s", []Reference{
		{Kind: RefVirt, Name: "vm1"},
		{Kind: RefVirt, Name: "vm2"},
	}, "00:11:22:33:44:55", "net0")

	if r.Clean() {
		t.Fatalf("reporter should not be clean after Raise")
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	if len(seen) != 1 {
		t.Fatalf("callback invoked %d times, want 1", len(seen))
	}
	got := seen[0]
	if got.Code != CodeVirtDupAttr {
		t.Errorf("Code = %v, want %v", got.Code, CodeVirtDupAttr)
	}
	if len(got.Refs) != 2 || got.Refs[0].Name != "vm1" || got.Refs[1].Name != "vm2" {
		t.Errorf("Refs = %v, want vm1, vm2", got.Refs)
	}
	want := "duplicate MAC 00:11:22:33:44:55 in net net0"
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestReporterWithNilCallback(t *testing.T) {
	r := NewReporter(nil, nil)
	r.Raise(CodePhysNoAttr, "phys %s missing iface", []Reference{{Kind: RefPhys, Name: "host1"}}, "host1")
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
}

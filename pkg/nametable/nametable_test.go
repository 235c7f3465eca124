package nametable

import (
	"errors"
	"testing"

	"github.com/lsdn-core/lsdn/pkg/arena"
)

func TestSetAndLookup(t *testing.T) {
	tbl := New()
	a := arena.New[struct{}]()
	h := a.Insert(struct{}{})

	if err := tbl.Set(h, "net0"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := tbl.ByName("net0")
	if !ok || got != h {
		t.Fatalf("ByName() = %v, %v, want %v, true", got, ok, h)
	}
	name, ok := tbl.Get(h)
	if !ok || name != "net0" {
		t.Fatalf("Get() = %q, %v", name, ok)
	}
}

func TestDuplicateRejected(t *testing.T) {
	tbl := New()
	a := arena.New[struct{}]()
	h1 := a.Insert(struct{}{})
	h2 := a.Insert(struct{}{})

	if err := tbl.Set(h1, "net0"); err != nil {
		t.Fatalf("Set h1: %v", err)
	}
	err := tbl.Set(h2, "net0")
	var dup *ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("Set h2 duplicate name: got %v, want *ErrDuplicate", err)
	}
}

func TestRenameReleasesOldName(t *testing.T) {
	tbl := New()
	a := arena.New[struct{}]()
	h := a.Insert(struct{}{})

	_ = tbl.Set(h, "old")
	if err := tbl.Set(h, "new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, ok := tbl.ByName("old"); ok {
		t.Fatalf("old name should have been released")
	}
	if got, ok := tbl.ByName("new"); !ok || got != h {
		t.Fatalf("ByName(new) = %v, %v", got, ok)
	}
}

func TestRemove(t *testing.T) {
	tbl := New()
	a := arena.New[struct{}]()
	h := a.Insert(struct{}{})
	_ = tbl.Set(h, "net0")
	tbl.Remove(h)

	if _, ok := tbl.ByName("net0"); ok {
		t.Fatalf("name should be gone after Remove")
	}
	if _, ok := tbl.Get(h); ok {
		t.Fatalf("handle should be gone after Remove")
	}
}

package broadcast

import "testing"

// recordingBuilder assigns each action a sequential token and records
// removals, standing in for the real TC-action emission the driver would do.
type recordingBuilder struct {
	next    int
	removed []any
}

func (b *recordingBuilder) AddAction(desc any) (any, error) {
	b.next++
	return b.next, nil
}

func (b *recordingBuilder) RemoveAction(token any) error {
	b.removed = append(b.removed, token)
	return nil
}

func TestAddFillsFilterBeforeAllocatingNext(t *testing.T) {
	b := &recordingBuilder{}
	fo := New(3, 100, b) // capacity 3 => 2 real actions per filter

	_, p1, _ := fo.Add("a")
	_, p2, _ := fo.Add("b")
	_, p3, _ := fo.Add("c")

	if p1 != 100 || p2 != 100 {
		t.Fatalf("first two actions should share filter at priority 100, got %d, %d", p1, p2)
	}
	if p3 != 101 {
		t.Fatalf("third action should allocate a new filter at priority 101, got %d", p3)
	}
	if fo.FilterCount() != 2 {
		t.Fatalf("FilterCount() = %d, want 2", fo.FilterCount())
	}
	if fo.ActionCount() != 3 {
		t.Fatalf("ActionCount() = %d, want 3", fo.ActionCount())
	}
}

func TestRemoveReclaimsEmptyFilter(t *testing.T) {
	b := &recordingBuilder{}
	fo := New(2, 100, b) // capacity 2 => 1 real action per filter

	tok1, _, _ := fo.Add("a")
	fo.Add("b")
	if fo.FilterCount() != 2 {
		t.Fatalf("FilterCount() = %d, want 2", fo.FilterCount())
	}

	if err := fo.Remove(tok1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fo.FilterCount() != 1 {
		t.Fatalf("FilterCount() after reclaim = %d, want 1", fo.FilterCount())
	}
	if len(b.removed) != 1 || b.removed[0] != tok1 {
		t.Fatalf("builder.removed = %v, want [%v]", b.removed, tok1)
	}
}

func TestRemovedFilterPriorityNotReused(t *testing.T) {
	b := &recordingBuilder{}
	fo := New(2, 100, b)

	tok1, _, _ := fo.Add("a")
	_, p2, _ := fo.Add("b")
	if p2 != 101 {
		t.Fatalf("second action should land in a new filter, got priority %d", p2)
	}
	fo.Remove(tok1)

	// Filter at priority 100 is now empty and reclaimed; the only filter
	// left is at 101, which is full, so the next Add should allocate 102.
	_, p3, _ := fo.Add("c")
	if p3 != 102 {
		t.Fatalf("expected next Add to land at priority 102, got %d", p3)
	}
}

func TestRemoveNotFound(t *testing.T) {
	b := &recordingBuilder{}
	fo := New(2, 100, b)
	if err := fo.Remove(999); err != ErrNotFound {
		t.Fatalf("Remove unknown token: got %v, want ErrNotFound", err)
	}
}

package cleanup

import "testing"

func TestRunLIFOOrder(t *testing.T) {
	l := New()
	var order []int
	l.Defer(func() { order = append(order, 1) })
	l.Defer(func() { order = append(order, 2) })
	l.Defer(func() { order = append(order, 3) })

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	l.Run()

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("Len() after Run = %d, want 0", l.Len())
	}
}

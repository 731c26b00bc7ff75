package env

import (
	"math"
	"testing"
)

func TestProgress_Additive(t *testing.T) {
	root := NewProgress(2)
	child := root.AddChild(4, 2)

	root.Advance(1)
	if got := root.Fraction(); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("Fraction() = %v, want 0.25", got)
	}

	child.Advance(2)
	if got := root.Fraction(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Fraction() = %v, want 0.5", got)
	}

	child.Advance(10)
	root.Advance(1)
	if got := root.Fraction(); got != 1 {
		t.Fatalf("Fraction() = %v, want 1", got)
	}
}

func TestProgress_ObserverSeesChildUpdates(t *testing.T) {
	root := NewProgress(0)
	var last float64
	calls := 0
	root.Observe(func(f float64) {
		last = f
		calls++
	})

	child := root.AddChild(2, 1)
	child.Advance(1)

	if calls == 0 {
		t.Fatal("observer was not called")
	}
	if math.Abs(last-0.5) > 1e-9 {
		t.Fatalf("observer fraction = %v, want 0.5", last)
	}
}

func TestNew_AssignsRunID(t *testing.T) {
	a := New(nil)
	b := New(nil)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Fatalf("run ids %q and %q should be distinct and non-empty", a.RunID, b.RunID)
	}
	if a.Logger == nil || a.Progress == nil {
		t.Fatal("New() left logger or progress nil")
	}
}

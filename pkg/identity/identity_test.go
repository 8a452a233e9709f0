package identity

import (
	"errors"
	"testing"
)

func TestNewAssignsUniqueRoots(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		if id.Root() == "" {
			t.Fatal("empty root")
		}
		if seen[id.Root()] {
			t.Fatalf("duplicate root %q", id.Root())
		}
		seen[id.Root()] = true
	}
}

func TestNewWithRootSeedsTemporal(t *testing.T) {
	id := NewWithRoot("alpha")
	if id.Root() != "alpha" {
		t.Fatalf("Root: got %q, want alpha", id.Root())
	}
	if id.Current() != "alpha.1.0" {
		t.Fatalf("Current: got %q, want alpha.1.0", id.Current())
	}
}

func TestRefreshFormat(t *testing.T) {
	id := NewWithRoot("obj")
	got, err := id.Refresh(1, 1)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got != "obj.1.1" {
		t.Fatalf("Refresh(1,1): got %q, want obj.1.1", got)
	}
	if id.Current() != got {
		t.Fatalf("Current after refresh: got %q, want %q", id.Current(), got)
	}
}

func TestRefreshUniqueAcrossIncreasingReadings(t *testing.T) {
	id := NewWithRoot("u")
	readings := []struct{ cycle, step uint64 }{
		{1, 1}, {1, 2}, {2, 0}, {2, 5}, {3, 0}, {10, 0}, {10, 7},
	}
	seen := map[string]bool{id.Current(): true}
	for _, r := range readings {
		temporal, err := id.Refresh(r.cycle, r.step)
		if err != nil {
			t.Fatalf("Refresh(%d,%d): %v", r.cycle, r.step, err)
		}
		if seen[temporal] {
			t.Fatalf("Refresh(%d,%d): duplicate temporal %q", r.cycle, r.step, temporal)
		}
		seen[temporal] = true
	}
}

func TestRefreshRejectsOutOfOrder(t *testing.T) {
	cases := []struct {
		name        string
		cycle, step uint64
	}{
		{"equal to seed", 1, 0},
		{"earlier cycle", 0, 5},
		{"equal to previous", 2, 3},
		{"earlier step same cycle", 2, 2},
		{"earlier cycle later step", 1, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := NewWithRoot("o")
			if _, err := id.Refresh(2, 3); err != nil {
				t.Fatalf("setup refresh: %v", err)
			}
			_, err := id.Refresh(tc.cycle, tc.step)
			if !errors.Is(err, ErrOutOfOrderRefresh) {
				t.Fatalf("Refresh(%d,%d): got %v, want ErrOutOfOrderRefresh",
					tc.cycle, tc.step, err)
			}
		})
	}
}

func TestRefreshFailureKeepsState(t *testing.T) {
	id := NewWithRoot("o")
	if _, err := id.Refresh(1, 1); err != nil {
		t.Fatalf("setup refresh: %v", err)
	}
	if _, err := id.Refresh(1, 1); err == nil {
		t.Fatal("expected out-of-order error")
	}
	if id.Current() != "o.1.1" {
		t.Fatalf("Current after failed refresh: got %q, want o.1.1", id.Current())
	}
	// The order guard still compares against the last successful reading.
	if _, err := id.Refresh(1, 2); err != nil {
		t.Fatalf("Refresh(1,2) after failure: %v", err)
	}
}

func TestTemporalLess(t *testing.T) {
	cases := []struct {
		name          string
		cycleA, stepA uint64
		cycleB, stepB uint64
		expect        bool
	}{
		{"lower cycle", 1, 9, 2, 0, true},
		{"same cycle lower step", 2, 0, 2, 1, true},
		{"equal", 2, 1, 2, 1, false},
		{"higher cycle", 3, 0, 2, 9, false},
		{"same cycle higher step", 2, 2, 2, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TemporalLess(tc.cycleA, tc.stepA, tc.cycleB, tc.stepB)
			if got != tc.expect {
				t.Fatalf("TemporalLess(%d,%d,%d,%d) = %v, want %v",
					tc.cycleA, tc.stepA, tc.cycleB, tc.stepB, got, tc.expect)
			}
		})
	}
}

func TestTemporalLessTransitivity(t *testing.T) {
	// (1,2) < (2,0) < (2,1) => (1,2) < (2,1)
	a := TemporalLess(1, 2, 2, 0)
	b := TemporalLess(2, 0, 2, 1)
	c := TemporalLess(1, 2, 2, 1)
	if !a || !b || !c {
		t.Fatal("transitivity violated")
	}
}

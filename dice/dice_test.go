package dice

import "testing"

type fixed []float64

func (f *fixed) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestForSessionIsDeterministic(t *testing.T) {
	a := ForSession(42, "session-1", 3)
	b := ForSession(42, "session-1", 3)
	for i := 0; i < 5; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %f vs %f", i, x, y)
		}
	}

	c := ForSession(42, "session-1", 4)
	if ForSession(42, "session-1", 3).Float64() == c.Float64() {
		t.Fatal("a new version should draw a different stream")
	}
}

func TestBetween(t *testing.T) {
	r := &fixed{0, 0.5, 0.999}
	if got := Between(r, 8, 16); got != 8 {
		t.Fatalf("expected 8, got %f", got)
	}
	if got := Between(r, 8, 16); got != 12 {
		t.Fatalf("expected 12, got %f", got)
	}
	if got := Between(r, 8, 16); got >= 16 || got < 15.9 {
		t.Fatalf("expected just under 16, got %f", got)
	}
}

func TestChance(t *testing.T) {
	r := &fixed{0.3, 0.3}
	if !Chance(r, 0.5) {
		t.Fatal("0.3 should land under 0.5")
	}
	if Chance(r, 0.3) {
		t.Fatal("a draw equal to p should miss")
	}
}

func TestPick(t *testing.T) {
	weights := []float64{1, 0, 3}

	if got := Pick(&fixed{0.1}, weights); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := Pick(&fixed{0.5}, weights); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := Pick(&fixed{0.5}, []float64{0, -1}); got != -1 {
		t.Fatalf("expected -1 for no positive weights, got %d", got)
	}
}

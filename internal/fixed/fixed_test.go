package fixed

import "testing"

func TestPosParts(t *testing.T) {
	p := FromInt(5) + 77
	if p.Integer() != 5 || p.Fraction() != 77 {
		t.Fatalf("parts = %d/%d, want 5/77", p.Integer(), p.Fraction())
	}
	if p.Frac() != 77 {
		t.Fatalf("Frac = %d, want 77", p.Frac())
	}
	l, r := p.Weights()
	if l+r != One || r != 77 {
		t.Fatalf("weights = %d,%d", l, r)
	}
}

func TestLerp(t *testing.T) {
	if got := Pos(One / 2).Lerp(0, 100); got != 50 {
		t.Fatalf("half lerp = %d, want 50", got)
	}
	if got := Pos(0).Lerp(-40, 100); got != -40 {
		t.Fatalf("zero lerp = %d, want -40", got)
	}
}

func TestStep(t *testing.T) {
	// Middle C at 8363 Hz played back at 8363 Hz advances roughly one frame.
	s := Step(14317456, 428*4, 8363)
	if s.Integer() != 1 {
		t.Fatalf("step = %d (%d frames), want about one frame", s, s.Integer())
	}
	if Step(14317456, 0, 44100) != 0 {
		t.Fatalf("zero period should give zero step")
	}
}

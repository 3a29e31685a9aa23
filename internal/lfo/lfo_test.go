package lfo

import "testing"

func TestTableShape(t *testing.T) {
	if Table[0] != 0 || Table[16] != 512 || Table[32] != 0 || Table[48] != -511 {
		t.Errorf("table landmarks = %d %d %d %d", Table[0], Table[16], Table[32], Table[48])
	}
	for i := 1; i < 16; i++ {
		if Table[i] != Table[32-i] {
			t.Errorf("table not symmetric at %d: %d vs %d", i, Table[i], Table[32-i])
		}
	}
}

func TestSetKeepsZeroNibbles(t *testing.T) {
	l := &LFO{}
	l.Set(0x48)
	if l.Speed() != 4 || l.Depth() != 8 {
		t.Fatalf("speed/depth = %d/%d, want 4/8", l.Speed(), l.Depth())
	}
	l.Set(0x03)
	if l.Speed() != 4 || l.Depth() != 3 {
		t.Fatalf("after depth-only set = %d/%d, want 4/3", l.Speed(), l.Depth())
	}
	l.Set(0x70)
	if l.Speed() != 7 || l.Depth() != 3 {
		t.Fatalf("after speed-only set = %d/%d, want 7/3", l.Speed(), l.Depth())
	}
}

func TestSampleWrapsAndScales(t *testing.T) {
	l := &LFO{}
	l.Set(0x8F)
	// Offset 8 then 16: the peak of the table.
	l.Sample()
	if got := l.Sample(); got != 512*15/512*4 {
		t.Errorf("peak sample = %d, want %d", got, 15*4)
	}
	for i := 0; i < 6; i++ {
		l.Sample()
	}
	if l.Offset() != 0 {
		t.Errorf("offset after full cycle = %d, want 0", l.Offset())
	}
	var sum int
	for i := 0; i < TableSize/8; i++ {
		sum += l.Sample()
	}
	if sum > 8 || sum < -8 {
		t.Errorf("cycle sum = %d, want roughly zero", sum)
	}
}

func TestInactiveWithoutDepth(t *testing.T) {
	l := &LFO{}
	l.Set(0x50)
	if l.Active() {
		t.Errorf("LFO without depth should be inactive")
	}
	if got := l.Sample(); got != 0 {
		t.Errorf("zero-depth sample = %d", got)
	}
	l.Retrigger()
	if l.Offset() != 0 {
		t.Errorf("retrigger left offset %d", l.Offset())
	}
}

package song

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotePeriod(t *testing.T) {
	cases := []struct {
		name string
		note Note
		c2   int
		want int
	}{
		{"middle", NoteMid, AmigaFrequency, 2712},
		{"octave up halves", NoteMid + 12, AmigaFrequency, 1356},
		{"c0", 0, AmigaFrequency, 1712 * 16},
		{"unused", NoteUnused, AmigaFrequency, 4242},
		{"off", NoteOff, AmigaFrequency, 4242},
		{"no rate", NoteMid, 0, 4242},
		{"rounds to zero", NoteLast, 1 << 30, 7242},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NotePeriod(tc.note, tc.c2); got != tc.want {
				t.Fatalf("NotePeriod(%d, %d) = %d, want %d", tc.note, tc.c2, got, tc.want)
			}
		})
	}
}

func TestAddNoteSaturate(t *testing.T) {
	if got := AddNoteSaturate(NoteLast, 3); got != NoteLast {
		t.Fatalf("saturate high = %d, want %d", got, NoteLast)
	}
	if got := AddNoteSaturate(2, -5); got != 0 {
		t.Fatalf("saturate low = %d, want 0", got)
	}
	if got := AddNoteSaturate(40, 7); got != 47 {
		t.Fatalf("transpose = %d, want 47", got)
	}
}

func TestEnvelopeInterpolateStaysBetweenMarkers(t *testing.T) {
	a := EnvelopeMarker{Position: 4, Volume: 10}
	b := EnvelopeMarker{Position: 20, Volume: 60}
	if got := a.Interpolate(b, a.Position); got != a.Volume {
		t.Fatalf("at start = %d, want %d", got, a.Volume)
	}
	for pos := a.Position; pos <= b.Position; pos++ {
		v := a.Interpolate(b, pos)
		if v < a.Volume || v > b.Volume {
			t.Fatalf("pos %d: %d outside [%d, %d]", pos, v, a.Volume, b.Volume)
		}
	}
	if got := a.Interpolate(b, 12); got != 35 {
		t.Fatalf("midpoint = %d, want 35", got)
	}
	down := EnvelopeMarker{Position: 0, Volume: 64}
	if got := down.Interpolate(EnvelopeMarker{Position: 8, Volume: 0}, 6); got != 16 {
		t.Fatalf("falling segment = %d, want 16", got)
	}
}

func TestEnvelopeInterpolateDegenerate(t *testing.T) {
	a := EnvelopeMarker{Position: 5, Volume: 33}
	if got := a.Interpolate(EnvelopeMarker{Position: 5, Volume: 1}, 9); got != 33 {
		t.Fatalf("coinciding markers = %d, want 33", got)
	}
	if got := a.Interpolate(EnvelopeMarker{Position: 10, Volume: 1}, 2); got != 33 {
		t.Fatalf("before first marker = %d, want 33", got)
	}
}

func TestPatternClampsAndClears(t *testing.T) {
	p := NewPattern(4, 2)
	for _, c := range p.Commands {
		if c != EmptyCommand() {
			t.Fatalf("new pattern holds %+v, want cleared command", c)
		}
	}
	p.Cell(3, 1).Note = 12
	if got := p.At(99, 99).Note; got != 12 {
		t.Fatalf("clamped read = %d, want 12", got)
	}
	if got := p.At(-3, -1); got != EmptyCommand() {
		t.Fatalf("negative coordinates = %+v, want cell (0,0)", got)
	}
	if p.Cell(4, 0) != nil {
		t.Fatalf("out-of-range cell should be nil")
	}
	empty := NewPattern(0, 8)
	if empty.Rows != 0 || empty.Channels != 0 {
		t.Fatalf("empty pattern = %dx%d, want 0x0", empty.Rows, empty.Channels)
	}
	if got := empty.At(0, 0); got != EmptyCommand() {
		t.Fatalf("empty pattern read = %+v", got)
	}
}

func TestPackageModificationGuard(t *testing.T) {
	p := New()
	release, ok := p.TryRead()
	if !ok {
		t.Fatalf("idle package should be readable")
	}
	release()

	p.Modify(func() {
		if !p.UnderModification() {
			t.Fatalf("flag not raised during Modify")
		}
		if _, ok := p.TryRead(); ok {
			t.Fatalf("TryRead succeeded during modification")
		}
	})
	if p.UnderModification() {
		t.Fatalf("flag still raised after Modify")
	}
}

func TestRemoveInstrumentReleasesSamples(t *testing.T) {
	p := New()
	s := &Sample{Data8: make([]int8, 32), Length: 32, C2Speed: AmigaFrequency}
	p.Instruments[3].AddSample(s)
	p.Description.SampleCount = 1
	if err := p.RemoveInstrument(3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Data8 != nil || s.Length != 0 {
		t.Fatalf("sample data not released")
	}
	if p.Instruments[3].NumberSamples() != 0 {
		t.Fatalf("instrument still has samples")
	}
	if p.Description.SampleCount != 0 {
		t.Fatalf("sample count = %d, want 0", p.Description.SampleCount)
	}
	if err := p.RemoveInstrument(InstrumentMaxCount); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestShutdownDropsPatterns(t *testing.T) {
	p := New()
	p.Patterns = []*Pattern{NewPattern(64, 4)}
	p.Description.PatternPointers = []int{0, 0}
	p.Shutdown()
	if p.Patterns != nil || p.OrderCount() != 0 {
		t.Fatalf("shutdown left patterns=%d orders=%d", len(p.Patterns), p.OrderCount())
	}
}

func TestClampOrders(t *testing.T) {
	p := New()
	p.Patterns = []*Pattern{NewPattern(1, 1), NewPattern(1, 1)}
	p.Description.PatternPointers = []int{1, 5, -1}
	p.ClampOrders(0)
	want := []int{1, 0, 0}
	for i, v := range want {
		if p.Order(i) != v {
			t.Fatalf("order %d = %d, want %d", i, p.Order(i), v)
		}
	}
	if p.Order(10) != 0 {
		t.Fatalf("past-end order should read 0")
	}
}

func TestImportCodeErrors(t *testing.T) {
	for _, c := range []ImportCode{ImportOkay, ImportUnknown, ImportBadFile, ImportTruncation, ImportOutOfMemory} {
		wrapped := c.Err()
		if wrapped != nil {
			wrapped = fmt.Errorf("xm: %w", wrapped)
		}
		if got := CodeOf(wrapped); got != c {
			t.Fatalf("CodeOf(%v) = %v, want %v", wrapped, got, c)
		}
	}
	if got := CodeOf(errors.New("other")); got != ImportBadFile {
		t.Fatalf("foreign error maps to %v, want badfile", got)
	}
}

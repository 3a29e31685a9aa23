package effects

import "testing"

func TestSurroundInvertsLeftOnly(t *testing.T) {
	s := NewSurround[int16]()
	l, r := s.Process(1000, 1000)
	if l != -1001 || r != 1000 {
		t.Errorf("int16 surround = %d,%d, want -1001,1000", l, r)
	}
	u := NewSurround[uint8]()
	ul, ur := u.Process(0x90, 0x90)
	if ul != 0x6F || ur != 0x90 {
		t.Errorf("uint8 surround = %#x,%#x, want 0x6f,0x90", ul, ur)
	}
}

func TestReverbEchoesAfterDelay(t *testing.T) {
	r := NewReverb[int16](1000, 100, 50) // 100 frames, 64/128 feedback
	if r.Frames() != 100 {
		t.Fatalf("frames = %d, want 100", r.Frames())
	}
	r.Process(10000, -10000)
	for i := 1; i < 100; i++ {
		l, rr := r.Process(0, 0)
		if l != 0 || rr != 0 {
			t.Fatalf("frame %d: early echo %d,%d", i, l, rr)
		}
	}
	l, rr := r.Process(0, 0)
	if l != 5000 || rr != -5000 {
		t.Errorf("echo = %d,%d, want 5000,-5000", l, rr)
	}
}

func TestReverbClamps(t *testing.T) {
	r := NewReverb[int16](1000, 25, 70)
	for i := 0; i < r.Frames(); i++ {
		r.Process(32000, -32000)
	}
	l, rr := r.Process(32000, -32000)
	if l != 32767 || rr != -32767 {
		t.Errorf("clamped = %d,%d, want 32767,-32767", l, rr)
	}
}

func TestReverbUnsignedCentersOnSilence(t *testing.T) {
	r := NewReverb[uint8](1000, 50, 70)
	for i := 0; i < 3*r.Frames(); i++ {
		l, rr := r.Process(0x80, 0x80)
		if l != 0x80 || rr != 0x80 {
			t.Fatalf("frame %d: silence became %#x,%#x", i, l, rr)
		}
	}
	r.Process(0xFF, 0x00)
	for i := 1; i < r.Frames(); i++ {
		r.Process(0x80, 0x80)
	}
	l, rr := r.Process(0x80, 0x80)
	if l <= 0x80 || rr >= 0x80 {
		t.Errorf("unsigned echo = %#x,%#x, want above/below center", l, rr)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain[int16](NewSurround[int16]())
	c.Add(NewReverb[int16](1000, 25, 0))
	buf := []int16{100, 200, -5, 7}
	c.ProcessBuffer(buf)
	want := []int16{-101, 200, 4, 7}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf[%d] = %d, want %d", i, buf[i], want[i])
		}
	}
	if c.Len() != 2 {
		t.Errorf("chain length = %d", c.Len())
	}
	if Silence[uint8]() != 0x80 || Silence[int16]() != 0 {
		t.Errorf("silence words wrong")
	}
}

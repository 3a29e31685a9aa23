package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

type constSource struct {
	l, r  int16
	done  bool
	calls int
}

func (s *constSource) Process(dst []int16) {
	s.calls++
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = s.l, s.r
	}
}

func (s *constSource) Finished() bool { return s.done }

func TestStreamReaderConvertsToFloat(t *testing.T) {
	src := &constSource{l: 16384, r: -32768}
	r := NewStreamReader(src)
	buf := make([]byte, 8*4+3)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 32 {
		t.Fatalf("n = %d, want 32", n)
	}
	for i := 0; i < 4; i++ {
		l := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8:]))
		rv := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8+4:]))
		if l != 0.5 || rv != -1 {
			t.Fatalf("frame %d = (%v, %v), want (0.5, -1)", i, l, rv)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	src := &constSource{}
	n, err := NewStreamReader(src).Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if src.calls != 0 {
		t.Fatalf("source pulled %d times for an empty read", src.calls)
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	src := &constSource{done: true}
	n, err := NewStreamReader(src).Read(make([]byte, 16))
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if n != 16 {
		t.Fatalf("n = %d, want 16", n)
	}
}

func TestOtoReaderEncodesLittleEndian(t *testing.T) {
	op := &OtoPlayer{}
	op.SetSource(&constSource{l: 0x1234, r: -2})
	buf := make([]byte, 8)
	n, err := op.Read(buf)
	if err != nil || n != 8 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if got := int16(binary.LittleEndian.Uint16(buf[0:])); got != 0x1234 {
		t.Errorf("left = %#x", got)
	}
	if got := int16(binary.LittleEndian.Uint16(buf[2:])); got != -2 {
		t.Errorf("right = %d", got)
	}
}

func TestOtoReaderSilentWithoutSource(t *testing.T) {
	op := &OtoPlayer{}
	buf := []byte{1, 2, 3, 4, 5}
	n, err := op.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	for i := 0; i < 4; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = %d, want silence", i, buf[i])
		}
	}
	if buf[4] != 5 {
		t.Fatal("partial frame was overwritten")
	}
}

func TestOtoReaderEOF(t *testing.T) {
	op := &OtoPlayer{}
	op.SetSource(&constSource{done: true})
	if _, err := op.Read(make([]byte, 4)); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestPullerReusesBuffer(t *testing.T) {
	var pl puller
	src := &constSource{l: 1, r: 2}
	buf, done := pl.pull(src, 64)
	if done || len(buf) != 128 {
		t.Fatalf("pull = %d samples, done %v", len(buf), done)
	}
	first := &buf[0]
	buf, _ = pl.pull(src, 16)
	if len(buf) != 32 || &buf[0] != first {
		t.Fatal("a smaller pull should reuse the buffer")
	}
	src.done = true
	if _, done := pl.pull(src, 16); !done {
		t.Fatal("pull should report a finished source")
	}
}

func TestReadersAgreeOnFrames(t *testing.T) {
	tests := []struct {
		name  string
		codec wordCodec
		left  func([]byte) float64
	}{
		{"float32", float32LE, func(b []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}},
		{"int16", int16LE, func(b []byte) float64 {
			return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pl puller
			src := &constSource{l: -8192, r: 4096}
			frame := tt.codec.size * 2
			p := make([]byte, 3*frame+1)
			n, err := pl.read(p, src, tt.codec)
			if err != nil || n != 3*frame {
				t.Fatalf("read = %d, %v", n, err)
			}
			for i := 0; i < 3; i++ {
				l := tt.left(p[i*frame:])
				r := tt.left(p[i*frame+tt.codec.size:])
				if l != -0.25 || r != 0.125 {
					t.Fatalf("frame %d = (%v, %v), want (-0.25, 0.125)", i, l, r)
				}
			}
			src.done = true
			if _, err := pl.read(p, src, tt.codec); err != io.EOF {
				t.Fatalf("finished read err = %v, want io.EOF", err)
			}
		})
	}
}

func TestBeepStreamer(t *testing.T) {
	src := &constSource{l: -16384, r: 8192}
	s := NewStreamer(src)
	samples := make([][2]float64, 5)
	n, ok := s.Stream(samples)
	if !ok || n != 5 {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	for i, f := range samples {
		if f[0] != -0.5 || f[1] != 0.25 {
			t.Fatalf("sample %d = %v", i, f)
		}
	}
	if s.Err() != nil {
		t.Fatalf("Err = %v", s.Err())
	}

	src.done = true
	if n, ok := s.Stream(samples); ok || n != 0 {
		t.Fatalf("finished Stream = %d, %v", n, ok)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name    string
		want    Backend
		wantErr bool
	}{
		{"", BackendEbiten, false},
		{"ebiten", BackendEbiten, false},
		{"oto", BackendOto, false},
		{"beep", BackendBeep, false},
		{"alsa", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBackend(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

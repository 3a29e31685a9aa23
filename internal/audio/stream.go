package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource fills dst with interleaved stereo 16-bit PCM.
type SampleSource interface {
	Process(dst []int16)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// Readers report io.EOF on the pull that observes Finished.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

func finished(src SampleSource) bool {
	fs, ok := src.(FinishingSource)
	return ok && fs.Finished()
}

// puller renders a SampleSource into a reused stereo buffer. Every backend
// pulls through one.
type puller struct {
	buf []int16
}

// pull renders frames stereo frames from src and reports whether src had
// finished once they were rendered.
func (pl *puller) pull(src SampleSource, frames int) ([]int16, bool) {
	need := frames * 2
	if cap(pl.buf) < need {
		pl.buf = make([]int16, need)
	}
	pl.buf = pl.buf[:need]
	src.Process(pl.buf)
	return pl.buf, finished(src)
}

// wordCodec writes one 16-bit sample as a device word.
type wordCodec struct {
	size int
	put  func(p []byte, v int16)
}

var (
	float32LE = wordCodec{size: 4, put: func(p []byte, v int16) {
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)/32768))
	}}
	int16LE = wordCodec{size: 2, put: func(p []byte, v int16) {
		binary.LittleEndian.PutUint16(p, uint16(v))
	}}
)

// read fills the whole frames of p from src in the codec's encoding. A
// trailing partial frame is left untouched and a nil src reads as silence.
func (pl *puller) read(p []byte, src SampleSource, codec wordCodec) (int, error) {
	frameSize := codec.size * 2
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	n := frames * frameSize
	if src == nil {
		clear(p[:n])
		return n, nil
	}
	buf, done := pl.pull(src, frames)
	for i, v := range buf {
		codec.put(p[i*codec.size:], v)
	}
	if done {
		return n, io.EOF
	}
	return n, nil
}

// StreamReader encodes a SampleSource as little-endian float32 stereo.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	puller
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(p, r.source, float32LE)
}

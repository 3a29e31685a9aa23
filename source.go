package modseq

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cbegin/modseq-go/internal/debug"
	intseq "github.com/cbegin/modseq-go/internal/sequencer"
)

// pcmSource pulls encoded PCM from the sequencer and widens it to the
// 16-bit stereo the audio backends consume.
type pcmSource struct {
	seq      *intseq.Sequencer
	raw      []byte
	frames   atomic.Int64
	finished atomic.Bool
	tap      func([]int16)
}

func newPCMSource(seq *intseq.Sequencer, tap func([]int16)) *pcmSource {
	return &pcmSource{seq: seq, tap: tap}
}

func (s *pcmSource) Process(dst []int16) {
	format := s.seq.Format()
	need := len(dst) * format.Bits() / 8
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	s.raw = s.raw[:need]
	s.seq.Read(s.raw)
	decodePCM(format, s.raw, dst)
	total := s.frames.Add(int64(len(dst) / 2))
	debug.LogEvery(1000, "audio", "%d frames delivered", total)
	if s.tap != nil {
		s.tap(dst)
	}
}

func (s *pcmSource) Finished() bool {
	return s.finished.Load()
}

// decodePCM converts raw samples in format f to signed 16-bit words.
func decodePCM(f intseq.OutputFormat, raw []byte, dst []int16) {
	switch f {
	case intseq.FormatU8:
		for i := range dst {
			dst[i] = int16(int(raw[i])-128) << 8
		}
	case intseq.FormatS16BE:
		for i := range dst {
			dst[i] = int16(binary.BigEndian.Uint16(raw[i*2:]))
		}
	default:
		for i := range dst {
			dst[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	}
}

package sequencer

import (
	"github.com/cbegin/modseq-go/internal/fixed"
	"github.com/cbegin/modseq-go/internal/song"
)

// sampleWord is the storage type of sample PCM.
type sampleWord interface{ int8 | int16 }

// accumWord is the mix accumulator type: int16 for 8-bit output and int32
// for 16-bit output.
type accumWord interface{ int16 | int32 }

type mono struct{}
type stereo struct{}

func (mono) lanes() int   { return 1 }
func (stereo) lanes() int { return 2 }

// layout is the channel layout of a sample.
type layout interface {
	mono | stereo
	lanes() int
}

// productShift brings volume-scaled samples (volume is at most 256) into
// accumulator range.
func productShift[S sampleWord, A accumWord]() int {
	shift := 0
	var s S
	if _, ok := any(s).(int16); ok {
		shift += 8
	}
	var a A
	if _, ok := any(a).(int16); ok {
		shift += 8
	}
	return shift
}

// interleaved returns the left and right accumulator indices for frame
// offset. Odd channels delay the left side and even channels the right
// side by the micro-delay.
func (s *Sequencer) interleaved(ch *Channel, offset int) (li, ri int) {
	li, ri = offset*2, offset*2+1
	if ch.id&1 == 1 {
		li += s.microFrames * 2
	} else {
		ri += s.microFrames * 2
	}
	return li, ri
}

// mixChannel adds frames of ch to acc starting at frame offset.
func mixChannel[A accumWord](s *Sequencer, ch *Channel, acc []A, offset, frames int) {
	volR := s.CalculateVolume(ch, 0)
	volL := s.CalculateVolume(ch, 1)
	li, ri := s.interleaved(ch, offset)
	if s.tickRemover {
		processTick(s, ch, acc, li, ri, frames, volL, volR)
	}
	smp := ch.sample
	if smp == nil || (ch.cur >= ch.end && ch.loopSize == 0) {
		return
	}
	switch {
	case smp.Data16 != nil && smp.Stereo:
		mixVoice[int16, A, stereo](s, ch, smp.Data16, acc, li, ri, frames, volL, volR)
	case smp.Data16 != nil:
		mixVoice[int16, A, mono](s, ch, smp.Data16, acc, li, ri, frames, volL, volR)
	case smp.Stereo:
		mixVoice[int8, A, stereo](s, ch, smp.Data8, acc, li, ri, frames, volL, volR)
	default:
		mixVoice[int8, A, mono](s, ch, smp.Data8, acc, li, ri, frames, volL, volR)
	}
}

// mixVoice resamples one voice with linear interpolation and handles loop
// wrap, ping-pong reversal and end of data.
func mixVoice[S sampleWord, A accumWord, L layout](s *Sequencer, ch *Channel, data []S, acc []A, li, ri, frames, volL, volR int) {
	var lay L
	n := lay.lanes()
	total := len(data) / n
	at := func(i, lane int) int {
		if i < 0 || i >= total {
			return 0
		}
		return int(data[i*n+lane])
	}
	shift := productShift[S, A]()
	pingpong := ch.loopType == song.LoopPingPong && ch.loopSize > 0

	step := fixed.Step(song.AmigaClock, ch.period, s.rate)
	if ch.reverse && ch.loopType == song.LoopPingPong {
		step = -step
	}
	pos := ch.frac
	cur := ch.cur
	prev1, prev2 := ch.prev1, ch.prev2
	prevOffset := ch.prevOffset
	var value [2]int
	var outL, outR int
	intg := 0
	killed := false

	for k := 0; k < frames; k++ {
		intg = pos.Integer()
		if prevOffset != intg {
			if pingpong {
				prevOffset = intg
				next := cur + intg + 1
				if (next >= ch.end && !ch.reverse) || (next <= ch.loopBeg && ch.reverse) {
					ch.reverse = !ch.reverse
					pos -= step
					step = -step
					intg = pos.Integer()
				}
				for lane := 0; lane < n; lane++ {
					prev1[lane] = at(cur+intg, lane)
				}
			} else {
				prev1 = prev2
				prevOffset = intg
				if cur+intg+1 >= ch.end {
					if ch.loopSize == 0 {
						fillBuffers(ch, acc, li+k*2, ri+k*2, frames-k, outL, outR)
						killed = true
						break
					}
					pos = pos.Frac()
					intg = 0
					prevOffset = 0
					cur = ch.loopBeg - 1
				}
				for lane := 0; lane < n; lane++ {
					prev2[lane] = at(cur+intg+1, lane)
				}
			}
		}
		for lane := 0; lane < n; lane++ {
			value[lane] = pos.Lerp(prev1[lane], at(cur+intg+1, lane))
		}
		pos += step
		outL = (value[0] * volL) >> shift
		outR = (value[n-1] * volR) >> shift
		acc[li+k*2] += A(outL)
		acc[ri+k*2] += A(outR)
	}

	if killed {
		ch.cur = ch.end
	} else {
		if pos.Integer() == prevOffset {
			ch.prevOffset = 0
		} else {
			ch.prevOffset = -1
		}
		ch.prev1 = prev1
		for lane := 0; lane < n; lane++ {
			ch.prev2[lane] = at(cur+intg+1, lane)
		}
		if n == 1 {
			ch.prev2[1] = ch.prev2[0]
		}
		ch.cur = cur + pos.Integer()
	}
	ch.frac = pos.Frac()
	ch.lastL, ch.lastR = outL, outR
}

// processTick arms the declick ramp when a voice changes sample, runs out,
// or moves volume, then applies any ramp in progress.
func processTick[A accumWord](s *Sequencer, ch *Channel, acc []A, li, ri, frames, volL, volR int) {
	if ch.echo != ch.sample || ch.Ended() || ch.prevVolR != volR || ch.prevVolL != volL {
		ch.downL, ch.downR = true, true
		override := false
		if ch.echo == ch.sample {
			if ch.prevVolR != volR {
				settle(&ch.lastR, &ch.prevVolR, &ch.downR, volR)
				override = true
			} else {
				ch.lastR = 0
			}
			if ch.prevVolL != volL {
				settle(&ch.lastL, &ch.prevVolL, &ch.downL, volL)
				override = true
			} else {
				ch.lastL = 0
			}
		}
		if ch.lastL != 0 || ch.lastR != 0 || override {
			size := max(s.tickFrames(), 1)
			ch.removeSize = size
			ch.levelL, ch.levelR = 0, 0
			if ch.downL {
				ch.levelL = size
			}
			if ch.downR {
				ch.levelR = size
			}
			ch.curLastL, ch.curLastR = ch.lastL, ch.lastR
			ch.lastL, ch.lastR = 0, 0
			ch.removing = true
		}
		ch.echo = ch.sample
		ch.prevVolL, ch.prevVolR = volL, volR
	}
	if ch.removing {
		tickloop(ch, acc, li, ri, frames)
	}
}

// mixTo16 converts the accumulator to signed 16-bit PCM and clears it.
func mixTo16(acc []int32, out []int16) {
	for i := range out {
		out[i] = int16(clamp(int(acc[i]), -0x7FFF, 0x7FFF))
		acc[i] = 0
	}
}

// mixTo8 converts the accumulator to unsigned 8-bit PCM and clears it.
func mixTo8(acc []int16, out []uint8) {
	for i := range out {
		out[i] = uint8(clamp(int(acc[i])+0x80, 0, 0xFF))
		acc[i] = 0
	}
}

package effects

const (
	MinReverbMS       = 25
	MaxReverbMS       = 1000
	MaxReverbStrength = 70
)

// Reverb feeds the output from a fixed delay back into the signal. The
// delayed frame is scaled by strength percent in 25.7 fixed point and added
// to the current frame, and the result is what later frames hear.
type Reverb[T PCM] struct {
	bufL, bufR []T
	pos        int
	scale      int
	fmt        format
}

// ReverbFrames returns the delay length in frames for sizeMS at sampleRate.
func ReverbFrames(sampleRate, sizeMS int) int {
	return sizeMS * sampleRate / 1000
}

// NewReverb creates a reverb with a delay of sizeMS milliseconds and a
// feedback of strength percent.
func NewReverb[T PCM](sampleRate, sizeMS, strength int) *Reverb[T] {
	n := ReverbFrames(sampleRate, sizeMS)
	if n < 1 {
		n = 1
	}
	r := &Reverb[T]{
		bufL:  make([]T, n),
		bufR:  make([]T, n),
		scale: strength * 128 / 100,
		fmt:   formatOf[T](),
	}
	r.Reset()
	return r
}

// Frames is the delay length.
func (r *Reverb[T]) Frames() int { return len(r.bufL) }

func (r *Reverb[T]) Process(l, rr T) (T, T) {
	dl := int(r.bufL[r.pos]) - r.fmt.center
	dr := int(r.bufR[r.pos]) - r.fmt.center
	outL := T(clamp(int(l)+((dl*r.scale)>>7), r.fmt.lo, r.fmt.hi))
	outR := T(clamp(int(rr)+((dr*r.scale)>>7), r.fmt.lo, r.fmt.hi))
	r.bufL[r.pos] = outL
	r.bufR[r.pos] = outR
	r.pos++
	if r.pos >= len(r.bufL) {
		r.pos = 0
	}
	return outL, outR
}

func (r *Reverb[T]) Reset() {
	silence := T(r.fmt.center)
	for i := range r.bufL {
		r.bufL[i] = silence
		r.bufR[i] = silence
	}
	r.pos = 0
}

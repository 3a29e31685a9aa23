// Package effects holds the integer post-processing applied to the
// sequencer's interleaved PCM output.
package effects

// PCM is an output sample word: signed 16-bit or unsigned 8-bit biased at 128.
type PCM interface {
	int16 | uint8
}

// Effector processes one stereo frame.
type Effector[T PCM] interface {
	Process(l, r T) (T, T)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain[T PCM] struct {
	effects []Effector[T]
}

func NewChain[T PCM](effects ...Effector[T]) *Chain[T] {
	return &Chain[T]{effects: effects}
}

func (c *Chain[T]) Process(l, r T) (T, T) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBuffer runs the chain over an interleaved stereo buffer in place.
func (c *Chain[T]) ProcessBuffer(buf []T) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = c.Process(buf[i], buf[i+1])
	}
}

func (c *Chain[T]) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain[T]) Add(e Effector[T]) {
	c.effects = append(c.effects, e)
}

// Len returns the number of effects in the chain.
func (c *Chain[T]) Len() int { return len(c.effects) }

// format describes the numeric range of a PCM word.
type format struct {
	center int
	lo, hi int
}

func formatOf[T PCM]() format {
	var z T
	if _, ok := any(z).(uint8); ok {
		return format{center: 0x80, lo: 0, hi: 0xFF}
	}
	return format{center: 0, lo: -0x7FFF, hi: 0x7FFF}
}

// Silence returns the zero-level word for T.
func Silence[T PCM]() T {
	return T(formatOf[T]().center)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

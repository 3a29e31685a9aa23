package effects

// Surround inverts the phase of the left channel, giving a wide pseudo
// surround image on stereo speakers. For both PCM formats the inversion
// is the bitwise complement (-1-x for int16, 255-x for uint8).
type Surround[T PCM] struct{}

func NewSurround[T PCM]() *Surround[T] { return &Surround[T]{} }

func (s *Surround[T]) Process(l, r T) (T, T) {
	return ^l, r
}

func (s *Surround[T]) Reset() {}

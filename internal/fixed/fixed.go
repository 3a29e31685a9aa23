// Package fixed implements the 24.8 fixed-point sample position used by the
// resampler.
package fixed

const (
	Shift = 8
	One   = 1 << Shift
	Mask  = One - 1
)

// Pos is a signed fixed-point position with Shift fractional bits.
type Pos int32

// FromInt converts a whole frame count.
func FromInt(i int) Pos { return Pos(i << Shift) }

// Integer returns the whole-frame part.
func (p Pos) Integer() int { return int(p >> Shift) }

// Fraction returns the fractional part in [0, One).
func (p Pos) Fraction() int { return int(p & Mask) }

// Frac keeps only the fractional part.
func (p Pos) Frac() Pos { return p & Mask }

// Weights returns the interpolation weights for the frames on either side
// of p. They always sum to One.
func (p Pos) Weights() (left, right int) {
	right = p.Fraction()
	return One - right, right
}

// Lerp blends a and b at p's fractional position.
func (p Pos) Lerp(a, b int) int {
	l, r := p.Weights()
	return (l*a + r*b) >> Shift
}

// Step computes the per-output-frame advance for a voice playing at period
// against the given clock and output rate. It returns zero for degenerate
// inputs.
func Step(clock, period, rate int) Pos {
	if period <= 0 || rate <= 0 {
		return 0
	}
	return Pos((int64(clock) << Shift) / (int64(period) * int64(rate)))
}

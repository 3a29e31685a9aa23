// Package lfo implements the tracker vibrato oscillator: a 64-step sine
// table walked by a per-tick speed and scaled by a depth nibble.
package lfo

const (
	TableSize = 64
	// depthDivisor normalises a table value times depth into period units.
	depthDivisor = 512
	// periodScale converts the scaled value into the engine's finer periods.
	periodScale = 4
)

// Table is one period of the vibrato waveform, peak amplitude 512.
var Table = [TableSize]int{
	0, 50, 100, 149, 196, 241, 284, 325, 362, 396, 426, 452, 473, 490, 502, 510,
	512, 510, 502, 490, 473, 452, 426, 396, 362, 325, 284, 241, 196, 149, 100, 50,
	0, -49, -99, -148, -195, -240, -283, -324, -361, -395, -425, -451, -472, -489, -501, -509,
	-511, -509, -501, -489, -472, -451, -425, -395, -361, -324, -283, -240, -195, -148, -99, -49,
}

// LFO is a per-channel vibrato oscillator stepped once per tick.
type LFO struct {
	offset int
	speed  int
	depth  int
}

// Set applies a vibrato argument: the high nibble is the speed and the low
// nibble the depth. Zero nibbles keep the previous value.
func (l *LFO) Set(arg int) {
	if hi := (arg >> 4) & 0xF; hi != 0 {
		l.speed = hi
	}
	if lo := arg & 0xF; lo != 0 {
		l.depth = lo
	}
}

// Sample advances the oscillator one tick and returns the period offset to
// add to the vibrato baseline.
func (l *LFO) Sample() int {
	l.offset = (l.offset + l.speed) & (TableSize - 1)
	return Table[l.offset] * l.depth / depthDivisor * periodScale
}

// Active returns true if the oscillator would move the pitch.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.speed != 0
}

// Speed and Depth expose the current parameters.
func (l *LFO) Speed() int { return l.speed }
func (l *LFO) Depth() int { return l.depth }

// Offset is the current table position.
func (l *LFO) Offset() int { return l.offset }

// Retrigger rewinds the table position; speed and depth are kept.
func (l *LFO) Retrigger() {
	l.offset = 0
}

// Reset zeros all oscillator state.
func (l *LFO) Reset() {
	*l = LFO{}
}

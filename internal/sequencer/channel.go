package sequencer

import (
	"github.com/cbegin/modseq-go/internal/fixed"
	"github.com/cbegin/modseq-go/internal/lfo"
	"github.com/cbegin/modseq-go/internal/song"
)

const arpeggioMaxCount = 3

// envelopeCursor tracks a channel's position in an instrument envelope.
type envelopeCursor struct {
	cur  int
	next int
	pos  int
}

func (c *envelopeCursor) reset() { *c = envelopeCursor{next: 1} }

// Channel is the live state of one hardware voice.
//
// Sample positions are frame indices into sample. The window [cur, end)
// is what remains to play; a looping voice wraps to loopBeg when it
// reaches end.
type Channel struct {
	id int

	sample   *song.Sample
	echo     *song.Sample
	cur      int
	end      int
	loopBeg  int
	loopSize int
	loopType song.LoopType
	reverse  bool

	frac       fixed.Pos
	prevOffset int
	prev1      [2]int
	prev2      [2]int

	instrument     int
	prevInstrument int
	sampleID       int
	fineTune       int
	note           song.Note
	period         int
	prevPeriod     int
	volume         int
	pan            int

	effect     song.Effect
	arg        int
	volumeCmd  int
	arpIndex   int
	arp        [arpeggioMaxCount]int
	vibrato    lfo.LFO
	slide      int
	pitchGoal  int
	pitchRate  int
	volumeRate int
	prevArgs   [song.EffectCount]int

	volEnv     envelopeCursor
	panEnv     envelopeCursor
	volFromEnv int
	panFromEnv int
	fade       int
	keyOn      bool

	// Declick state, one pair per output side.
	lastL, lastR       int
	curLastL, curLastR int
	levelL, levelR     int
	downL, downR       bool
	removing           bool
	prevVolL, prevVolR int
	removeSize         int

	delayActive  bool
	delayPattern int
	delayRow     int
}

// Init resets the channel to its power-on state.
func (ch *Channel) Init(id int) {
	period := song.NotePeriod(song.NoteMid, song.AmigaFrequency)
	*ch = Channel{
		id:         id,
		fineTune:   song.AmigaFrequency,
		note:       song.NoteUnused,
		period:     period,
		prevPeriod: period,
		volume:     song.MaxVolume,
		pan:        song.MaxPan / 2,
		effect:     song.EffectNone,
		volFromEnv: song.MaxVolume,
		fade:       song.FullVolumeFade,
		prevVolL:   1,
		prevVolR:   1,
		prevOffset: -1,
		removeSize: 1,
	}
	ch.volEnv.reset()
	ch.panEnv.reset()
}

// Purge stops playback immediately.
func (ch *Channel) Purge() {
	ch.echo = nil
	ch.cur = ch.end
	ch.frac = 0
	ch.loopBeg = 0
	ch.loopSize = 0
	ch.removing = false
	ch.removeSize = 1
}

// ID is the stable channel number.
func (ch *Channel) ID() int { return ch.id }

// Ended reports whether a non-looping voice has run out of data.
func (ch *Channel) Ended() bool { return ch.cur >= ch.end && ch.loopSize == 0 }

// Cursor returns the current read frame and the end of the playable window.
func (ch *Channel) Cursor() (cur, end int) { return ch.cur, ch.end }

func (ch *Channel) Period() int { return ch.period }
func (ch *Channel) Volume() int { return ch.volume }
func (ch *Channel) Pan() int    { return ch.pan }

// VolumeCommand runs the pending volume-column command for tick call.
func (ch *Channel) VolumeCommand(call int) {
	if ch.volumeCmd == 0 {
		return
	}
	arg := ch.volumeCmd & 0xF
	switch ch.volumeCmd >> 4 {
	case 0x6:
		ch.volume = clamp(ch.volume-arg, 0, song.MaxVolume)
	case 0x7:
		ch.volume = clamp(ch.volume+arg, 0, song.MaxVolume)
	case 0x8:
		if call == 1 {
			ch.volume = clamp(ch.volume-arg, 0, song.MaxVolume)
		}
	case 0x9:
		if call == 1 {
			ch.volume = clamp(ch.volume+arg, 0, song.MaxVolume)
		}
	case 0xD:
		if arg != 0 {
			ch.pan = clamp(ch.pan-arg/4, 0, song.MaxPan)
		}
	case 0xE:
		if arg != 0 {
			ch.pan = clamp(ch.pan+arg/4, 0, song.MaxPan)
		}
	}
}

// ParseSlideVolume decodes a two-nibble slide argument: the high nibble
// slides up, otherwise the low nibble slides down.
func (ch *Channel) ParseSlideVolume(arg int) {
	if hi := (arg >> 4) & 0xF; hi != 0 {
		ch.volumeRate = hi
	} else {
		ch.volumeRate = -(arg & 0xF)
	}
}

// fillBuffers holds a constant level on both sides for count frames
// starting at the interleaved indices li and ri.
func fillBuffers[A accumWord](ch *Channel, acc []A, li, ri, count, addL, addR int) {
	ch.echo = nil
	for k := 0; k < count; k++ {
		acc[li+k*2] += A(addL)
		acc[ri+k*2] += A(addR)
	}
}

// tickloop adds the declick ramp for both sides.
func tickloop[A accumWord](ch *Channel, acc []A, li, ri, count int) {
	size := ch.removeSize
	if size == 0 || count == 0 {
		return
	}
	var done bool
	ch.levelL, done = ramp(acc, li, count, ch.curLastL, ch.levelL, size, ch.downL)
	if done {
		ch.removing = false
	}
	ch.levelR, done = ramp(acc, ri, count, ch.curLastR, ch.levelR, size, ch.downR)
	if done {
		ch.removing = false
	}
}

// ramp fades last toward zero (down) or in from -last (up) over size
// frames, returning the new level and whether the ramp finished.
func ramp[A accumWord](acc []A, idx, count, last, level, size int, down bool) (int, bool) {
	if down {
		for k := 0; k < count; k++ {
			if level > 0 {
				level--
			}
			acc[idx+k*2] += A(last * level / size)
		}
		return level, level == 0
	}
	for k := 0; k < count; k++ {
		if level < size {
			level++
		}
		acc[idx+k*2] += A(last*level/size - last)
	}
	return level, level >= size
}

// settle rescales one side's held output after its volume moved from
// *prev to vol. A rising volume flips the ramp to fade in.
func settle(last, prev *int, down *bool, vol int) {
	if *prev != 0 {
		*last -= *last * vol / *prev
	}
	if *prev < vol {
		*last = -*last
		*down = false
	}
	*prev = vol
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

package sequencer

import "github.com/cbegin/modseq-go/internal/song"

// Extended sub-commands (high nibble of an EXTENDED argument).
const (
	extFineSlideUp   = 0x1
	extFineSlideDown = 0x2
	extFineVolUp     = 0xA
	extFineVolDown   = 0xB
	extCut           = 0xC
	extNoteDelay     = 0xD
)

// keepsZeroArg reports whether an effect treats a zero argument literally
// instead of recalling the previous argument.
func keepsZeroArg(e song.Effect) bool {
	switch e {
	case song.EffectArpeggio, song.EffectNone, song.EffectFastSkip, song.EffectVolume,
		song.EffectPanning, song.EffectSkip, song.EffectExtended, song.EffectSpeed:
		return true
	}
	return false
}

func clampPeriod(p int) int {
	return clamp(p, song.MinimumPitch, song.MaximumPitch)
}

// SetUpEffect primes the channel's effect state when a row is read.
func (s *Sequencer) SetUpEffect(ch *Channel) {
	if ch.effect >= song.EffectCount {
		ch.effect = song.EffectNone
	}
	arg := ch.arg
	if arg == 0 {
		if !keepsZeroArg(ch.effect) {
			arg = ch.prevArgs[ch.effect]
			ch.arg = arg
		}
	} else {
		ch.prevArgs[ch.effect] = arg
	}
	hi, lo := arg>>4, arg&0xF

	switch ch.effect {
	case song.EffectUpSlide, song.EffectDownSlide:
		if arg != 0 {
			ch.slide = arg
		}
	case song.EffectVibrato:
		ch.vibrato.Set(arg)
		ch.prevPeriod = ch.period
	case song.EffectArpeggio:
		s.setUpArpeggio(ch, hi, lo)
	case song.EffectSlideVolume:
		ch.ParseSlideVolume(arg)
	case song.EffectExtended:
		switch hi {
		case extFineSlideUp:
			ch.period = clampPeriod(ch.period - lo*4)
		case extFineSlideDown:
			ch.period = clampPeriod(ch.period + lo*4)
		case extFineVolUp:
			ch.volume = clamp(ch.volume+lo, 0, song.MaxVolume)
		case extFineVolDown:
			ch.volume = clamp(ch.volume-lo, 0, song.MaxVolume)
		}
	case song.EffectPortamento:
		ch.pitchRate = arg
		if ch.note != song.NoteUnused {
			ch.pitchGoal = song.NotePeriod(ch.note, ch.fineTune)
		} else if arg == 0 {
			ch.pitchGoal = ch.period
		}
	case song.EffectPortaSlide:
		if ch.note != song.NoteUnused {
			ch.pitchGoal = song.NotePeriod(ch.note, ch.fineTune)
		} else if ch.pitchGoal == 0 {
			ch.pitchGoal = ch.period
		}
		ch.ParseSlideVolume(arg)
	case song.EffectVibratoSlide:
		ch.prevPeriod = ch.period
		ch.ParseSlideVolume(arg)
	case song.EffectSpeed:
		if arg < 32 {
			if arg != 0 {
				s.speed = arg
			}
		} else {
			s.fineSpeed = arg
		}
	case song.EffectOffset:
		if ch.sample != nil {
			ch.cur = arg * 256 / ch.sample.BytesPerFrame()
		}
	case song.EffectPanning:
		ch.pan = min(arg*song.MaxPan/0xFF, song.MaxPan)
	case song.EffectVolume:
		ch.volume = min(arg, song.MaxVolume)
	}
}

func (s *Sequencer) setUpArpeggio(ch *Channel, hi, lo int) {
	if hi == 0 && lo == 0 {
		ch.arp[0] = 0
		return
	}
	if ch.note == song.NoteUnused {
		return
	}
	if n := int(ch.note) + hi; n < int(song.NoteMax) {
		ch.arp[1] = song.NotePeriod(song.Note(n), song.AmigaFrequency)
	}
	if n := int(ch.note) + lo; n < int(song.NoteMax) {
		ch.arp[2] = song.NotePeriod(song.Note(n), song.AmigaFrequency)
	}
	ch.arpIndex = 0
	ch.arp[0] = ch.period
}

func (ch *Channel) clearEffect() {
	ch.effect = song.EffectNone
	ch.arg = 0
}

// DoEffect applies the channel's running effect for tick step of the row.
func (s *Sequencer) DoEffect(ch *Channel, step int) {
	switch ch.effect {
	case song.EffectArpeggio:
		if ch.arg != 0 && ch.arp[0] != 0 {
			ch.arpIndex = (ch.arpIndex + 1) % arpeggioMaxCount
			ch.period = ch.arp[ch.arpIndex]
		}
	case song.EffectSkip:
		if step == s.speed-1 {
			s.patternBreak(ch.arg)
			ch.clearEffect()
		}
	case song.EffectFastSkip:
		if step == s.speed-1 {
			s.positionJump(ch.arg)
			ch.clearEffect()
		}
	case song.EffectDownSlide:
		if ch.period > song.MinimumPitch {
			ch.period = clampPeriod(ch.period - ch.slide*4)
		}
	case song.EffectUpSlide:
		if ch.period < song.MaximumPitch {
			ch.period = clampPeriod(ch.period + ch.slide*4)
		}
	case song.EffectVibrato:
		s.doVibrato(ch)
	case song.EffectSlideVolume:
		s.doSlideVolume(ch)
	case song.EffectPortamento:
		s.doPortamento(ch)
	case song.EffectPortaSlide:
		s.doPortamento(ch)
		s.doSlideVolume(ch)
	case song.EffectVibratoSlide:
		s.doVibrato(ch)
		s.doSlideVolume(ch)
	case song.EffectExtended:
		if ch.arg>>4 == extCut && step >= ch.arg&0xF {
			ch.volume = 0
		}
	default:
		ch.clearEffect()
		return
	}
	if step == s.speed-1 {
		ch.clearEffect()
	}
}

func (s *Sequencer) doVibrato(ch *Channel) {
	ch.period = ch.prevPeriod + ch.vibrato.Sample()
}

func (s *Sequencer) doSlideVolume(ch *Channel) {
	ch.volume = clamp(ch.volume+ch.volumeRate, 0, song.MaxVolume)
}

// doPortamento glides the period toward the goal. Reaching the goal ends
// a plain portamento; a portaslide keeps running and holds the goal.
func (s *Sequencer) doPortamento(ch *Channel) {
	goal := ch.pitchGoal
	switch {
	case ch.period < goal:
		ch.period += ch.pitchRate * 4
		if ch.period > goal {
			ch.period = goal
			s.endPortamento(ch)
		}
	case ch.period > goal:
		ch.period -= ch.pitchRate * 4
		if ch.period < goal {
			ch.period = goal
			s.endPortamento(ch)
		}
	}
}

func (s *Sequencer) endPortamento(ch *Channel) {
	if ch.effect == song.EffectPortamento {
		ch.clearEffect()
	}
}

// patternBreak jumps to row arg (BCD) of the next order entry.
func (s *Sequencer) patternBreak(arg int) {
	partition := s.partition
	if s.patternPos != 0 {
		partition++
		s.partition = partition
		s.patternID = s.pkg.Order(partition)
	}
	row := (arg>>4)*10 + arg&0xF
	if p := s.pkg.Pattern(s.patternID); p != nil && row >= p.Rows {
		row = max(p.Rows-1, 0)
	}
	s.patternPos = row
	if partition >= s.pkg.OrderCount() {
		s.wrapSong()
	}
}

// positionJump continues at order entry arg.
func (s *Sequencer) positionJump(arg int) {
	if s.partition > arg && !s.repeat {
		s.inProgress = false
	}
	s.partition = arg
	s.patternID = s.pkg.Order(arg)
	if arg >= s.pkg.OrderCount() {
		s.wrapSong()
	}
	s.patternPos = 0
}

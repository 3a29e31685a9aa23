package sequencer

import "github.com/cbegin/modseq-go/internal/song"

func isPortamento(e song.Effect) bool {
	return e == song.EffectPortamento || e == song.EffectPortaSlide
}

// ProcessNote applies one pattern cell to ch: note triggers, instrument
// defaults, the volume column and the effect column.
func (s *Sequencer) ProcessNote(ch *Channel, cmd song.Command) {
	eff := cmd.Effect
	arg := int(cmd.Arg)

	if eff == song.EffectExtended && arg>>4 == extNoteDelay {
		if s.speedCounter == 0 && !ch.delayActive {
			ch.delayActive = true
			ch.delayPattern = s.patternID
			ch.delayRow = s.patternPos
		}
		if s.speedCounter < arg&0xF {
			return
		}
	}
	ch.delayActive = false

	inst := int(cmd.Instrument)
	note := cmd.Note
	if inst != 0 || note.IsReal() {
		if inst == 0 {
			inst = ch.prevInstrument
		} else {
			ch.prevInstrument = inst
		}
		switch {
		case inst != 0 && note.IsReal():
			s.triggerNote(ch, min(inst-1, song.InstrumentMaxCount-1), note, eff)
		case inst != 0 && note == song.NoteUnused:
			in := s.pkg.Instrument(ch.instrument)
			if ch.sampleID < in.NumberSamples() {
				if smp := in.Samples[ch.sampleID]; smp != nil {
					s.applyDefaults(ch, smp, eff)
				}
			}
		}
		if note.IsReal() {
			if smp := s.pkg.Instrument(ch.instrument).SampleFor(note); smp != nil {
				ch.note = song.AddNoteSaturate(note, smp.RelativeNote)
				ch.fineTune = smp.C2Speed
				ch.keyOn = true
				if !isPortamento(eff) {
					ch.period = song.NotePeriod(ch.note, ch.fineTune) * s.masterPitch / song.DefaultMaster
					ch.prevPeriod = ch.period
				}
			}
		}
	} else {
		ch.note = song.NoteUnused
	}

	switch v := int(cmd.Volume); {
	case v == song.VolumeUnused:
		ch.volumeCmd = 0
	case v >= 0x10 && v <= 0x50:
		ch.volume = v - 0x10
		ch.volumeCmd = 0
	default:
		ch.volumeCmd = v
	}

	ch.effect = eff
	ch.arg = arg
	s.SetUpEffect(ch)

	if note == song.NoteOff {
		ch.keyOn = false
	}
}

// triggerNote binds the sample for note on instrument idx and, unless a
// portamento is gliding into it, restarts the voice from the top.
func (s *Sequencer) triggerNote(ch *Channel, idx int, note song.Note, eff song.Effect) {
	in := s.pkg.Instrument(idx)
	if in == nil {
		return
	}
	sIdx := int(in.WhichSample[note])
	if sIdx >= in.NumberSamples() || in.Samples[sIdx] == nil {
		return
	}
	smp := in.Samples[sIdx]
	ch.instrument = idx
	ch.sampleID = sIdx
	ch.loopType = smp.Loop
	if isPortamento(eff) {
		return
	}
	ch.sample = smp
	ch.echo = nil
	ch.cur = 0
	ch.end = smp.Length
	ch.frac = 0
	ch.reverse = false
	ch.prevOffset = -1
	ch.prev1 = [2]int{}
	ch.prev2 = [2]int{smp.Lane(0, 0), smp.Lane(0, 1)}
	if smp.Looped() {
		ch.loopBeg = smp.LoopStart
		ch.loopSize = smp.LoopLength
		ch.end = smp.LoopStart + smp.LoopLength
	} else {
		ch.loopBeg = 0
		ch.loopSize = 0
	}
	ch.vibrato.Retrigger()
	s.applyDefaults(ch, smp, eff)
	ch.volEnv.reset()
	ch.panEnv.reset()
}

// applyDefaults loads the sample volume and the channel pan unless the
// row's effect sets them explicitly.
func (s *Sequencer) applyDefaults(ch *Channel, smp *song.Sample, eff song.Effect) {
	if eff != song.EffectVolume {
		ch.volume = min(smp.Volume, song.MaxVolume)
		ch.fade = song.FullVolumeFade
	}
	if eff != song.EffectPanning {
		ch.pan = min(s.pkg.Description.ChannelPans[ch.id], song.MaxPan)
	}
}

package sequencer

import "github.com/cbegin/modseq-go/internal/song"

// step evaluates env at the cursor and advances it by one tick. When sustain
// is true and the cursor sits exactly on the sustain point, it stays put.
func (c *envelopeCursor) step(env *song.Envelope, sustain bool) int {
	if env.Count == 1 {
		c.pos = env.Points[0].Position
		return env.Points[0].Volume
	}
	cur := envIndex(c.cur)
	next := envIndex(c.next)
	v := env.Points[cur].Interpolate(env.Points[next], c.pos)
	if sustain && c.cur == env.Sustain && c.pos == env.Points[cur].Position {
		return v
	}
	c.pos++
	if c.pos >= env.Points[next].Position {
		c.cur = c.next
		c.next++
		if env.Flags&song.EnvelopeLoop != 0 {
			if c.next > env.LoopEnd {
				c.cur = env.LoopBegin
				c.next = c.cur + 1
				c.pos = env.Points[envIndex(c.cur)].Position
			}
		} else if c.next >= env.Count {
			c.next--
			c.pos--
		}
	}
	return v
}

func envIndex(i int) int {
	return clamp(i, 0, song.EnvelopeMaxCount-1)
}

func (s *Sequencer) channelInstrument(ch *Channel) *song.Instrument {
	if s.pkg == nil {
		return nil
	}
	return s.pkg.Instrument(ch.instrument)
}

// ProcessEnvelope updates the channel's volume envelope level.
func (s *Sequencer) ProcessEnvelope(ch *Channel) {
	ch.volFromEnv = song.MaxVolume
	in := s.channelInstrument(ch)
	if in == nil || !in.VolumeEnv.Enabled() {
		return
	}
	env := &in.VolumeEnv
	ch.volFromEnv = ch.volEnv.step(env, env.Flags&song.EnvelopeSustain != 0 && ch.keyOn)
}

// ProcessPanning updates the channel's pan from its pan envelope, or from
// the channel pan when the instrument has none.
func (s *Sequencer) ProcessPanning(ch *Channel) {
	ch.panFromEnv = ch.pan
	in := s.channelInstrument(ch)
	if in == nil || !in.PanningEnv.Enabled() {
		return
	}
	ch.panFromEnv = ch.panEnv.step(&in.PanningEnv, false)
}

// ProcessFadeOut lowers the fade level of a released voice. Once the fade
// reaches zero the loop is dropped so the sample runs out.
func (s *Sequencer) ProcessFadeOut(ch *Channel) {
	if ch.keyOn {
		return
	}
	in := s.channelInstrument(ch)
	if in == nil {
		return
	}
	ch.fade -= in.FadeSpeed
	if ch.fade < 0 {
		ch.fade = 0
		ch.loopBeg = 0
		ch.loopSize = 0
	}
}

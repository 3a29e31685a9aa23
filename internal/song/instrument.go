package song

const (
	InstrumentMaxCount = 255
	SampleMaxCount     = 64
	EnvelopeMaxCount   = 12

	DefaultVolumeFade = 300
	FullVolumeFade    = 32767
)

// LoopType selects how a looping sample wraps.
type LoopType uint8

const (
	LoopNormal LoopType = iota
	LoopPingPong
)

// EnvelopeFlag is a bit set of envelope options.
type EnvelopeFlag uint8

const (
	EnvelopeOn      EnvelopeFlag = 1
	EnvelopeSustain EnvelopeFlag = 2
	EnvelopeLoop    EnvelopeFlag = 4
)

// EnvelopeMarker is one (position, value) point of a piecewise-linear
// envelope. Position is measured in ticks since note-on.
type EnvelopeMarker struct {
	Position int
	Volume   int
}

// Interpolate returns the envelope value at pos on the segment from m to
// next. Positions before m, or a zero-length segment, yield m's value.
func (m EnvelopeMarker) Interpolate(next EnvelopeMarker, pos int) int {
	if pos >= m.Position && m.Position != next.Position {
		return m.Volume + (pos-m.Position)*(next.Volume-m.Volume)/(next.Position-m.Position)
	}
	return m.Volume
}

type Envelope struct {
	Points    [EnvelopeMaxCount]EnvelopeMarker
	Count     int
	Sustain   int
	LoopBegin int
	LoopEnd   int
	Flags     EnvelopeFlag
}

// Enabled reports whether the envelope should drive the channel.
func (e *Envelope) Enabled() bool {
	return e.Count > 0 && e.Flags&EnvelopeOn != 0
}

// Sample is one PCM waveform. Exactly one of Data8 and Data16 is set; stereo
// data is interleaved. Lengths and loop points are counted in frames.
type Sample struct {
	Name         string
	Data8        []int8
	Data16       []int16
	Stereo       bool
	Length       int
	LoopStart    int
	LoopLength   int
	Loop         LoopType
	C2Speed      int
	Volume       int
	Panning      int
	RelativeNote int
}

// Bits returns the sample word size.
func (s *Sample) Bits() int {
	if s.Data16 != nil {
		return 16
	}
	return 8
}

func (s *Sample) Channels() int {
	if s.Stereo {
		return 2
	}
	return 1
}

// BytesPerFrame is the size of one frame of raw PCM.
func (s *Sample) BytesPerFrame() int {
	return s.Bits() / 8 * s.Channels()
}

// Looped reports whether the loop region is long enough to play.
func (s *Sample) Looped() bool {
	return s.LoopLength*s.BytesPerFrame() > 2
}

// Frame returns the first lane of frame i widened to int, or zero when the
// frame is outside the data.
func (s *Sample) Frame(i int) int { return s.Lane(i, 0) }

// Lane returns channel lane of frame i. Mono samples ignore lane.
func (s *Sample) Lane(i, lane int) int {
	n := s.Channels()
	if lane >= n {
		lane = n - 1
	}
	if s.Data16 != nil {
		if i < 0 || i >= len(s.Data16)/n {
			return 0
		}
		return int(s.Data16[i*n+lane])
	}
	if i < 0 || i >= len(s.Data8)/n {
		return 0
	}
	return int(s.Data8[i*n+lane])
}

// Release drops the PCM data.
func (s *Sample) Release() {
	s.Data8 = nil
	s.Data16 = nil
	s.Length = 0
	s.LoopStart = 0
	s.LoopLength = 0
}

// Instrument maps notes to samples and carries envelopes.
type Instrument struct {
	Name         string
	WhichSample  [NoteMax]uint8
	VolumeEnv    Envelope
	PanningEnv   Envelope
	FadeSpeed    int
	VibratoType  int
	VibratoSweep int
	VibratoDepth int
	VibratoRate  int
	Samples      []*Sample
}

// Reset returns the instrument to an empty slot.
func (in *Instrument) Reset() {
	for _, s := range in.Samples {
		if s != nil {
			s.Release()
		}
	}
	*in = Instrument{FadeSpeed: DefaultVolumeFade}
}

// NumberSamples is the count of samples owned by the instrument.
func (in *Instrument) NumberSamples() int {
	if in == nil {
		return 0
	}
	return len(in.Samples)
}

// SampleFor returns the sample mapped to note, or nil.
func (in *Instrument) SampleFor(note Note) *Sample {
	if in == nil || !note.IsReal() {
		return nil
	}
	idx := int(in.WhichSample[note])
	if idx >= len(in.Samples) {
		return nil
	}
	return in.Samples[idx]
}

// AddSample appends s, returning false when the instrument is full.
func (in *Instrument) AddSample(s *Sample) bool {
	if len(in.Samples) >= SampleMaxCount {
		return false
	}
	in.Samples = append(in.Samples, s)
	return true
}

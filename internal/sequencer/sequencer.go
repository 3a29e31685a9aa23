package sequencer

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"

	"github.com/cbegin/modseq-go/internal/debug"
	"github.com/cbegin/modseq-go/internal/effects"
	"github.com/cbegin/modseq-go/internal/song"
)

const (
	MaxChannels = song.TrackMaxCount

	MinSampleRate = 5000
	MaxSampleRate = 48000

	MaxMicroDelayMS = 1000

	DefaultSampleRate   = 44100
	DefaultBufferFrames = 7500
	DefaultMaxVoices    = 4
	DefaultMicroDelayMS = 25
	DefaultReverbSizeMS = 100
	DefaultReverbAmount = 20
	MaxVolume           = 255

	// idleSpeedCounter forces the first PerformSequencing call to read a row.
	idleSpeedCounter = 128
)

var (
	ErrNoSong  = errors.New("sequencer: no song loaded")
	ErrNilSong = errors.New("sequencer: nil song")
)

// OutputFormat is the PCM encoding of the sequencer's output buffer.
type OutputFormat int

const (
	FormatS16LE OutputFormat = iota
	FormatS16BE
	FormatU8
)

func (f OutputFormat) String() string {
	switch f {
	case FormatS16LE:
		return "s16le"
	case FormatS16BE:
		return "s16be"
	case FormatU8:
		return "u8"
	}
	return "unknown"
}

// Bits is the sample word size.
func (f OutputFormat) Bits() int {
	if f == FormatU8 {
		return 8
	}
	return 16
}

// BytesPerFrame is the size of one interleaved stereo frame.
func (f OutputFormat) BytesPerFrame() int { return f.Bits() / 4 }

// ParseFormat maps a format name to its OutputFormat.
func ParseFormat(name string) (OutputFormat, bool) {
	switch name {
	case "s16le", "s16", "":
		return FormatS16LE, true
	case "s16be":
		return FormatS16BE, true
	case "u8":
		return FormatU8, true
	}
	return FormatS16LE, false
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventSongLooped EventKind = iota
	EventPlaybackEnded
)

// Options configure a Sequencer. Start from DefaultOptions; zero numeric
// fields are replaced by their defaults.
type Options struct {
	SampleRate     int
	Format         OutputFormat
	BufferFrames   int
	MaxVoices      int
	MicroDelayMS   int
	ReverbSizeMS   int
	ReverbStrength int
	Reverb         bool
	Surround       bool
	TickRemover    bool
	Repeat         bool
	// OnEvent is called from the rendering goroutine with the sequencer
	// locked. It must not call back into the Sequencer.
	OnEvent func(EventKind)
}

func DefaultOptions() Options {
	return Options{
		SampleRate:     DefaultSampleRate,
		Format:         FormatS16LE,
		BufferFrames:   DefaultBufferFrames,
		MaxVoices:      DefaultMaxVoices,
		MicroDelayMS:   DefaultMicroDelayMS,
		ReverbSizeMS:   DefaultReverbSizeMS,
		ReverbStrength: DefaultReverbAmount,
		Reverb:         true,
		Surround:       true,
		TickRemover:    true,
		Repeat:         true,
	}
}

// Position is the playback cursor in song coordinates.
type Position struct {
	Order   int
	Pattern int
	Row     int
}

// Sequencer turns a song.Package into interleaved stereo PCM one buffer at
// a time. Control methods are safe to call while another goroutine reads.
type Sequencer struct {
	mu sync.Mutex

	pkg      *song.Package
	channels [MaxChannels]Channel

	importers []Importer

	rate         int
	format       OutputFormat
	accumFrames  int
	maxVoices    int
	microDelayMS int
	microFrames  int
	reverbSizeMS int
	reverbAmount int
	reverbFrames int
	reverbOn     bool
	surround     bool
	tickRemover  bool
	repeat       bool
	volume       int
	onEvent      func(EventKind)

	accum32 []int32
	accum16 []int16
	out16   []int16
	out8    []uint8
	post16  *effects.Chain[int16]
	post8   *effects.Chain[uint8]
	pending []byte
	readOff int

	masterSpeed  int
	masterPitch  int
	speed        int
	fineSpeed    int
	speedCounter int
	partition    int
	patternPos   int
	patternID    int
	generated    int
	toGenerate   int

	playing    bool
	inProgress bool
	paused     bool
}

func New() *Sequencer {
	return NewWithOptions(DefaultOptions())
}

func NewWithOptions(opts Options) *Sequencer {
	def := DefaultOptions()
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.BufferFrames <= 0 {
		opts.BufferFrames = def.BufferFrames
	}
	if opts.MaxVoices <= 0 {
		opts.MaxVoices = def.MaxVoices
	}
	if opts.MicroDelayMS < 0 {
		opts.MicroDelayMS = 0
	}
	s := &Sequencer{
		format:      opts.Format,
		accumFrames: opts.BufferFrames,
		surround:    opts.Surround,
		tickRemover: opts.TickRemover,
		repeat:      opts.Repeat,
		volume:      MaxVolume,
		onEvent:     opts.OnEvent,
		masterSpeed: song.DefaultMaster,
		masterPitch: song.DefaultMaster,
		speed:       song.DefaultSpeed,
		fineSpeed:   song.DefaultTempo,
	}
	s.rate = clamp(opts.SampleRate, MinSampleRate, MaxSampleRate)
	s.maxVoices = voiceCount(opts.MaxVoices)
	s.microDelayMS = min(opts.MicroDelayMS, MaxMicroDelayMS)
	s.setReverb(opts.Reverb, opts.ReverbSizeMS, opts.ReverbStrength)
	s.rebuild()
	return s
}

func voiceCount(n int) int {
	return clamp((n+1)&^1, 2, MaxChannels)
}

// rebuild reallocates the mix and output buffers and the post-processing
// chain after a change to rate, format, voices, delay or reverb.
func (s *Sequencer) rebuild() {
	s.microFrames = s.rate * s.microDelayMS / 1000
	size := (s.accumFrames + s.microFrames) * 2
	s.accum32, s.accum16, s.out16, s.out8 = nil, nil, nil, nil
	if s.format.Bits() == 8 {
		s.accum16 = make([]int16, size)
		s.out8 = make([]uint8, s.accumFrames*2)
	} else {
		s.accum32 = make([]int32, size)
		s.out16 = make([]int16, s.accumFrames*2)
	}
	s.reverbFrames = effects.ReverbFrames(s.rate, s.reverbSizeMS)
	s.post16 = effects.NewChain[int16]()
	s.post8 = effects.NewChain[uint8]()
	if s.surround {
		s.post16.Add(effects.NewSurround[int16]())
		s.post8.Add(effects.NewSurround[uint8]())
	}
	if s.reverbOn && s.accumFrames < s.reverbFrames {
		s.post16.Add(effects.NewReverb[int16](s.rate, s.reverbSizeMS, s.reverbAmount))
		s.post8.Add(effects.NewReverb[uint8](s.rate, s.reverbSizeMS, s.reverbAmount))
	}
	s.pending = s.pending[:0]
	s.readOff = 0
	s.clearChannels()
}

func (s *Sequencer) setReverb(on bool, sizeMS, strength int) {
	if !on || sizeMS < effects.MinReverbMS || strength <= 0 {
		s.reverbOn = false
		return
	}
	s.reverbOn = true
	s.reverbSizeMS = min(sizeMS, effects.MaxReverbMS)
	s.reverbAmount = min(strength, effects.MaxReverbStrength)
}

// Shutdown stops playback, forgets the song and drops the importers.
func (s *Sequencer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeSong()
	s.importers = nil
}

func (s *Sequencer) SetMaxVoices(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxVoices = voiceCount(n)
	s.rebuild()
}

func (s *Sequencer) SetSampleRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = clamp(rate, MinSampleRate, MaxSampleRate)
	s.rebuild()
}

// SetOutputDataType switches the sample encoding Read produces. Buffered
// output in the old format is dropped.
func (s *Sequencer) SetOutputDataType(f OutputFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = f
	s.rebuild()
}

func (s *Sequencer) SetMicroDelayDuration(ms int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.microDelayMS = clamp(ms, 0, MaxMicroDelayMS)
	s.rebuild()
}

// SetReverb configures the feedback reverb. A size below the minimum or a
// zero strength disables it.
func (s *Sequencer) SetReverb(sizeMS, strength int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setReverb(true, sizeMS, strength)
	s.rebuild()
}

func (s *Sequencer) SetSurround(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surround = on
	s.rebuild()
}

func (s *Sequencer) SetTickRemover(on bool) {
	s.mu.Lock()
	s.tickRemover = on
	s.mu.Unlock()
}

func (s *Sequencer) SetRepeat(on bool) {
	s.mu.Lock()
	s.repeat = on
	s.mu.Unlock()
}

func (s *Sequencer) SetVolume(v int) {
	s.mu.Lock()
	s.volume = clamp(v, 0, MaxVolume)
	s.mu.Unlock()
}

func (s *Sequencer) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Sequencer) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *Sequencer) Format() OutputFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func (s *Sequencer) BufferFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accumFrames
}

func (s *Sequencer) MaxVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxVoices
}

// Song returns the installed package, or nil.
func (s *Sequencer) Song() *song.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pkg
}

// SetSong installs pkg, replacing any current song, and prepares the
// channel state for it. Playback does not start.
func (s *Sequencer) SetSong(pkg *song.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSong(pkg)
}

func (s *Sequencer) setSong(pkg *song.Package) error {
	if pkg == nil {
		return ErrNilSong
	}
	s.disposeSong()
	s.pkg = pkg
	s.volume = pkg.Description.MasterVolume * 4
	if s.volume <= 0 || s.volume > MaxVolume {
		s.volume = MaxVolume
	}
	s.masterSpeed = pkg.Description.MasterSpeed
	if s.masterSpeed <= 0 {
		s.masterSpeed = song.DefaultMaster
	}
	s.masterPitch = pkg.Description.MasterPitch
	if s.masterPitch <= 0 {
		s.masterPitch = song.DefaultMaster
	}
	s.reset()
	s.setChannelCount()
	debug.Log("seq", "song %q: %d channels, %d orders, speed %d tempo %d",
		pkg.Description.Name, pkg.Description.ChannelCount, pkg.OrderCount(), s.speed, s.fineSpeed)
	return nil
}

// Reset rewinds the song to the first order.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Sequencer) reset() {
	s.clearChannels()
	s.speedCounter = idleSpeedCounter
	s.partition = 0
	s.patternPos = 0
	s.speed = song.DefaultSpeed
	s.fineSpeed = song.DefaultTempo
	if s.pkg == nil {
		s.patternID = 0
		return
	}
	s.patternID = s.pkg.Order(0)
	if s.pkg.Description.Speed > 0 {
		s.speed = s.pkg.Description.Speed
	}
	if s.pkg.Description.Tempo > 0 {
		s.fineSpeed = s.pkg.Description.Tempo
	}
}

// setChannelCount adopts the song's channel count as the voice count,
// keeping the prepared and started state across the rebuild.
func (s *Sequencer) setChannelCount() {
	n := s.pkg.Description.ChannelCount
	if n <= 0 || n == s.maxVoices {
		return
	}
	playing, inProgress := s.playing, s.inProgress
	s.clearSequencer()
	s.maxVoices = min(n, MaxChannels)
	s.rebuild()
	if playing {
		s.prepare()
	}
	if inProgress {
		s.inProgress = true
	}
	debug.Log("seq", "voices set to %d", s.maxVoices)
}

// ClearChannels returns every voice to its power-on state.
func (s *Sequencer) ClearChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearChannels()
}

func (s *Sequencer) clearChannels() {
	s.generated = 0
	s.toGenerate = 0
	for i := range s.channels {
		s.channels[i].Init(i)
	}
}

// PrepareSequencer readies the sequencer to play from the current order.
func (s *Sequencer) PrepareSequencer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepare()
}

func (s *Sequencer) prepare() {
	s.playing = true
	s.inProgress = false
	s.clearChannels()
	s.determineSpeed()
}

// ClearSequencer silences the output and drops the prepared state.
func (s *Sequencer) ClearSequencer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSequencer()
}

func (s *Sequencer) clearSequencer() {
	s.playing = false
	s.clearChannels()
}

// DetermineSpeed recovers speed and tempo at the current order by
// scanning backwards for the latest speed commands.
func (s *Sequencer) DetermineSpeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.determineSpeed()
}

func (s *Sequencer) determineSpeed() {
	if s.pkg == nil {
		return
	}
	speedFound, tempoFound := false, false
	channels := min(s.pkg.Description.ChannelCount, MaxChannels)
	for i := s.partition; i >= 0; i-- {
		p := s.pkg.Pattern(s.pkg.Order(i))
		if p == nil || p.Rows == 0 {
			continue
		}
		row := p.Rows - 1
		if i == s.partition {
			row = min(i, p.Rows-1)
		}
		for ; row >= 0; row-- {
			for c := channels - 1; c >= 0; c-- {
				cmd := p.At(row, c)
				if cmd.Effect != song.EffectSpeed {
					continue
				}
				arg := int(cmd.Arg)
				switch {
				case arg > 0 && arg < 32 && !speedFound:
					s.speed = arg
					speedFound = true
				case arg >= 32 && !tempoFound:
					s.fineSpeed = arg
					tempoFound = true
				}
				if speedFound && tempoFound {
					return
				}
			}
		}
	}
	if !speedFound && s.pkg.Description.Speed > 0 {
		s.speed = s.pkg.Description.Speed
	}
	if !tempoFound && s.pkg.Description.Tempo > 0 {
		s.fineSpeed = s.pkg.Description.Tempo
	}
}

func (s *Sequencer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start()
}

func (s *Sequencer) start() error {
	if s.pkg == nil {
		return ErrNoSong
	}
	s.inProgress = true
	s.paused = false
	debug.Log("seq", "start at order %d row %d", s.partition, s.patternPos)
	return nil
}

func (s *Sequencer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pkg == nil {
		return ErrNoSong
	}
	s.inProgress = false
	return nil
}

// Pause stops sequencing and silences the voices; Resume continues from
// the same row. Pausing twice is a no-op.
func (s *Sequencer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pkg == nil {
		return ErrNoSong
	}
	if s.paused {
		return nil
	}
	s.inProgress = false
	s.clearChannels()
	s.paused = true
	return nil
}

func (s *Sequencer) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return nil
	}
	return s.start()
}

// DisposeSong stops playback and forgets the song. The package itself is
// left to its owner.
func (s *Sequencer) DisposeSong() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeSong()
}

func (s *Sequencer) disposeSong() {
	s.inProgress = false
	s.clearSequencer()
	s.pkg = nil
	s.paused = false
}

// Play installs pkg and starts it from the beginning.
func (s *Sequencer) Play(pkg *song.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setSong(pkg); err != nil {
		return err
	}
	s.prepare()
	return s.start()
}

// PlayBytes imports data with the registered importers and plays it.
func (s *Sequencer) PlayBytes(data []byte) error {
	pkg, err := s.ImportSong(data)
	if err != nil {
		return err
	}
	return s.Play(pkg)
}

func (s *Sequencer) PlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.PlayBytes(data)
}

func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// InProgress reports whether rows are being read.
func (s *Sequencer) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

func (s *Sequencer) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Sequencer) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Position{Order: s.partition, Pattern: s.patternID, Row: s.patternPos}
}

// Speed returns the ticks per row and the tempo.
func (s *Sequencer) Speed() (speed, tempo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed, s.fineSpeed
}

// Channel exposes voice i for inspection.
func (s *Sequencer) Channel(i int) *Channel {
	return &s.channels[clamp(i, 0, MaxChannels-1)]
}

// CalculateVolume returns the mix gain (0..256) of ch for one output side.
// Speaker 0 feeds the right output and 1 the left; 2 ignores panning.
func (s *Sequencer) CalculateVolume(ch *Channel, speaker int) int {
	r := ch.volume * ch.volFromEnv * ch.fade / (16 * song.FullVolumeFade)
	if s.pkg != nil {
		r = r * s.pkg.Description.ChannelVolumes[ch.id] / song.MaxVolume
	}
	if speaker < 2 {
		p := clamp(ch.panFromEnv, 0, song.MaxPan)
		if speaker == 1 {
			p = song.MaxPan - p
		}
		r = r * p / song.MaxPan
	}
	r = r * s.volume / MaxVolume
	return clamp(r, 0, 256)
}

// tickFrames is the number of output frames in one tick.
func (s *Sequencer) tickFrames() int {
	chunk := s.rate * 125 / 50
	fine := max(s.fineSpeed, 1)
	speed := max(s.masterSpeed, 1)
	return max(((80*chunk)/fine)/speed, 1)
}

func (s *Sequencer) rowCount(patternID int) int {
	if p := s.pkg.Pattern(patternID); p != nil && p.Rows > 0 {
		return p.Rows
	}
	return 1
}

// wrapSong returns to the first order after the last one has played.
func (s *Sequencer) wrapSong() {
	s.partition = 0
	s.patternID = s.pkg.Order(0)
	s.clearChannels()
	if !s.repeat {
		s.inProgress = false
		debug.Log("seq", "song ended")
		s.emit(EventPlaybackEnded)
		return
	}
	debug.Log("seq", "song looped")
	s.emit(EventSongLooped)
}

func (s *Sequencer) emit(kind EventKind) {
	if s.onEvent != nil {
		s.onEvent(kind)
	}
}

// PerformSequencing renders one buffer of BufferFrames frames. Without a
// song, or while the song is being modified, the buffer is silence.
func (s *Sequencer) PerformSequencing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perform()
}

func (s *Sequencer) perform() {
	if s.pkg == nil {
		s.silence()
		return
	}
	release, ok := s.pkg.TryRead()
	if !ok {
		s.silence()
		return
	}
	defer release()

	remaining := s.accumFrames
	offset := 0
	for remaining > 0 {
		left := s.toGenerate - s.generated
		process := true
		if left > remaining {
			left = remaining
			process = false
		}
		if left > 0 {
			s.generateSound(offset, left)
			offset += left
			s.generated += left
			remaining -= left
		}
		if !process {
			break
		}
		s.sequenceTick()
		s.toGenerate += s.tickFrames()
	}

	if s.microFrames > 0 {
		s.carryMicroDelay()
	}
	if s.format.Bits() == 8 {
		s.post8.ProcessBuffer(s.out8)
	} else {
		s.post16.ProcessBuffer(s.out16)
	}
}

// sequenceTick advances the song by one tick: delayed notes first, then
// either a new row or the running effects.
func (s *Sequencer) sequenceTick() {
	pkg := s.pkg
	channels := min(pkg.Description.ChannelCount, MaxChannels)
	if s.inProgress {
		for i := 0; i < channels; i++ {
			ch := &s.channels[i]
			if ch.delayActive {
				s.ProcessNote(ch, pkg.Pattern(ch.delayPattern).At(ch.delayRow, i))
			}
		}
	}

	s.speedCounter++
	if s.speedCounter >= s.speed {
		s.speedCounter = 0
		for i := 0; i < channels; i++ {
			ch := &s.channels[i]
			if s.inProgress {
				s.ProcessNote(ch, pkg.Pattern(s.patternID).At(s.patternPos, i))
			}
			s.ProcessEnvelope(ch)
			s.ProcessPanning(ch)
			s.ProcessFadeOut(ch)
		}
		if s.inProgress {
			s.patternPos++
			if s.patternPos >= s.rowCount(s.patternID) {
				s.patternPos = 0
				s.partition++
				s.patternID = pkg.Order(s.partition)
				if s.speed == 1 && s.partition >= pkg.OrderCount() {
					s.wrapSong()
				}
			}
		}
		return
	}

	for i := 0; i < s.maxVoices; i++ {
		ch := &s.channels[i]
		ch.VolumeCommand(s.speedCounter)
		s.DoEffect(ch, s.speedCounter)
		s.ProcessEnvelope(ch)
		s.ProcessPanning(ch)
		s.ProcessFadeOut(ch)
	}
	if s.inProgress && s.speedCounter == s.speed-1 && s.partition >= pkg.OrderCount() {
		s.wrapSong()
	}
}

// generateSound mixes every voice into frames at offset and converts that
// span of the accumulator to output PCM.
func (s *Sequencer) generateSound(offset, frames int) {
	lo, hi := offset*2, (offset+frames)*2
	if s.format.Bits() == 8 {
		for i := 0; i < s.maxVoices; i++ {
			mixChannel(s, &s.channels[i], s.accum16, offset, frames)
		}
		mixTo8(s.accum16[lo:hi], s.out8[lo:hi])
		return
	}
	for i := 0; i < s.maxVoices; i++ {
		mixChannel(s, &s.channels[i], s.accum32, offset, frames)
	}
	mixTo16(s.accum32[lo:hi], s.out16[lo:hi])
}

// carryMicroDelay moves the delayed tail past the buffer to the front of
// the accumulator for the next call.
func (s *Sequencer) carryMicroDelay() {
	total, micro := s.accumFrames*2, s.microFrames*2
	if s.format.Bits() == 8 {
		copy(s.accum16, s.accum16[total:total+micro])
		clear(s.accum16[micro : micro+total])
		return
	}
	copy(s.accum32, s.accum32[total:total+micro])
	clear(s.accum32[micro : micro+total])
}

func (s *Sequencer) silence() {
	if s.format.Bits() == 8 {
		for i := range s.out8 {
			s.out8[i] = effects.Silence[uint8]()
		}
		return
	}
	clear(s.out16)
}

// Buffer16 returns the last rendered buffer for 16-bit formats.
func (s *Sequencer) Buffer16() []int16 { return s.out16 }

// Buffer8 returns the last rendered buffer for FormatU8.
func (s *Sequencer) Buffer8() []uint8 { return s.out8 }

// Read implements io.Reader over successive PerformSequencing buffers
// encoded in the output format. It never returns an error.
func (s *Sequencer) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for n < len(p) {
		if s.readOff >= len(s.pending) {
			s.perform()
			s.encode()
		}
		c := copy(p[n:], s.pending[s.readOff:])
		s.readOff += c
		n += c
	}
	return n, nil
}

func (s *Sequencer) encode() {
	s.readOff = 0
	switch s.format {
	case FormatU8:
		s.pending = append(s.pending[:0], s.out8...)
	case FormatS16BE:
		s.pending = s.pending[:0]
		for _, v := range s.out16 {
			s.pending = binary.BigEndian.AppendUint16(s.pending, uint16(v))
		}
	default:
		s.pending = s.pending[:0]
		for _, v := range s.out16 {
			s.pending = binary.LittleEndian.AppendUint16(s.pending, uint16(v))
		}
	}
}

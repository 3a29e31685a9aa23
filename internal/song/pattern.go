package song

// Note is a tracker note number. Values below NoteMax are playable notes in
// semitones from C-0; NoteOff and NoteUnused are sentinels.
type Note uint8

const (
	NoteMid    Note = 40
	NoteLast   Note = 95
	NoteMax    Note = 96
	NoteOff    Note = 254
	NoteUnused Note = 255
)

// IsReal reports whether n is a playable note rather than a sentinel.
func (n Note) IsReal() bool { return n < NoteMax }

// Effect identifies a row effect. The numbering follows the classic
// ProTracker/XM command digits so XM data maps through unchanged.
type Effect uint8

const (
	EffectArpeggio Effect = iota
	EffectDownSlide
	EffectUpSlide
	EffectPortamento
	EffectVibrato
	EffectPortaSlide
	EffectVibratoSlide
	EffectNone
	EffectPanning
	EffectOffset
	EffectSlideVolume
	EffectFastSkip
	EffectVolume
	EffectSkip
	EffectExtended
	EffectSpeed

	EffectCount
)

var effectNames = [EffectCount]string{
	"arpeggio", "downslide", "upslide", "portamento", "vibrato", "portaslide",
	"vibratoslide", "none", "panning", "offset", "slidevolume", "fastskip",
	"volume", "skip", "extended", "speed",
}

func (e Effect) String() string {
	if e < EffectCount {
		return effectNames[e]
	}
	return "unknown"
}

// VolumeUnused marks an empty volume column.
const VolumeUnused = 255

// Command is one note slot of a pattern.
type Command struct {
	Note       Note
	Instrument uint8
	Volume     uint8
	Effect     Effect
	Arg        uint8
}

// EmptyCommand returns a cleared command.
func EmptyCommand() Command {
	return Command{Note: NoteUnused, Volume: VolumeUnused, Effect: EffectNone}
}

// Clear resets c to an empty slot.
func (c *Command) Clear() { *c = EmptyCommand() }

// Pattern is a grid of commands stored channel-major: the command at
// (row, channel) lives at index channel*Rows+row.
type Pattern struct {
	Rows     int
	Channels int
	Commands []Command
}

// NewPattern allocates a pattern with every command cleared. A pattern with
// no cells has zero rows and zero channels.
func NewPattern(rows, channels int) *Pattern {
	if rows <= 0 || channels <= 0 {
		return &Pattern{}
	}
	p := &Pattern{Rows: rows, Channels: channels, Commands: make([]Command, rows*channels)}
	for i := range p.Commands {
		p.Commands[i].Clear()
	}
	return p
}

// At returns the command at (row, channel). Out-of-range coordinates are
// clamped to the nearest valid cell.
func (p *Pattern) At(row, channel int) Command {
	if p == nil || len(p.Commands) == 0 {
		return EmptyCommand()
	}
	row = clampIndex(row, p.Rows)
	channel = clampIndex(channel, p.Channels)
	return p.Commands[channel*p.Rows+row]
}

// Cell returns a pointer to the command at (row, channel) for writing, or
// nil when the coordinates fall outside the pattern.
func (p *Pattern) Cell(row, channel int) *Command {
	if p == nil || row < 0 || row >= p.Rows || channel < 0 || channel >= p.Channels {
		return nil
	}
	return &p.Commands[channel*p.Rows+row]
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

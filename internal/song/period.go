package song

const (
	AmigaFrequency = 8363
	AmigaClock     = 14317456

	MinimumPitch = 113
	MaximumPitch = 27392

	MaxVolume = 64
	MaxPan    = 64

	// defaultPeriod is returned for notes that have no pitch.
	defaultPeriod = 4242
	// zeroPeriod replaces a period that rounded down to nothing.
	zeroPeriod = 7242
)

// frequencyTable holds octave-0 periods for C..B, scaled by 16.
var frequencyTable = [12]int{
	1712 * 16, 1616 * 16, 1524 * 16, 1440 * 16, 1356 * 16, 1280 * 16,
	1208 * 16, 1140 * 16, 1076 * 16, 1016 * 16, 960 * 16, 907 * 16,
}

// NotePeriod returns the Amiga period of note played from a sample whose
// middle-C rate is c2.
func NotePeriod(note Note, c2 int) int {
	if note == NoteUnused || note == NoteOff || c2 == 0 {
		return defaultPeriod
	}
	n := int(note)
	p := ((AmigaFrequency * frequencyTable[n%12]) >> uint(n/12)) / c2
	if p == 0 {
		return zeroPeriod
	}
	return p
}

// AddNoteSaturate transposes note by delta semitones, saturating to the
// playable range.
func AddNoteSaturate(note Note, delta int) Note {
	n := int(note) + delta
	if n < 0 {
		n = 0
	}
	if n >= int(NoteMax) {
		return NoteLast
	}
	return Note(n)
}

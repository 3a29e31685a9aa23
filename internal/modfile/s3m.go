package modfile

import "github.com/cbegin/modseq-go/internal/song"

const (
	s3mHeaderSize = 96
	s3mRows       = 64
	s3mChannels   = 32

	s3mSignedSamples = 1
	s3mPCM           = 1
	s3mLoop          = 0x01
	s3mSample16      = 0x04
)

// ImportS3M decodes a Scream Tracker 3 module.
func ImportS3M(data []byte) (*song.Package, error) {
	p := newParser("s3m", data)
	if !isS3M(data) {
		return nil, p.unknown("missing SCRM signature")
	}
	pkg := song.New()
	if err := p.run(func() { p.parseS3M(pkg) }); err != nil {
		return nil, err
	}
	return pkg, nil
}

func isS3M(data []byte) bool {
	return len(data) >= s3mHeaderSize && string(data[44:48]) == "SCRM"
}

func (p *parser) parseS3M(pkg *song.Package) {
	p.startStage("header")
	name := p.readString(28, "song name")
	orderCount := p.u16At(32, "order count")
	instruments := p.u16At(34, "instrument count")
	patterns := p.u16At(36, "pattern count")
	signed := p.u16At(42, "sample type") == s3mSignedSamples
	speed := p.u8At(49, "default speed")
	tempo := p.u8At(50, "default tempo")
	channels := 0
	for i := 0; i < s3mChannels; i++ {
		if p.u8At(64+i, "channel settings") < 32 {
			channels++
		}
	}
	if channels == 0 {
		p.fail("no enabled channels")
	}
	channels = (channels + 1) &^ 1

	p.seek(s3mHeaderSize, "order table")
	p.startStage("orders")
	orders := p.read(orderCount, "order table")
	insPtrs := make([]int, instruments)
	for i := range insPtrs {
		insPtrs[i] = p.u16("instrument parapointer") * 16
	}
	patPtrs := make([]int, patterns)
	for i := range patPtrs {
		patPtrs[i] = p.u16("pattern parapointer") * 16
	}
	instruments = min(instruments, song.InstrumentMaxCount)

	newDescription(pkg, name, "Scream Tracker 3", speed, tempo)
	d := &pkg.Description
	d.ChannelCount = channels
	d.InstrumentCount = instruments
	alternatePans(d)
	d.PatternPointers = orderList(orders, patterns, 0)

	p.startStage("instrument")
	for i := 0; i < instruments; i++ {
		p.stageIndex = i
		if p.s3mInstrument(&pkg.Instruments[i], insPtrs[i], signed) {
			d.SampleCount++
		}
	}

	p.startStage("pattern")
	pkg.Patterns = make([]*song.Pattern, patterns)
	for i := range pkg.Patterns {
		p.stageIndex = i
		pkg.Patterns[i] = p.s3mPattern(patPtrs[i], channels)
	}
}

// s3mInstrument decodes one instrument record. Only uncompressed PCM
// instruments carry a sample; it reports whether one was loaded.
func (p *parser) s3mInstrument(in *song.Instrument, off int, signed bool) bool {
	p.seek(off, "instrument")
	p.need(80, "instrument header")
	kind := p.u8("instrument type")
	p.skip(12, "dos filename")
	ptrHi := p.u8("sample parapointer")
	ptrLo := p.u16("sample parapointer")
	length := p.u32("sample length")
	loopBegin := p.u32("loop begin")
	loopEnd := p.u32("loop end")
	volume := p.u8("volume")
	p.skip(1, "reserved")
	packed := p.u8("packing")
	flags := p.u8("flags")
	c2 := p.u32("c2 speed")
	p.skip(12, "reserved")
	in.Name = p.readString(28, "instrument name")
	sig := string(p.read(4, "instrument signature"))
	if kind != s3mPCM || packed != 0 || sig != "SCRS" {
		return false
	}

	s := &song.Sample{Name: in.Name, Volume: volume, C2Speed: c2, Length: length}
	if flags&s3mLoop != 0 {
		s.LoopStart = loopBegin
		s.LoopLength = loopEnd - loopBegin
	}
	p.seek(ptrHi<<20|ptrLo<<4, "sample data")
	if flags&s3mSample16 != 0 {
		s.Data16 = pcm16(p.read(length*2, "sample data"), signed)
	} else {
		s.Data8 = pcm8(p.read(length, "sample data"), signed)
	}
	finishSample(s)
	in.AddSample(s)
	return true
}

// s3mPattern decodes a packed 64-row pattern. A zero parapointer is an
// empty pattern.
func (p *parser) s3mPattern(off, channels int) *song.Pattern {
	pat := song.NewPattern(s3mRows, channels)
	if off == 0 {
		return pat
	}
	p.seek(off+2, "pattern data")
	for row := 0; row < s3mRows; {
		what := p.u8("channel flags")
		if what == 0 {
			row++
			continue
		}
		var note, inst, cmd, arg int
		vol := song.VolumeUnused
		if what&0x20 != 0 {
			note = p.u8("note")
			inst = p.u8("instrument")
		}
		if what&0x40 != 0 {
			vol = min(p.u8("volume"), song.MaxVolume) + 0x10
		}
		if what&0x80 != 0 {
			cmd = p.u8("effect")
			arg = p.u8("effect argument")
		}

		cell := pat.Cell(row, what&0x1F)
		if cell == nil {
			continue
		}
		if what&0x20 != 0 {
			cell.Note = s3mNote(note)
			cell.Instrument = uint8(inst)
		}
		cell.Volume = uint8(vol)
		if what&0x80 != 0 && cmd != 255 {
			cell.Effect, cell.Arg = letterEffect(cmd, arg)
		}
	}
	return pat
}

// s3mNote converts an octave/semitone byte. 254 is a note cut.
func s3mNote(b int) song.Note {
	switch b {
	case 254:
		return song.NoteOff
	case 255:
		return song.NoteUnused
	}
	n := (b>>4)*12 + (b & 0xF)
	if n >= int(song.NoteMax) {
		return song.NoteUnused
	}
	return song.Note(n)
}

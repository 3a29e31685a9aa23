package modfile

import (
	"encoding/binary"

	"github.com/cbegin/modseq-go/internal/song"
)

const (
	xmID               = "Extended Module: "
	xmVersion          = 0x0104
	xmHeaderSize       = 336
	xmSampleHeaderSize = 40
	xmKeyOff           = 97
	xmKeyOffEffect     = 0x14
)

// xmFineTune maps the signed finetune byte (in steps of 16) to a middle-C
// sample rate.
var xmFineTune = [16]int{
	7895, 7941, 7985, 8046, 8107, 8169, 8232, 8280,
	8363, 8413, 8463, 8529, 8581, 8651, 8723, 8757,
}

// ImportXM decodes a FastTracker II module (version 1.04).
func ImportXM(data []byte) (*song.Package, error) {
	p := newParser("xm", data)
	if !isXM(data) {
		return nil, p.unknown("not an XM 1.04 module")
	}
	pkg := song.New()
	if err := p.run(func() { p.parseXM(pkg) }); err != nil {
		return nil, err
	}
	return pkg, nil
}

func isXM(data []byte) bool {
	return len(data) >= xmHeaderSize && string(data[:len(xmID)]) == xmID &&
		binary.LittleEndian.Uint16(data[58:]) == xmVersion
}

func (p *parser) parseXM(pkg *song.Package) {
	p.startStage("header")
	p.seek(len(xmID), "module name")
	name := p.readString(20, "module name")
	p.skip(1, "magic byte")
	tracker := p.readString(20, "tracker name")
	p.skip(2, "version")
	headerSize := p.u32("header size")
	orderCount := p.u16("song length")
	p.skip(2, "restart position")
	channels := p.u16("number of channels")
	patterns := p.u16("number of patterns")
	instruments := p.u16("number of instruments")
	p.skip(2, "flags")
	speed := p.u16("default tempo")
	tempo := p.u16("default bpm")
	orders := p.read(256, "pattern order table")

	if channels == 0 || channels > song.TrackMaxCount {
		p.fail("invalid number of channels: %d", channels)
	}
	if patterns == 0 || patterns > 256 {
		p.fail("invalid number of patterns: %d", patterns)
	}
	orderCount = min(orderCount, len(orders))
	instruments = min(instruments, song.InstrumentMaxCount)

	newDescription(pkg, name, tracker, speed, tempo)
	d := &pkg.Description
	d.ChannelCount = channels
	d.InstrumentCount = instruments
	alternatePans(d)
	d.PatternPointers = make([]int, orderCount)
	for i := range d.PatternPointers {
		d.PatternPointers[i] = min(int(orders[i]), patterns-1)
	}

	p.seek(60+headerSize, "pattern data")
	p.startStage("pattern")
	pkg.Patterns = make([]*song.Pattern, patterns)
	for i := range pkg.Patterns {
		p.stageIndex = i
		pkg.Patterns[i] = p.xmPattern(channels)
	}

	p.startStage("instrument")
	for i := 0; i < instruments; i++ {
		p.stageIndex = i
		d.SampleCount += p.xmInstrument(&pkg.Instruments[i])
	}
}

func (p *parser) xmPattern(channels int) *song.Pattern {
	start := p.offset
	size := p.u32("pattern header length")
	p.skip(1, "packing type")
	rows := p.u16("number of rows")
	packed := p.u16("packed pattern data size")
	if size < 9 {
		p.fail("invalid pattern header length: %d", size)
	}
	if rows > 256 {
		p.fail("invalid number of rows: %d", rows)
	}
	if rows == 0 {
		rows = 64
	}
	p.seek(start+size, "pattern data")

	pat := song.NewPattern(rows, channels)
	if packed == 0 {
		return pat
	}
	p.need(packed, "packed pattern data")
	end := p.offset + packed
	for row := 0; row < rows; row++ {
		for ch := 0; ch < channels; ch++ {
			*pat.Cell(row, ch) = p.xmCell()
		}
	}
	p.offset = end
	return pat
}

// xmCell reads one note slot. A leading byte with the high bit set is a
// mask of the fields that follow; otherwise it is the note and every field
// is present.
func (p *parser) xmCell() song.Command {
	var note, inst int
	vol, eff, arg := song.VolumeUnused, -1, -1
	b := p.u8("pattern note")
	if b&0x80 != 0 {
		if b&0x01 != 0 {
			note = p.u8("pattern note")
		}
		if b&0x02 != 0 {
			inst = p.u8("pattern instrument")
		}
		if b&0x04 != 0 {
			vol = p.u8("pattern volume")
		}
		if b&0x08 != 0 {
			eff = p.u8("effect type")
		}
		if b&0x10 != 0 {
			arg = p.u8("effect parameter")
		}
	} else {
		note = b
		inst = p.u8("pattern instrument")
		vol = p.u8("pattern volume")
		eff = p.u8("effect type")
		arg = p.u8("effect parameter")
	}

	cmd := song.EmptyCommand()
	cmd.Instrument = uint8(inst)
	cmd.Volume = uint8(vol)
	switch {
	case note == xmKeyOff:
		cmd.Note = song.NoteOff
	case note > 0 && note < xmKeyOff:
		cmd.Note = song.Note(note - 1)
	}
	if arg < 0 {
		arg = 0
	}
	switch {
	case eff == xmKeyOffEffect:
		cmd.Note = song.NoteOff
		cmd.Instrument = 0
	case eff >= 0 && eff < 0x10 && (eff != 0 || arg != 0):
		cmd.Effect = song.Effect(eff)
		cmd.Arg = uint8(arg)
	}
	return cmd
}

type xmSampleHeader struct {
	length     int
	loopStart  int
	loopLength int
	volume     int
	fineTune   int
	flags      int
	panning    int
	relative   int
	name       string
}

const (
	xmLoopForward  = 0x01
	xmLoopPingPong = 0x02
	xmSample16     = 0x10
)

// xmInstrument decodes one instrument with its sample headers and data and
// returns the number of samples kept.
func (p *parser) xmInstrument(in *song.Instrument) int {
	base := p.offset
	size := p.u32("instrument header size")
	in.Name = p.readString(22, "instrument name")
	p.skip(1, "instrument type")
	count := p.u16("number of samples")
	if count == 0 {
		p.seek(base+max(size, p.offset-base), "instrument end")
		return 0
	}

	headerSize := max(p.u32("sample header size"), xmSampleHeaderSize)
	for i := range in.WhichSample {
		in.WhichSample[i] = uint8(p.u8("keymap"))
	}
	for i := range in.VolumeEnv.Points {
		in.VolumeEnv.Points[i] = song.EnvelopeMarker{
			Position: p.u16("volume envelope position"),
			Volume:   p.u16("volume envelope value"),
		}
	}
	for i := range in.PanningEnv.Points {
		in.PanningEnv.Points[i] = song.EnvelopeMarker{
			Position: p.u16("panning envelope position"),
			Volume:   p.u16("panning envelope value"),
		}
	}
	volCount := p.u8("volume envelope points")
	panCount := p.u8("panning envelope points")
	volSustain, volBegin, volEnd := p.u8("volume sustain"), p.u8("volume loop start"), p.u8("volume loop end")
	panSustain, panBegin, panEnd := p.u8("panning sustain"), p.u8("panning loop start"), p.u8("panning loop end")
	volFlags := p.u8("volume type")
	panFlags := p.u8("panning type")
	xmEnvelope(&in.VolumeEnv, volCount, volSustain, volBegin, volEnd, volFlags)
	xmEnvelope(&in.PanningEnv, panCount, panSustain, panBegin, panEnd, panFlags)
	in.VibratoType = p.u8("vibrato type")
	in.VibratoSweep = p.u8("vibrato sweep")
	in.VibratoDepth = p.u8("vibrato depth")
	in.VibratoRate = p.u8("vibrato rate")
	in.FadeSpeed = p.u16("volume fadeout")

	p.seek(base+size, "sample headers")
	headers := make([]xmSampleHeader, count)
	for i := range headers {
		at := p.offset
		h := &headers[i]
		h.length = p.u32("sample length")
		h.loopStart = p.u32("sample loop start")
		h.loopLength = p.u32("sample loop length")
		h.volume = p.u8("sample volume")
		h.fineTune = p.s8("sample finetune")
		h.flags = p.u8("sample type")
		h.panning = p.u8("sample panning")
		h.relative = p.s8("sample relative note")
		p.skip(1, "sample encoding")
		h.name = p.readString(22, "sample name")
		p.seek(at+headerSize, "sample header")
	}

	for i := range headers {
		h := &headers[i]
		raw := p.read(h.length, "sample data")
		s := &song.Sample{
			Name:         h.name,
			Volume:       h.volume,
			Panning:      h.panning >> 2,
			C2Speed:      xmFineTune[(h.fineTune+128)/16],
			RelativeNote: h.relative,
		}
		if h.flags&xmSample16 != 0 {
			s.Data16 = delta16(raw)
			s.Length = len(s.Data16)
			s.LoopStart = h.loopStart / 2
			s.LoopLength = h.loopLength / 2
		} else {
			s.Data8 = delta8(raw)
			s.Length = len(s.Data8)
			s.LoopStart = h.loopStart
			s.LoopLength = h.loopLength
		}
		if h.flags&xmLoopPingPong != 0 {
			s.Loop = song.LoopPingPong
		}
		if h.flags&(xmLoopForward|xmLoopPingPong) == 0 {
			s.LoopStart = 0
			s.LoopLength = 0
		}
		finishSample(s)
		in.AddSample(s)
	}
	return in.NumberSamples()
}

func xmEnvelope(env *song.Envelope, count, sustain, begin, end, flags int) {
	env.Count = min(count, song.EnvelopeMaxCount)
	last := max(env.Count-1, 0)
	env.Sustain = min(sustain, last)
	env.LoopBegin = min(begin, last)
	env.LoopEnd = min(end, last)
	env.Flags = song.EnvelopeFlag(flags) & (song.EnvelopeOn | song.EnvelopeSustain | song.EnvelopeLoop)
}

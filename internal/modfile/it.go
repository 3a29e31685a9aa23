package modfile

import "github.com/cbegin/modseq-go/internal/song"

const (
	itHeaderSize = 192
	itEmptyRows  = 64
	itKeymapSize = 120

	itUseInstruments = 0x04

	itSampleData       = 0x01
	itSample16         = 0x02
	itSampleCompressed = 0x08
	itSampleLoop       = 0x10
	itSamplePingPong   = 0x40
	itConvertSigned    = 0x01

	itNoteOff = 255
)

// ImportIT decodes an Impulse Tracker module in either instrument or
// sample mode.
func ImportIT(data []byte) (*song.Package, error) {
	p := newParser("it", data)
	if !isIT(data) {
		return nil, p.unknown("missing IMPM signature")
	}
	pkg := song.New()
	if err := p.run(func() { p.parseIT(pkg) }); err != nil {
		return nil, err
	}
	return pkg, nil
}

func isIT(data []byte) bool {
	return len(data) >= itHeaderSize && string(data[:4]) == "IMPM"
}

func (p *parser) parseIT(pkg *song.Package) {
	p.startStage("header")
	p.seek(4, "song name")
	name := p.readString(26, "song name")
	p.skip(2, "pattern highlight")
	orderCount := p.u16("order count")
	instruments := p.u16("instrument count")
	samples := p.u16("sample count")
	patterns := p.u16("pattern count")
	p.skip(4, "tracker version")
	flags := p.u16("flags")
	p.skip(4, "special flags and volumes")
	speed := p.u8("initial speed")
	tempo := p.u8("initial tempo")
	p.seek(64, "channel pans")
	pans := p.read(64, "channel pans")
	volumes := p.read(64, "channel volumes")

	p.startStage("orders")
	orders := p.read(orderCount, "order table")
	insPtrs := p.offsets(instruments, "instrument offset")
	smpPtrs := p.offsets(samples, "sample offset")
	patPtrs := p.offsets(patterns, "pattern offset")

	newDescription(pkg, name, "Impulse Tracker", speed, tempo)
	d := &pkg.Description
	d.PatternPointers = orderList(orders, patterns, 0)
	for i := range d.ChannelPans {
		if i < len(pans) {
			d.ChannelPans[i] = itPan(pans[i])
			d.ChannelVolumes[i] = min(int(volumes[i]), song.MaxVolume)
			continue
		}
		d.ChannelPans[i] = song.MaxPan/4 + (i&1)*(song.MaxPan/2)
		d.ChannelVolumes[i] = song.MaxVolume
	}

	if flags&itUseInstruments != 0 {
		p.startStage("instrument")
		d.InstrumentCount = min(instruments, song.InstrumentMaxCount)
		for i := 0; i < d.InstrumentCount; i++ {
			p.stageIndex = i
			d.SampleCount += p.itInstrument(&pkg.Instruments[i], insPtrs[i], smpPtrs)
		}
	} else {
		p.startStage("sample")
		d.InstrumentCount = min(samples, song.InstrumentMaxCount)
		for i := 0; i < d.InstrumentCount; i++ {
			p.stageIndex = i
			s := p.itSample(smpPtrs[i])
			in := &pkg.Instruments[i]
			in.Name = s.Name
			if s.Length > 0 {
				in.AddSample(s)
				d.SampleCount++
			}
		}
	}

	p.startStage("pattern")
	channels := 0
	for i, off := range patPtrs {
		if off == 0 {
			continue
		}
		p.stageIndex = i
		p.itCells(off, func(_, ch int, _ *itCell) { channels = max(channels, ch) })
	}
	channels = (channels + 2) &^ 1
	d.ChannelCount = channels

	pkg.Patterns = make([]*song.Pattern, patterns)
	for i, off := range patPtrs {
		p.stageIndex = i
		if off == 0 {
			pkg.Patterns[i] = song.NewPattern(itEmptyRows, channels)
			continue
		}
		pat := song.NewPattern(p.u16At(off+2, "number of rows"), channels)
		p.itCells(off, func(row, ch int, c *itCell) {
			if cell := pat.Cell(row, ch); cell != nil {
				c.apply(cell)
			}
		})
		pkg.Patterns[i] = pat
	}
}

func (p *parser) offsets(n int, what string) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = p.u32(what)
	}
	return out
}

// itPan converts a header pan byte. Disabled channels keep their position;
// surround and out-of-range values center.
func itPan(b byte) int {
	v := int(b & 0x7F)
	if v > song.MaxPan {
		return song.MaxPan / 2
	}
	return v
}

// itInstrument builds an instrument from its keymap, loading each distinct
// sample it references once. It returns the number of samples kept.
func (p *parser) itInstrument(in *song.Instrument, off int, smpPtrs []int) int {
	p.seek(off, "instrument header")
	if string(p.read(4, "instrument signature")) != "IMPI" {
		p.fail("bad instrument signature")
	}
	p.seek(off+32, "instrument name")
	in.Name = p.readString(26, "instrument name")
	p.seek(off+64, "keymap")
	keymap := p.read(itKeymapSize*2, "keymap")

	local := make(map[int]int)
	for note := 0; note < int(song.NoteMax); note++ {
		smp := int(keymap[note*2+1])
		if smp == 0 || len(smpPtrs) == 0 {
			continue
		}
		smp = min(smp, len(smpPtrs)) - 1
		idx, ok := local[smp]
		if !ok {
			if !in.AddSample(p.itSample(smpPtrs[smp])) {
				continue
			}
			idx = in.NumberSamples() - 1
			local[smp] = idx
		}
		in.WhichSample[note] = uint8(idx)
	}
	return in.NumberSamples()
}

// itSample decodes a sample header and its PCM data. Compressed samples
// load with no data.
func (p *parser) itSample(off int) *song.Sample {
	p.seek(off, "sample header")
	p.need(80, "sample header")
	if string(p.read(4, "sample signature")) != "IMPS" {
		p.fail("bad sample signature")
	}
	p.skip(13, "dos filename")
	volume := p.u8("global volume")
	flags := p.u8("sample flags")
	p.skip(1, "default volume")
	name := p.readString(26, "sample name")
	convert := p.u8("conversion flags")
	p.skip(1, "default pan")
	length := p.u32("sample length")
	loopBegin := p.u32("loop begin")
	loopEnd := p.u32("loop end")
	c5 := p.u32("c5 speed")
	p.skip(8, "sustain loop")
	dataOff := p.u32("sample offset")

	s := &song.Sample{Name: name, Volume: volume, C2Speed: c5, RelativeNote: -12}
	if flags&itSampleLoop != 0 {
		s.LoopStart = loopBegin
		s.LoopLength = loopEnd - loopBegin
		if flags&itSamplePingPong != 0 {
			s.Loop = song.LoopPingPong
		}
	}
	if flags&itSampleData == 0 || flags&itSampleCompressed != 0 {
		length = 0
	}
	s.Length = length
	if length > 0 {
		signed := convert&itConvertSigned != 0
		p.seek(dataOff, "sample data")
		if flags&itSample16 != 0 {
			s.Data16 = pcm16(p.read(length*2, "sample data"), signed)
		} else {
			s.Data8 = pcm8(p.read(length, "sample data"), signed)
		}
	}
	finishSample(s)
	return s
}

// itCell is one decoded pattern slot; mask says which fields are present,
// either read fresh (low nibble) or recalled from the channel (high nibble).
type itCell struct {
	mask       int
	note       int
	instrument int
	volume     int
	command    int
	arg        int
}

func (c *itCell) apply(cmd *song.Command) {
	if c.mask&0x11 != 0 {
		cmd.Note = itNote(c.note)
	}
	if c.mask&0x22 != 0 {
		cmd.Instrument = uint8(c.instrument)
	}
	if c.mask&0x44 != 0 {
		cmd.Volume = uint8(min(c.volume, song.MaxVolume) + 0x10)
	} else {
		cmd.Volume = song.VolumeUnused
	}
	if c.mask&0x88 != 0 {
		cmd.Effect, cmd.Arg = letterEffect(c.command, c.arg)
	}
}

func itNote(n int) song.Note {
	switch {
	case n == itNoteOff:
		return song.NoteOff
	case n >= int(song.NoteMax):
		return song.NoteUnused
	}
	return song.Note(n)
}

// itCells walks a packed pattern, calling fn for every slot. Per-channel
// masks and field values persist across rows. The walk must consume
// exactly the stated pattern length.
func (p *parser) itCells(off int, fn func(row, ch int, c *itCell)) {
	p.seek(off, "pattern header")
	length := p.u16("pattern length")
	rows := p.u16("number of rows")
	p.skip(4, "reserved")
	start := p.offset
	p.need(length, "pattern data")

	var masks [64]int
	var last [64]itCell
	for row := 0; row < rows; {
		b := p.u8("channel marker")
		if b == 0 {
			row++
			continue
		}
		ch := (b - 1) & 63
		if b&0x80 != 0 {
			masks[ch] = p.u8("channel mask")
		}
		mask := masks[ch]
		prev := &last[ch]
		if mask&0x01 != 0 {
			prev.note = p.u8("note")
		}
		if mask&0x02 != 0 {
			prev.instrument = p.u8("instrument")
		}
		if mask&0x04 != 0 {
			prev.volume = p.u8("volume")
		}
		if mask&0x08 != 0 {
			prev.command = p.u8("effect")
			prev.arg = p.u8("effect argument")
		}
		c := *prev
		c.mask = mask
		fn(row, ch, &c)
	}
	if n := p.offset - start; n != length {
		p.fail("pattern data is %d bytes, header says %d", n, length)
	}
}

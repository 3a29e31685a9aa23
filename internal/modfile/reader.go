// Package modfile decodes tracker module files (XM, S3M and IT) into the
// song package consumed by the sequencer.
package modfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cbegin/modseq-go/internal/song"
)

// ParseError reports where a module failed to decode. It unwraps to the
// song sentinel that matches Code.
type ParseError struct {
	Format  string
	Stage   string
	Offset  int
	Code    song.ImportCode
	Message string
}

func (e *ParseError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s (offset=%d)", e.Format, e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s: %s (offset=%d)", e.Format, e.Stage, e.Message, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Code.Err() }

// parser is a little-endian cursor over a module image. Every read that
// runs past the data panics with a truncation *ParseError; run recovers it.
type parser struct {
	format string
	data   []byte
	offset int

	// Stage tags for error reporting.
	stage      string
	stageIndex int
}

func newParser(format string, data []byte) *parser {
	return &parser{format: format, data: data, stageIndex: -1}
}

func (p *parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
}

func (p *parser) formatStage() string {
	if p.stageIndex < 0 {
		return p.stage
	}
	return fmt.Sprintf("%s[%d]", p.stage, p.stageIndex)
}

func (p *parser) errorf(code song.ImportCode, format string, args ...any) *ParseError {
	return &ParseError{
		Format:  p.format,
		Stage:   p.formatStage(),
		Offset:  p.offset,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) fail(format string, args ...any) {
	panic(p.errorf(song.ImportBadFile, format, args...))
}

// run calls fn and converts a parser panic into its error.
func (p *parser) run(fn func()) (err error) {
	defer func() {
		rv := recover()
		if rv == nil {
			return
		}
		if perr, ok := rv.(*ParseError); ok {
			err = perr
			return
		}
		panic(rv)
	}()
	fn()
	return nil
}

func (p *parser) unknown(format string, args ...any) error {
	return p.errorf(song.ImportUnknown, format, args...)
}

func (p *parser) remaining() int { return len(p.data) - p.offset }

func (p *parser) need(n int, what string) {
	if n < 0 || p.remaining() < n {
		panic(p.errorf(song.ImportTruncation, "unexpected EOF while reading %s", what))
	}
}

// seek moves the cursor to an absolute offset.
func (p *parser) seek(off int, what string) {
	if off < 0 || off > len(p.data) {
		panic(p.errorf(song.ImportTruncation, "%s offset %d outside %d bytes", what, off, len(p.data)))
	}
	p.offset = off
}

func (p *parser) skip(n int, what string) {
	p.need(n, what)
	p.offset += n
}

func (p *parser) read(n int, what string) []byte {
	p.need(n, what)
	b := p.data[p.offset : p.offset+n]
	p.offset += n
	return b
}

func (p *parser) readString(n int, what string) string {
	return cstring(p.read(n, what))
}

func (p *parser) u8(what string) int {
	p.need(1, what)
	b := p.data[p.offset]
	p.offset++
	return int(b)
}

func (p *parser) s8(what string) int {
	return int(int8(p.u8(what)))
}

func (p *parser) u16(what string) int {
	p.need(2, what)
	v := binary.LittleEndian.Uint16(p.data[p.offset:])
	p.offset += 2
	return int(v)
}

func (p *parser) u32(what string) int {
	p.need(4, what)
	v := binary.LittleEndian.Uint32(p.data[p.offset:])
	p.offset += 4
	return int(v)
}

// u8At, u16At and u32At read at an absolute offset and leave the cursor
// where it was.
func (p *parser) u8At(off int, what string) int {
	save := p.offset
	p.seek(off, what)
	v := p.u8(what)
	p.offset = save
	return v
}

func (p *parser) u16At(off int, what string) int {
	save := p.offset
	p.seek(off, what)
	v := p.u16(what)
	p.offset = save
	return v
}

func (p *parser) u32At(off int, what string) int {
	save := p.offset
	p.seek(off, what)
	v := p.u32(what)
	p.offset = save
	return v
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), " ")
}

// newDescription fills the song-wide defaults shared by every format.
func newDescription(pkg *song.Package, name, tracker string, speed, tempo int) {
	d := &pkg.Description
	d.Name = name
	d.Tracker = tracker
	d.Speed = speed
	d.Tempo = tempo
	d.MasterVolume = song.MaxVolume
	d.MasterSpeed = song.DefaultMaster
	d.MasterPitch = song.DefaultMaster
}

// alternatePans spreads channels left/right in the LRRL tracker layout.
func alternatePans(d *song.Description) {
	for i := range d.ChannelPans {
		d.ChannelPans[i] = song.MaxPan/4 + ((i+1)>>1&1)*(song.MaxPan/2)
		d.ChannelVolumes[i] = song.MaxVolume
	}
}

// finishSample clamps the loop into the data and drops loops too short to
// play.
func finishSample(s *song.Sample) {
	if s.Volume > song.MaxVolume {
		s.Volume = song.MaxVolume
	}
	if s.LoopStart < 0 || s.LoopStart >= s.Length || s.LoopLength <= 0 {
		s.LoopStart = 0
		s.LoopLength = 0
		return
	}
	if s.LoopStart+s.LoopLength > s.Length {
		s.LoopLength = s.Length - s.LoopStart
	}
	if !s.Looped() {
		s.LoopStart = 0
		s.LoopLength = 0
	}
}

// pcm8 converts raw 8-bit data, flipping the sign bit of unsigned input.
func pcm8(raw []byte, signed bool) []int8 {
	out := make([]int8, len(raw))
	for i, b := range raw {
		if !signed {
			b ^= 0x80
		}
		out[i] = int8(b)
	}
	return out
}

// pcm16 converts raw little-endian 16-bit data.
func pcm16(raw []byte, signed bool) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		v := binary.LittleEndian.Uint16(raw[i*2:])
		if !signed {
			v ^= 0x8000
		}
		out[i] = int16(v)
	}
	return out
}

// delta8 and delta16 undo the running-sum coding used by XM sample data.
func delta8(raw []byte) []int8 {
	out := make([]int8, len(raw))
	var acc uint8
	for i, b := range raw {
		acc += b
		out[i] = int8(acc)
	}
	return out
}

func delta16(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	var acc uint16
	for i := range out {
		acc += binary.LittleEndian.Uint16(raw[i*2:])
		out[i] = int16(acc)
	}
	return out
}

// letterEffect maps an S3M/IT letter command (1 = 'A') and argument onto
// the sequencer's effect set. Unsupported commands become EffectNone.
func letterEffect(cmd, arg int) (song.Effect, uint8) {
	hi, lo := arg>>4, arg&0xF
	switch rune(cmd + 0x40) {
	case 'A', 'T':
		return song.EffectSpeed, uint8(arg)
	case 'B':
		return song.EffectFastSkip, uint8(arg)
	case 'C':
		return song.EffectSkip, uint8(arg)
	case 'D':
		switch {
		case lo == 0 || hi == 0:
			return song.EffectSlideVolume, uint8(arg)
		case hi == 0xF:
			return song.EffectExtended, uint8(0xB0 + lo)
		case lo == 0xF:
			return song.EffectExtended, uint8(0xA0 + hi)
		}
	case 'E':
		switch hi {
		case 0xF:
			return song.EffectExtended, uint8(0x20 + lo)
		case 0xE:
		default:
			return song.EffectUpSlide, uint8(arg)
		}
	case 'F':
		switch hi {
		case 0xF:
			return song.EffectExtended, uint8(0x10 + lo)
		case 0xE:
		default:
			return song.EffectDownSlide, uint8(arg)
		}
	case 'G':
		return song.EffectPortamento, uint8(arg)
	case 'H':
		return song.EffectVibrato, uint8(arg)
	case 'J':
		return song.EffectArpeggio, uint8(arg)
	case 'K':
		return song.EffectVibratoSlide, uint8(arg)
	case 'L':
		return song.EffectPortaSlide, uint8(arg)
	case 'O':
		return song.EffectOffset, uint8(arg)
	case 'S':
		if sub, ok := specialEffects[hi]; ok {
			return song.EffectExtended, uint8(sub<<4 + lo)
		}
	}
	return song.EffectNone, 0
}

// specialEffects maps S-command sub-codes onto EXTENDED sub-codes.
var specialEffects = map[int]int{
	0x2: 0x5, // finetune
	0x3: 0x4, // vibrato waveform
	0x4: 0x7, // tremolo waveform
	0xB: 0x6, // pattern loop
	0xC: 0xC, // note cut
	0xD: 0xD, // note delay
	0xE: 0xE, // pattern delay
}

// orderList converts a raw order table, skipping marker entries (254) and
// stopping at the end marker (255). Entries past the pattern table become
// fallback.
func orderList(raw []byte, patterns, fallback int) []int {
	orders := make([]int, 0, len(raw))
	for _, o := range raw {
		if o == 255 {
			break
		}
		if o == 254 {
			continue
		}
		v := int(o)
		if v >= patterns {
			v = fallback
		}
		orders = append(orders, v)
		if len(orders) == song.PointerMaxCount {
			break
		}
	}
	return orders
}

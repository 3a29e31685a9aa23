package modseq

import (
	"encoding/binary"
	"testing"

	intaudio "github.com/cbegin/modseq-go/internal/audio"
	intseq "github.com/cbegin/modseq-go/internal/sequencer"
	"github.com/cbegin/modseq-go/internal/song"
)

// toneSong builds a one-pattern song that plays a looping square wave on
// the first channel from row 0.
func toneSong(rows int) *song.Package {
	data := make([]int8, 2000)
	for i := range data {
		if (i/16)%2 == 0 {
			data[i] = 100
		} else {
			data[i] = -100
		}
	}
	pkg := song.New()
	pat := song.NewPattern(rows, 2)
	cell := pat.Cell(0, 0)
	cell.Note = song.NoteMid
	cell.Instrument = 1
	pkg.Patterns = []*song.Pattern{pat}
	pkg.Description.PatternPointers = []int{0}
	pkg.Description.ChannelCount = 2
	pkg.Instrument(0).AddSample(&song.Sample{
		Data8:      data,
		Length:     len(data),
		LoopLength: len(data),
		C2Speed:    song.AmigaFrequency,
		Volume:     song.MaxVolume,
	})
	return pkg
}

func energy(buf []int16) int64 {
	var e int64
	for _, v := range buf {
		x := int64(v)
		e += max(x, -x)
	}
	return e
}

func TestPlayerMasterVolumeRuntimeAPI(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if got := pl.MasterVolume(); got != 1 {
		t.Fatalf("default master volume = %v, want 1", got)
	}
	pl.SetMasterVolume(0.5)
	if got := pl.MasterVolume(); got != 0.5 {
		t.Fatalf("master volume = %v, want 0.5", got)
	}
	if got := pl.Sequencer().Volume(); got != 128 {
		t.Fatalf("sequencer volume = %d, want 128", got)
	}
	pl.SetMasterVolume(-2)
	if got := pl.MasterVolume(); got != 0 {
		t.Fatalf("master volume should clamp to 0, got %v", got)
	}
	pl.SetMasterVolume(3)
	if got := pl.Sequencer().Volume(); got != intseq.MaxVolume {
		t.Fatalf("sequencer volume = %d, want %d", got, intseq.MaxVolume)
	}
}

func TestMasterVolumeSurvivesSongStart(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	pl.SetMasterVolume(0.5)
	pkg := toneSong(4)
	pkg.Description.MasterVolume = 16
	if err := pl.startSong(pkg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := pl.Sequencer().Volume(); got != 128 {
		t.Fatalf("sequencer volume after song start = %d, want 128", got)
	}
	if got := pl.MasterVolume(); got != 0.5 {
		t.Fatalf("master volume = %v, want 0.5", got)
	}
	if err := pl.startSong(toneSong(4)); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := pl.Sequencer().Volume(); got != 128 {
		t.Fatalf("sequencer volume after second song = %d, want 128", got)
	}
}

func TestNewPlayerValidates(t *testing.T) {
	if _, err := NewPlayer(1000); err == nil {
		t.Fatal("expected error for a sample rate below the minimum")
	}
	if _, err := NewPlayer(44100, WithBackend("alsa")); err == nil {
		t.Fatal("expected error for an unknown backend")
	}
}

func TestNewPlayerAppliesOptions(t *testing.T) {
	pl, err := NewPlayer(22050,
		WithBackend(intaudio.BackendOto),
		WithOutputFormat(intseq.FormatU8),
		WithMaxVoices(8),
		WithBufferFrames(512),
	)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	seq := pl.Sequencer()
	if seq.SampleRate() != 22050 || seq.Format() != intseq.FormatU8 {
		t.Fatalf("sequencer = %d Hz %v", seq.SampleRate(), seq.Format())
	}
	if seq.MaxVoices() != 8 || seq.BufferFrames() != 512 {
		t.Fatalf("voices = %d, frames = %d", seq.MaxVoices(), seq.BufferFrames())
	}
	if n := len(seq.Importers()); n != 3 {
		t.Fatalf("importers = %d, want 3", n)
	}
}

func TestIdlePlayerControls(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	pl.Pause()
	pl.Resume()
	pl.Wait()
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := pl.PlaybackPosition(); got != 0 {
		t.Fatalf("position = %d, want 0", got)
	}
	if err := pl.Play(nil); err != intseq.ErrNilSong {
		t.Fatalf("Play(nil) = %v, want ErrNilSong", err)
	}
	if err := pl.PlayBytes([]byte("junk")); err == nil {
		t.Fatal("expected import error")
	}
}

func TestHandleEventFinishesSource(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	events := pl.Watch()
	src := newPCMSource(pl.Sequencer(), nil)
	pl.source.Store(src)
	pl.done = make(chan struct{})

	pl.handleEvent(EventSongLooped)
	if src.Finished() {
		t.Fatal("a loop should not finish the source")
	}
	pl.handleEvent(EventPlaybackEnded)
	if !src.Finished() {
		t.Fatal("source should be finished")
	}
	pl.Wait()

	for _, want := range []EventKind{EventSongLooped, EventPlaybackEnded} {
		select {
		case ev := <-events:
			if ev.Kind != want {
				t.Fatalf("event = %v, want %v", ev.Kind, want)
			}
		default:
			t.Fatalf("missing event %v", want)
		}
	}
}

func TestSendEventDropsWhenFull(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	events := pl.Watch()
	for i := 0; i < 20; i++ {
		pl.sendEvent(PlaybackEvent{Kind: EventSongLooped})
	}
	if n := len(events); n != cap(events) {
		t.Fatalf("queued %d events, want %d", n, cap(events))
	}
}

func TestPCMSourceCountsFramesAndTaps(t *testing.T) {
	seq := intseq.NewWithOptions(intseq.Options{BufferFrames: 300, MaxVoices: 2, Repeat: true})
	if err := seq.Play(toneSong(16)); err != nil {
		t.Fatalf("play: %v", err)
	}
	var tapped int
	src := newPCMSource(seq, func(buf []int16) { tapped += len(buf) })
	dst := make([]int16, 1000)
	src.Process(dst)
	src.Process(dst)
	if got := src.frames.Load(); got != 1000 {
		t.Fatalf("frames = %d, want 1000", got)
	}
	if tapped != 2000 {
		t.Fatalf("tapped %d samples, want 2000", tapped)
	}
	if energy(dst) == 0 {
		t.Fatal("expected audio from the source")
	}
}

func TestDecodePCM(t *testing.T) {
	tests := []struct {
		name   string
		format intseq.OutputFormat
		raw    []byte
		want   []int16
	}{
		{"u8", intseq.FormatU8, []byte{0x80, 0xFF, 0x00, 0x81}, []int16{0, 127 << 8, -128 << 8, 1 << 8}},
		{"s16le", intseq.FormatS16LE, binary.LittleEndian.AppendUint16([]byte{0x34, 0x12}, 0xFFFE), []int16{0x1234, -2}},
		{"s16be", intseq.FormatS16BE, binary.BigEndian.AppendUint16([]byte{0x12, 0x34}, 0xFFFE), []int16{0x1234, -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int16, len(tt.want))
			decodePCM(tt.format, tt.raw, got)
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("sample %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

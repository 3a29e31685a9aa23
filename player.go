// Package modseq plays XM, S3M and IT tracker modules through a pluggable
// audio backend, and renders them offline.
package modseq

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/modseq-go/internal/audio"
	"github.com/cbegin/modseq-go/internal/debug"
	"github.com/cbegin/modseq-go/internal/modfile"
	intseq "github.com/cbegin/modseq-go/internal/sequencer"
	"github.com/cbegin/modseq-go/internal/song"
)

// EventKind identifies a playback event delivered by Watch.
type EventKind = intseq.EventKind

const (
	EventSongLooped    = intseq.EventSongLooped
	EventPlaybackEnded = intseq.EventPlaybackEnded
)

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind EventKind
}

// Position is a song cursor: order index, pattern number and row.
type Position = intseq.Position

// Import decodes a module in any supported format.
func Import(data []byte) (*song.Package, error) {
	return modfile.Import(data)
}

// ImportFile reads and decodes the module at path.
func ImportFile(path string) (*song.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Import(data)
}

type Player struct {
	mu     sync.Mutex
	cfg    playerConfig
	seq    *intseq.Sequencer
	out    intaudio.Output
	source atomic.Pointer[pcmSource]
	volume float64

	// doneMu and eventChMu are taken from the audio thread while the
	// sequencer is locked; neither is held across a sequencer call.
	doneMu    sync.Mutex
	done      chan struct{}
	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate < intseq.MinSampleRate || sampleRate > intseq.MaxSampleRate {
		return nil, fmt.Errorf("sample rate %d outside %d..%d", sampleRate, intseq.MinSampleRate, intseq.MaxSampleRate)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := intaudio.ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	p := &Player{volume: 1}
	cfg.seq.SampleRate = sampleRate
	cfg.seq.OnEvent = p.handleEvent
	p.cfg = cfg
	p.seq = intseq.NewWithOptions(cfg.seq)
	if err := modfile.Register(p.seq); err != nil {
		return nil, err
	}
	return p, nil
}

// Sequencer exposes the underlying sequencer for inspection.
func (p *Player) Sequencer() *intseq.Sequencer { return p.seq }

func (p *Player) PlayBytes(data []byte) error {
	pkg, err := p.seq.ImportSong(data)
	if err != nil {
		return err
	}
	return p.Play(pkg)
}

func (p *Player) PlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.PlayBytes(data)
}

// Play starts pkg from its first order on a fresh output.
func (p *Player) Play(pkg *song.Package) error {
	if pkg == nil {
		return intseq.ErrNilSong
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced
	p.doneMu.Lock()
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	p.doneMu.Unlock()

	if p.out != nil {
		_ = p.out.Close()
		p.out = nil
	}
	if err := p.startSong(pkg); err != nil {
		return err
	}
	src := newPCMSource(p.seq, p.cfg.sampleTap)
	out, err := intaudio.Open(p.cfg.backend, p.seq.SampleRate(), p.cfg.latency, src)
	if err != nil {
		_ = p.seq.Stop()
		return err
	}
	p.source.Store(src)
	p.out = out
	debug.Log("audio", "%s output at %d Hz: %q", p.cfg.backend, p.seq.SampleRate(), pkg.Description.Name)
	out.Play()
	return nil
}

// startSong installs pkg from its first order. The song brings its own
// master volume, so the player's is put back on top of it.
func (p *Player) startSong(pkg *song.Package) error {
	if err := p.seq.Play(pkg); err != nil {
		return err
	}
	p.seq.SetVolume(int(p.volume*intseq.MaxVolume + 0.5))
	return nil
}

// handleEvent runs on the audio thread with the sequencer locked.
func (p *Player) handleEvent(kind intseq.EventKind) {
	if kind == intseq.EventPlaybackEnded {
		if src := p.source.Load(); src != nil {
			src.finished.Store(true)
		}
	}
	p.sendEvent(PlaybackEvent{Kind: kind})
	if kind == intseq.EventPlaybackEnded {
		p.signalDone()
	}
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.doneMu.Lock()
	done := p.done
	p.done = nil
	p.doneMu.Unlock()
	if done != nil {
		close(done)
	}
}

// Pause halts the sequencer and the device. Voices are silenced; Resume
// continues from the current row.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	_ = p.seq.Pause()
	p.out.Pause()
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	_ = p.seq.Resume()
	p.out.Play()
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	return p.seq.Paused()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.out == nil {
		p.mu.Unlock()
		return nil
	}
	out := p.out
	p.out = nil
	p.source.Store(nil)
	p.mu.Unlock()

	err := out.Close()
	p.seq.DisposeSong()
	debug.Log("audio", "%s output stopped", p.cfg.backend)
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	p.signalDone()
	return err
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks until Stop or the next Play (use Watch for loop counting).
// Wait returns immediately if no playback is active.
func (p *Player) Wait() {
	p.doneMu.Lock()
	done := p.done
	p.doneMu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events:
//   - EventSongLooped: the last order finished and the song restarted
//   - EventPlaybackEnded: the song finished without looping, or Stop was called
//
// The channel is buffered (cap 8) and events are dropped when it is full.
// Only the most recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets the output gain. 1.0 is full scale; values are
// clamped to [0, 1].
func (p *Player) SetMasterVolume(volume float64) {
	volume = max(0, min(volume, 1))
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	p.seq.SetVolume(int(volume*intseq.MaxVolume + 0.5))
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetLoopPlayback changes whether the song restarts after its last order.
func (p *Player) SetLoopPlayback(enabled bool) {
	p.seq.SetRepeat(enabled)
}

// Position returns the row the sequencer is reading. It runs ahead of what
// is audible by the device latency.
func (p *Player) Position() Position {
	return p.seq.Position()
}

// PlaybackPosition returns the output position in frames. The ebiten backend
// reports what the listener hears; the others report frames handed to the
// device. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return 0
	}
	if pl, ok := out.(interface{ Position() time.Duration }); ok {
		return int64(pl.Position().Seconds() * float64(p.seq.SampleRate()))
	}
	if src := p.source.Load(); src != nil {
		return src.frames.Load()
	}
	return 0
}

// Close stops playback and releases the sequencer.
func (p *Player) Close() error {
	err := p.Stop()
	p.seq.Shutdown()
	return err
}

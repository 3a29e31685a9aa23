package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Streamer adapts a SampleSource to beep.Streamer. It drains once the
// source has finished.
type Streamer struct {
	source SampleSource
	puller
}

func NewStreamer(source SampleSource) *Streamer {
	return &Streamer{source: source}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if finished(s.source) {
		return 0, false
	}
	buf, _ := s.pull(s.source, len(samples))
	for i := range samples {
		samples[i][0] = float64(buf[i*2]) / 32768
		samples[i][1] = float64(buf[i*2+1]) / 32768
	}
	return len(samples), true
}

func (s *Streamer) Err() error { return nil }

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate int
)

func initSpeaker(sampleRate int, buffer time.Duration) error {
	speakerOnce.Do(func() {
		speakerRate = sampleRate
		sr := beep.SampleRate(sampleRate)
		if err := speaker.Init(sr, sr.N(buffer)); err != nil {
			speakerErr = fmt.Errorf("speaker: %w", err)
		}
	})
	if speakerErr != nil {
		return speakerErr
	}
	if speakerRate != sampleRate {
		return fmt.Errorf("speaker already initialized at %d Hz (requested %d Hz)", speakerRate, sampleRate)
	}
	return nil
}

// BeepPlayer plays a SampleSource on the beep speaker. It starts paused.
type BeepPlayer struct {
	ctrl *beep.Ctrl
}

func NewBeepPlayer(sampleRate int, buffer time.Duration, source SampleSource) (*BeepPlayer, error) {
	if err := initSpeaker(sampleRate, buffer); err != nil {
		return nil, err
	}
	ctrl := &beep.Ctrl{Streamer: NewStreamer(source), Paused: true}
	speaker.Play(ctrl)
	return &BeepPlayer{ctrl: ctrl}, nil
}

func (p *BeepPlayer) Play() {
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
}

func (p *BeepPlayer) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

func (p *BeepPlayer) IsPlaying() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Streamer != nil && !p.ctrl.Paused
}

// Close detaches the streamer; the speaker drops it on its next pull.
func (p *BeepPlayer) Close() error {
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	return nil
}

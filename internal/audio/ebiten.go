package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	ebitenContextOnce sync.Once
	ebitenContext     *ebitaudio.Context
	ebitenSampleRate  int
)

// sharedEbitenContext returns the process-wide ebiten context. ebiten allows
// one context per process, so a second rate is an error.
func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	ebitenContextOnce.Do(func() {
		ebitenSampleRate = sampleRate
		ebitenContext = ebitaudio.NewContext(sampleRate)
	})
	if ebitenSampleRate != sampleRate {
		return nil, fmt.Errorf("ebiten context already initialized at %d Hz (requested %d Hz)", ebitenSampleRate, sampleRate)
	}
	return ebitenContext, nil
}

// EbitenPlayer plays a SampleSource through the ebiten audio context as
// float32 PCM.
type EbitenPlayer struct {
	player *ebitaudio.Player
}

func NewEbitenPlayer(sampleRate int, source SampleSource) (*EbitenPlayer, error) {
	ctx, err := sharedEbitenContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(NewStreamReader(source))
	if err != nil {
		return nil, fmt.Errorf("ebiten: %w", err)
	}
	return &EbitenPlayer{player: pl}, nil
}

func (p *EbitenPlayer) Play()           { p.player.Play() }
func (p *EbitenPlayer) Pause()          { p.player.Pause() }
func (p *EbitenPlayer) IsPlaying() bool { return p.player.IsPlaying() }

// Position is what the listener hears, behind the sequencer by the device
// latency.
func (p *EbitenPlayer) Position() time.Duration {
	return p.player.Position()
}

func (p *EbitenPlayer) Close() error {
	p.player.Pause()
	return p.player.Close()
}

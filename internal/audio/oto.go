package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
)

func sharedOtoContext(sampleRate int, buffer time.Duration) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   buffer,
		})
		if err != nil {
			otoContextErr = fmt.Errorf("oto: %w", err)
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

type sourceRef struct{ src SampleSource }

// OtoPlayer feeds 16-bit PCM straight to an oto player. The source can be
// swapped while playing; a nil source plays silence.
type OtoPlayer struct {
	mu     sync.Mutex
	player *oto.Player
	source atomic.Pointer[sourceRef]
	puller
}

func NewOtoPlayer(sampleRate int, buffer time.Duration, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate, buffer)
	if err != nil {
		return nil, err
	}
	op := &OtoPlayer{}
	op.SetSource(source)
	op.player = ctx.NewPlayer(op)
	return op, nil
}

func (op *OtoPlayer) SetSource(source SampleSource) {
	if source == nil {
		op.source.Store(nil)
		return
	}
	op.source.Store(&sourceRef{src: source})
}

// Read implements io.Reader for the oto player.
func (op *OtoPlayer) Read(p []byte) (int, error) {
	var src SampleSource
	if ref := op.source.Load(); ref != nil {
		src = ref.src
	}
	return op.read(p, src, int16LE)
}

func (op *OtoPlayer) Play() {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.player.Play()
}

func (op *OtoPlayer) Pause() {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.player.Pause()
}

func (op *OtoPlayer) IsPlaying() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.player.IsPlaying()
}

func (op *OtoPlayer) Close() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.player.Pause()
	return op.player.Close()
}

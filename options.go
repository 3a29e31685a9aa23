package modseq

import (
	"time"

	intaudio "github.com/cbegin/modseq-go/internal/audio"
	intseq "github.com/cbegin/modseq-go/internal/sequencer"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	seq       intseq.Options
	backend   intaudio.Backend
	latency   time.Duration
	sampleTap func([]int16)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		seq:     intseq.DefaultOptions(),
		backend: intaudio.BackendEbiten,
		latency: 100 * time.Millisecond,
	}
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.Repeat = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]int16)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithOutputFormat sets the sequencer's PCM word. With FormatU8 the mix is
// rendered at 8 bits and widened for the device.
func WithOutputFormat(f intseq.OutputFormat) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.Format = f
	}
}

func WithMaxVoices(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.MaxVoices = n
	}
}

// WithMicroDelay sets the sample-start offset in milliseconds; 0 disables it.
func WithMicroDelay(ms int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.MicroDelayMS = ms
	}
}

// WithReverb enables the feedback reverb with the given delay and strength
// percentage. A zero strength turns it off.
func WithReverb(sizeMS, strength int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.Reverb = strength > 0
		cfg.seq.ReverbSizeMS = sizeMS
		cfg.seq.ReverbStrength = strength
	}
}

func WithSurround(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.Surround = enabled
	}
}

func WithTickRemover(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.TickRemover = enabled
	}
}

func WithBackend(b intaudio.Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = b
	}
}

// WithBufferFrames sets the frames rendered per sequencer pass. Smaller
// buffers react faster to control changes.
func WithBufferFrames(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seq.BufferFrames = n
	}
}

// WithLatency sizes the device queue for the oto and beep backends.
func WithLatency(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		if d > 0 {
			cfg.latency = d
		}
	}
}

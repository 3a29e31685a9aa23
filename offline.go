package modseq

import (
	"errors"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intseq "github.com/cbegin/modseq-go/internal/sequencer"
	"github.com/cbegin/modseq-go/internal/song"
)

// MaxRenderSeconds bounds a render that runs until the song ends.
const MaxRenderSeconds = 30 * 60

// Renderer drives a private sequencer for offline rendering. Player options
// that concern the device (backend, latency, sample tap) are ignored.
type Renderer struct {
	seq   *intseq.Sequencer
	raw   []byte
	ended bool
}

// NewRenderer installs pkg on a sequencer built from opts. With loop playback
// disabled the renderer reports Done once the song has ended.
func NewRenderer(pkg *song.Package, sampleRate int, opts ...PlayerOption) (*Renderer, error) {
	if pkg == nil {
		return nil, intseq.ErrNilSong
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Renderer{}
	cfg.seq.SampleRate = sampleRate
	cfg.seq.OnEvent = func(kind intseq.EventKind) {
		if kind == intseq.EventPlaybackEnded {
			r.ended = true
		}
	}
	r.seq = intseq.NewWithOptions(cfg.seq)
	if err := r.seq.Play(pkg); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) SampleRate() int              { return r.seq.SampleRate() }
func (r *Renderer) Format() intseq.OutputFormat  { return r.seq.Format() }
func (r *Renderer) Position() Position           { return r.seq.Position() }
func (r *Renderer) Sequencer() *intseq.Sequencer { return r.seq }

// Done reports whether the song has played to its end.
func (r *Renderer) Done() bool { return r.ended }

// Read returns PCM in the renderer's output format.
func (r *Renderer) Read(p []byte) (int, error) {
	return r.seq.Read(p)
}

// ReadSamples fills dst with interleaved 16-bit stereo.
func (r *Renderer) ReadSamples(dst []int16) {
	f := r.seq.Format()
	need := len(dst) * f.Bits() / 8
	if cap(r.raw) < need {
		r.raw = make([]byte, need)
	}
	r.raw = r.raw[:need]
	r.seq.Read(r.raw)
	decodePCM(f, r.raw, dst)
}

// RenderPCM renders seconds of pkg encoded in the configured output format.
func RenderPCM(pkg *song.Package, sampleRate int, seconds float64, opts ...PlayerOption) ([]byte, error) {
	r, err := NewRenderer(pkg, sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	frames := int(float64(r.SampleRate()) * seconds)
	out := make([]byte, frames*r.Format().BytesPerFrame())
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderSamples renders pkg as interleaved 16-bit stereo. A positive seconds
// renders exactly that long; otherwise loop playback is turned off and the
// render stops at the end of the song, capped at MaxRenderSeconds.
func RenderSamples(pkg *song.Package, sampleRate int, seconds float64, opts ...PlayerOption) ([]int16, error) {
	if seconds > 0 {
		r, err := NewRenderer(pkg, sampleRate, opts...)
		if err != nil {
			return nil, err
		}
		out := make([]int16, int(float64(r.SampleRate())*seconds)*2)
		r.ReadSamples(out)
		return out, nil
	}

	r, err := NewRenderer(pkg, sampleRate, append(opts[:len(opts):len(opts)], WithLoopPlayback(false))...)
	if err != nil {
		return nil, err
	}
	chunk := make([]int16, r.seq.BufferFrames()*2)
	limit := r.SampleRate() * MaxRenderSeconds * 2
	var out []int16
	for !r.Done() && len(out) < limit {
		r.ReadSamples(chunk)
		out = append(out, chunk...)
	}
	return out, nil
}

var errOddSamples = errors.New("wav: sample count is not a whole number of stereo frames")

// WriteWAV encodes interleaved 16-bit stereo samples as a PCM WAV file.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	if len(samples)%2 != 0 {
		return errOddSamples
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

package audio

import (
	"fmt"
	"time"

	"github.com/cbegin/modseq-go/internal/debug"
)

// Output is a started audio device pulling from a SampleSource.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Backend selects the device library behind an Output.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	BackendBeep   Backend = "beep"
)

// ParseBackend maps a name to a Backend; the empty name is ebiten.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case "":
		return BackendEbiten, nil
	case BackendEbiten, BackendOto, BackendBeep:
		return b, nil
	}
	return "", fmt.Errorf("unknown audio backend %q", name)
}

// Open creates a paused Output on backend. buffer sizes the device queue
// where the backend allows it.
func Open(backend Backend, sampleRate int, buffer time.Duration, source SampleSource) (Output, error) {
	var (
		out Output
		err error
	)
	switch backend {
	case BackendEbiten, "":
		out, err = NewEbitenPlayer(sampleRate, source)
	case BackendOto:
		out, err = NewOtoPlayer(sampleRate, buffer, source)
	case BackendBeep:
		out, err = NewBeepPlayer(sampleRate, buffer, source)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	debug.Log("audio", "opened %s at %d Hz", backend, sampleRate)
	return out, nil
}

// Package song holds the in-memory form of a tracker module: instruments,
// samples, patterns and the order list, as produced by an importer and
// consumed by the sequencer.
package song

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	PointerMaxCount = 999
	TrackMaxCount   = 256
	PatternMaxCount = 200

	DefaultSpeed  = 6
	DefaultTempo  = 125
	DefaultMaster = 80
)

// Description is the song-wide header.
type Description struct {
	Name            string
	Tracker         string
	ChannelCount    int
	PatternPointers []int
	ChannelPans     [TrackMaxCount]int
	ChannelVolumes  [TrackMaxCount]int
	Speed           int
	Tempo           int
	MasterVolume    int
	MasterSpeed     int
	MasterPitch     int
	InstrumentCount int
	SampleCount     int
}

// Package owns every piece of data for one loaded song.
//
// Mutators take the write lock and raise the modification flag; the mixer
// only ever tries the read lock and renders silence when it cannot get it.
type Package struct {
	Description Description
	Instruments []Instrument
	Patterns    []*Pattern

	mu        sync.RWMutex
	modifying atomic.Bool
}

// New returns an empty package with every instrument slot allocated and
// default song parameters.
func New() *Package {
	p := &Package{Instruments: make([]Instrument, InstrumentMaxCount)}
	for i := range p.Instruments {
		p.Instruments[i].Reset()
	}
	d := &p.Description
	d.Speed = DefaultSpeed
	d.Tempo = DefaultTempo
	d.MasterSpeed = DefaultMaster
	d.MasterPitch = DefaultMaster
	for i := 0; i < TrackMaxCount; i++ {
		d.ChannelPans[i] = MaxPan / 2
		d.ChannelVolumes[i] = MaxVolume
	}
	return p
}

// TryRead acquires the package for reading without blocking. When ok is
// false the package is being modified and must not be touched.
func (p *Package) TryRead() (release func(), ok bool) {
	if p.modifying.Load() || !p.mu.TryRLock() {
		return nil, false
	}
	return p.mu.RUnlock, true
}

// Modify runs fn with the package locked for writing.
func (p *Package) Modify(fn func()) {
	p.modifying.Store(true)
	p.mu.Lock()
	defer func() {
		p.mu.Unlock()
		p.modifying.Store(false)
	}()
	fn()
}

// UnderModification reports whether a mutation is in progress.
func (p *Package) UnderModification() bool { return p.modifying.Load() }

// Shutdown releases every sample and pattern.
func (p *Package) Shutdown() {
	p.Modify(func() {
		for i := range p.Instruments {
			p.Instruments[i].Reset()
		}
		p.Patterns = nil
		p.Description.PatternPointers = nil
		p.Description.InstrumentCount = 0
		p.Description.SampleCount = 0
	})
}

// RemoveInstrument clears instrument slot i (zero-based) and frees its
// samples.
func (p *Package) RemoveInstrument(i int) error {
	if i < 0 || i >= len(p.Instruments) {
		return fmt.Errorf("instrument %d out of range", i)
	}
	p.Modify(func() {
		p.Description.SampleCount -= p.Instruments[i].NumberSamples()
		if p.Description.SampleCount < 0 {
			p.Description.SampleCount = 0
		}
		p.Instruments[i].Reset()
	})
	return nil
}

// Instrument returns slot i clamped to the table, or nil when the package
// has no instrument slots.
func (p *Package) Instrument(i int) *Instrument {
	if len(p.Instruments) == 0 {
		return nil
	}
	return &p.Instruments[clampIndex(i, len(p.Instruments))]
}

// OrderCount is the length of the order list.
func (p *Package) OrderCount() int { return len(p.Description.PatternPointers) }

// Order returns the pattern index at order position i, or zero when i is
// past the list.
func (p *Package) Order(i int) int {
	if i < 0 || i >= len(p.Description.PatternPointers) {
		return 0
	}
	return p.Description.PatternPointers[i]
}

// Pattern returns pattern i, or nil when the index is invalid.
func (p *Package) Pattern(i int) *Pattern {
	if i < 0 || i >= len(p.Patterns) {
		return nil
	}
	return p.Patterns[i]
}

// ClampOrders forces every order entry into the pattern table using
// fallback for entries that point past it.
func (p *Package) ClampOrders(fallback int) {
	for i, v := range p.Description.PatternPointers {
		if v < 0 || v >= len(p.Patterns) {
			p.Description.PatternPointers[i] = fallback
		}
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	modseq "github.com/cbegin/modseq-go"
	"github.com/cbegin/modseq-go/internal/audio"
	"github.com/cbegin/modseq-go/internal/sequencer"
)

// Backend names an audio output implementation.
type Backend = audio.Backend

const (
	BackendEbiten = audio.BackendEbiten
	BackendOto    = audio.BackendOto
	BackendBeep   = audio.BackendBeep
)

// ReverbConfig controls the feedback reverb.
type ReverbConfig struct {
	Enabled  bool `json:"enabled"`
	SizeMS   int  `json:"sizeMs,omitempty"`
	Strength int  `json:"strength,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Backend      Backend      `json:"backend,omitempty"`
	SampleRate   int          `json:"sampleRate,omitempty"`
	Format       string       `json:"format,omitempty"` // s16le, s16be or u8
	BufferFrames int          `json:"bufferFrames,omitempty"`
	MaxVoices    int          `json:"maxVoices,omitempty"`
	MicroDelayMS int          `json:"microDelayMs"`
	Reverb       ReverbConfig `json:"reverb"`
	Surround     bool         `json:"surround"`
	TickRemover  bool         `json:"tickRemover"`
	Loop         bool         `json:"loop"`
	Volume       float64      `json:"volume"`
	Debug        bool         `json:"debug,omitempty"`
	Recent       []string     `json:"recent,omitempty"`
}

const maxRecent = 10

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend:      BackendEbiten,
		SampleRate:   44100,
		Format:       "s16le",
		BufferFrames: 2048,
		MaxVoices:    4,
		MicroDelayMS: 25,
		Reverb:       ReverbConfig{Enabled: true, SizeMS: 100, Strength: 20},
		Surround:     true,
		TickRemover:  true,
		Loop:         true,
		Volume:       1,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "modseq"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AddRecent records a played file at the front of the recent list
func (c *Config) AddRecent(path string) {
	out := []string{path}
	for _, p := range c.Recent {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > maxRecent {
		out = out[:maxRecent]
	}
	c.Recent = out
}

// PlayerOptions converts the settings into player options. Volume is not
// included; it is applied to a running player.
func (c *Config) PlayerOptions() ([]modseq.PlayerOption, error) {
	format, ok := sequencer.ParseFormat(c.Format)
	if !ok {
		return nil, fmt.Errorf("config: unknown format %q", c.Format)
	}
	backend, err := audio.ParseBackend(string(c.Backend))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	strength := c.Reverb.Strength
	if !c.Reverb.Enabled {
		strength = 0
	}
	return []modseq.PlayerOption{
		modseq.WithBackend(backend),
		modseq.WithOutputFormat(format),
		modseq.WithBufferFrames(c.BufferFrames),
		modseq.WithMaxVoices(c.MaxVoices),
		modseq.WithMicroDelay(c.MicroDelayMS),
		modseq.WithReverb(c.Reverb.SizeMS, strength),
		modseq.WithSurround(c.Surround),
		modseq.WithTickRemover(c.TickRemover),
		modseq.WithLoopPlayback(c.Loop),
	}, nil
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	modseq "github.com/cbegin/modseq-go"
	"github.com/cbegin/modseq-go/internal/config"
	"github.com/cbegin/modseq-go/internal/debug"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		backend     = flag.String("backend", string(cfg.Backend), "audio backend: ebiten|oto|beep")
		sampleRate  = flag.Int("sample-rate", cfg.SampleRate, "output sample rate")
		format      = flag.String("format", cfg.Format, "mix format: s16le|s16be|u8")
		voices      = flag.Int("voices", cfg.MaxVoices, "number of mixed voices")
		frames      = flag.Int("buffer", cfg.BufferFrames, "frames rendered per sequencer pass")
		microDelay  = flag.Int("micro-delay", cfg.MicroDelayMS, "sample start offset in ms (0 = off)")
		reverb      = flag.Bool("reverb", cfg.Reverb.Enabled, "enable reverb")
		reverbSize  = flag.Int("reverb-size", cfg.Reverb.SizeMS, "reverb delay in ms")
		reverbMix   = flag.Int("reverb-strength", cfg.Reverb.Strength, "reverb feedback percentage")
		surround    = flag.Bool("surround", cfg.Surround, "enable surround")
		tickRemover = flag.Bool("tick-remover", cfg.TickRemover, "ramp voice starts and stops")
		loop        = flag.Bool("loop", cfg.Loop, "loop playback; use with -loops to count then stop")
		loops       = flag.Int("loops", 0, "when -loop, stop after N loops (0 = loop forever)")
		volume      = flag.Float64("volume", cfg.Volume, "master volume 0..1")
		wavPath     = flag.String("wav", "", "render the module to this WAV file instead of playing")
		wavDir      = flag.String("wav-dir", "", "render every module argument into this directory")
		seconds     = flag.Float64("seconds", 0, "render length in seconds (0 = until the song ends)")
		jobs        = flag.Int("jobs", 4, "concurrent renders for -wav-dir")
		debugLog    = flag.Bool("debug", cfg.Debug, "write a debug log to ~/.config/modseq/debug.log")
		save        = flag.Bool("save", false, "save these settings as the defaults")
	)
	flag.Parse()

	cfg.Backend = config.Backend(*backend)
	cfg.SampleRate = *sampleRate
	cfg.Format = *format
	cfg.MaxVoices = *voices
	cfg.BufferFrames = *frames
	cfg.MicroDelayMS = *microDelay
	cfg.Reverb = config.ReverbConfig{Enabled: *reverb, SizeMS: *reverbSize, Strength: *reverbMix}
	cfg.Surround = *surround
	cfg.TickRemover = *tickRemover
	cfg.Loop = *loop
	cfg.Volume = *volume
	cfg.Debug = *debugLog

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			log.Fatal(err)
		}
		defer debug.Disable()
	}

	files := flag.Args()
	if len(files) == 0 && len(cfg.Recent) > 0 {
		files = cfg.Recent[:1]
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: play_mod [flags] module.xm|.s3m|.it ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts, err := cfg.PlayerOptions()
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *wavDir != "":
		err = renderBatch(files, *wavDir, cfg.SampleRate, *seconds, *jobs, opts)
	case *wavPath != "":
		err = renderFile(files[0], *wavPath, cfg.SampleRate, *seconds, opts)
	default:
		err = play(cfg, files, *loops, opts)
	}
	if err != nil {
		log.Fatal(err)
	}

	if *save {
		if err := cfg.Save(); err != nil {
			log.Fatal(err)
		}
	}
}

func renderFile(in, out string, sampleRate int, seconds float64, opts []modseq.PlayerOption) error {
	pkg, err := modseq.ImportFile(in)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	samples, err := modseq.RenderSamples(pkg, sampleRate, seconds, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := modseq.WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%.1fs)\n", in, out, float64(len(samples)/2)/float64(sampleRate))
	return nil
}

func renderBatch(files []string, dir string, sampleRate int, seconds float64, jobs int, opts []modseq.PlayerOption) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for _, in := range files {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out := filepath.Join(dir, base+".wav")
		g.Go(func() error {
			return renderFile(in, out, sampleRate, seconds, opts)
		})
	}
	return g.Wait()
}

func play(cfg *config.Config, files []string, maxLoops int, opts []modseq.PlayerOption) error {
	pl, err := modseq.NewPlayer(cfg.SampleRate, opts...)
	if err != nil {
		return err
	}
	defer pl.Close()
	pl.SetMasterVolume(cfg.Volume)

	keys, err := startKeys()
	if err != nil {
		return err
	}
	defer keys.Restore()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if keys != nil {
		fmt.Print("space: pause  +/-: volume  n: next  q: quit\r\n")
	}
	for _, path := range files {
		quit, err := playOne(pl, cfg, path, maxLoops, keys, interrupt)
		if err != nil {
			return err
		}
		cfg.AddRecent(path)
		if quit {
			break
		}
	}
	return nil
}

// playOne plays path until it ends, the loop limit is reached, or the user
// skips or quits. It reports whether the user asked to quit.
func playOne(pl *modseq.Player, cfg *config.Config, path string, maxLoops int, keys *keyReader, interrupt <-chan os.Signal) (bool, error) {
	events := pl.Watch()
	if err := pl.PlayFile(path); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("playing %s\r\n", path)
	defer fmt.Print("\r\n")

	status := time.NewTicker(100 * time.Millisecond)
	defer status.Stop()
	keyCh := keys.Keys()
	loopCount := 0
	for {
		select {
		case event := <-events:
			switch event.Kind {
			case modseq.EventPlaybackEnded:
				return false, pl.Stop()
			case modseq.EventSongLooped:
				loopCount++
				if cfg.Loop && maxLoops > 0 && loopCount >= maxLoops {
					return false, pl.Stop()
				}
			}
		case k, ok := <-keyCh:
			if !ok {
				keyCh = nil
				continue
			}
			switch k {
			case ' ':
				if pl.Paused() {
					pl.Resume()
				} else {
					pl.Pause()
				}
			case '+', '=':
				cfg.Volume = min(cfg.Volume+0.1, 1)
				pl.SetMasterVolume(cfg.Volume)
			case '-', '_':
				cfg.Volume = max(cfg.Volume-0.1, 0)
				pl.SetMasterVolume(cfg.Volume)
			case 'n':
				return false, pl.Stop()
			case 'q', 3:
				return true, pl.Stop()
			}
		case <-interrupt:
			return true, pl.Stop()
		case <-status.C:
			pos := pl.Position()
			state := "  "
			if pl.Paused() {
				state = "||"
			}
			fmt.Printf("\r%s order %3d  pattern %3d  row %3d  vol %3.0f%%", state, pos.Order, pos.Pattern, pos.Row, cfg.Volume*100)
		}
	}
}

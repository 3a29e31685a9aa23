package sequencer

import (
	"testing"

	"github.com/cbegin/modseq-go/internal/song"
)

func BenchmarkPerformSequencing(b *testing.B) {
	pkg, p := testSong(64, 8)
	for ch := 0; ch < 8; ch++ {
		for row := 0; row < 64; row += 4 {
			setCell(p, row, ch, song.Note(36+ch+row%12), 1, song.EffectVibrato, 0x46)
		}
	}
	seq := NewWithOptions(DefaultOptions())
	if err := seq.Play(pkg); err != nil {
		b.Fatalf("play failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq.PerformSequencing()
	}
}

func BenchmarkPerformSequencing8Bit(b *testing.B) {
	pkg, p := testSong(64, 4)
	for ch := 0; ch < 4; ch++ {
		setCell(p, 0, ch, song.Note(48+ch*3), 1, song.EffectNone, 0)
	}
	opts := DefaultOptions()
	opts.Format = FormatU8
	seq := NewWithOptions(opts)
	if err := seq.Play(pkg); err != nil {
		b.Fatalf("play failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq.PerformSequencing()
	}
}

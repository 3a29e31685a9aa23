package sequencer

import (
	"testing"

	"github.com/cbegin/modseq-go/internal/song"
)

func effectRig(t *testing.T) (*Sequencer, *Channel) {
	t.Helper()
	pkg, _ := testSong(4, 1)
	seq := testSequencer(64)
	if err := seq.SetSong(pkg); err != nil {
		t.Fatalf("set song: %v", err)
	}
	ch := seq.Channel(0)
	ch.Init(0)
	return seq, ch
}

func setEffect(seq *Sequencer, ch *Channel, eff song.Effect, arg int) {
	ch.effect = eff
	ch.arg = arg
	seq.SetUpEffect(ch)
}

func TestZeroArgumentRecallsPrevious(t *testing.T) {
	seq, ch := effectRig(t)
	setEffect(seq, ch, song.EffectDownSlide, 5)
	setEffect(seq, ch, song.EffectDownSlide, 0)
	if ch.arg != 5 || ch.slide != 5 {
		t.Fatalf("arg,slide = %d,%d, want 5,5", ch.arg, ch.slide)
	}

	setEffect(seq, ch, song.EffectVolume, 20)
	setEffect(seq, ch, song.EffectVolume, 0)
	if ch.volume != 0 {
		t.Fatalf("volume 0 must stay literal, got %d", ch.volume)
	}
}

func TestArpeggioCyclesPeriods(t *testing.T) {
	seq, ch := effectRig(t)
	ch.note = song.NoteMid
	ch.period = 2712
	setEffect(seq, ch, song.EffectArpeggio, 0x47)
	want := []int{2152, 1814, 2712}
	for step, w := range want {
		seq.DoEffect(ch, step+1)
		if ch.period != w {
			t.Fatalf("step %d: period = %d, want %d", step+1, ch.period, w)
		}
	}
}

func TestPortamentoStopsAtGoal(t *testing.T) {
	seq, ch := effectRig(t)
	ch.note = song.NoteMid + 12
	ch.period = 2712
	setEffect(seq, ch, song.EffectPortamento, 0x80)
	if ch.pitchGoal != 1356 {
		t.Fatalf("goal = %d, want 1356", ch.pitchGoal)
	}
	for step := 1; step <= 3; step++ {
		seq.DoEffect(ch, step)
	}
	if ch.period != 1356 {
		t.Fatalf("period = %d, want 1356", ch.period)
	}
	if ch.effect != song.EffectNone {
		t.Fatalf("effect = %v, want none after reaching goal", ch.effect)
	}
}

func TestPortaSlideKeepsSliding(t *testing.T) {
	seq, ch := effectRig(t)
	ch.note = song.NoteMid + 12
	ch.period = 1400
	ch.pitchRate = 8
	ch.volume = 10
	setEffect(seq, ch, song.EffectPortaSlide, 0x20)
	seq.DoEffect(ch, 1)
	seq.DoEffect(ch, 2)
	if ch.period != 1356 {
		t.Fatalf("period = %d, want 1356", ch.period)
	}
	if ch.volume != 14 {
		t.Fatalf("volume = %d, want 14", ch.volume)
	}
	if ch.effect != song.EffectPortaSlide {
		t.Fatalf("effect = %v, want portaslide", ch.effect)
	}
}

func TestExtendedEffects(t *testing.T) {
	tests := []struct {
		name       string
		arg        int
		period     int
		volume     int
		wantPeriod int
		wantVolume int
	}{
		{"fine up", 0x12, 2712, 64, 2704, 64},
		{"fine down", 0x22, 2712, 64, 2720, 64},
		{"fine up clamps", 0x1F, 120, 64, song.MinimumPitch, 64},
		{"fine volume up", 0xA5, 2712, 60, 2712, 64},
		{"fine volume down", 0xB5, 2712, 3, 2712, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ch := effectRig(t)
			ch.period = tt.period
			ch.volume = tt.volume
			setEffect(seq, ch, song.EffectExtended, tt.arg)
			if ch.period != tt.wantPeriod || ch.volume != tt.wantVolume {
				t.Fatalf("period,volume = %d,%d, want %d,%d", ch.period, ch.volume, tt.wantPeriod, tt.wantVolume)
			}
		})
	}
}

func TestNoteCut(t *testing.T) {
	seq, ch := effectRig(t)
	setEffect(seq, ch, song.EffectExtended, 0xC2)
	seq.DoEffect(ch, 1)
	if ch.volume != song.MaxVolume {
		t.Fatalf("cut too early: volume %d", ch.volume)
	}
	seq.DoEffect(ch, 2)
	if ch.volume != 0 {
		t.Fatalf("volume = %d, want 0 after cut", ch.volume)
	}
}

func TestOffsetPanningVolume(t *testing.T) {
	seq, ch := effectRig(t)
	ch.sample = squareSample(4000)
	setEffect(seq, ch, song.EffectOffset, 2)
	if ch.cur != 512 {
		t.Errorf("offset cursor = %d, want 512", ch.cur)
	}
	setEffect(seq, ch, song.EffectPanning, 255)
	if ch.pan != song.MaxPan {
		t.Errorf("pan = %d, want %d", ch.pan, song.MaxPan)
	}
	setEffect(seq, ch, song.EffectPanning, 128)
	if ch.pan != 32 {
		t.Errorf("pan = %d, want 32", ch.pan)
	}
	setEffect(seq, ch, song.EffectVolume, 200)
	if ch.volume != song.MaxVolume {
		t.Errorf("volume = %d, want %d", ch.volume, song.MaxVolume)
	}
}

func TestSlideVolume(t *testing.T) {
	seq, ch := effectRig(t)
	ch.volume = 30
	setEffect(seq, ch, song.EffectSlideVolume, 0x30)
	seq.DoEffect(ch, 1)
	if ch.volume != 33 {
		t.Fatalf("volume = %d, want 33", ch.volume)
	}
	setEffect(seq, ch, song.EffectSlideVolume, 0x04)
	seq.DoEffect(ch, 1)
	if ch.volume != 29 {
		t.Fatalf("volume = %d, want 29", ch.volume)
	}
}

func TestEffectClearsOnLastTick(t *testing.T) {
	seq, ch := effectRig(t)
	setEffect(seq, ch, song.EffectUpSlide, 1)
	seq.DoEffect(ch, seq.speed-1)
	if ch.effect != song.EffectNone || ch.arg != 0 {
		t.Fatalf("effect,arg = %v,%d, want none,0", ch.effect, ch.arg)
	}
}

func TestUnknownEffectIsNone(t *testing.T) {
	seq, ch := effectRig(t)
	setEffect(seq, ch, song.EffectCount+3, 9)
	if ch.effect != song.EffectNone {
		t.Fatalf("effect = %v, want none", ch.effect)
	}
}

func TestVolumeCommand(t *testing.T) {
	tests := []struct {
		cmd  int
		call int
		want int
	}{
		{0x65, 2, 25},
		{0x75, 2, 35},
		{0x85, 1, 25},
		{0x85, 2, 30},
		{0x95, 1, 35},
		{0x00, 1, 30},
	}
	for _, tt := range tests {
		ch := &Channel{}
		ch.Init(0)
		ch.volume = 30
		ch.volumeCmd = tt.cmd
		ch.VolumeCommand(tt.call)
		if ch.volume != tt.want {
			t.Errorf("cmd %#x call %d: volume = %d, want %d", tt.cmd, tt.call, ch.volume, tt.want)
		}
	}
}

func TestEnvelopeSustainAndRelease(t *testing.T) {
	seq, ch := effectRig(t)
	in := seq.pkg.Instrument(0)
	in.VolumeEnv = song.Envelope{Count: 2, Sustain: 0, Flags: song.EnvelopeOn | song.EnvelopeSustain}
	in.VolumeEnv.Points[0] = song.EnvelopeMarker{Position: 0, Volume: 64}
	in.VolumeEnv.Points[1] = song.EnvelopeMarker{Position: 10, Volume: 0}

	ch.keyOn = true
	for i := 0; i < 5; i++ {
		seq.ProcessEnvelope(ch)
	}
	if ch.volFromEnv != 64 {
		t.Fatalf("sustained level = %d, want 64", ch.volFromEnv)
	}

	ch.keyOn = false
	for i := 0; i < 6; i++ {
		seq.ProcessEnvelope(ch)
	}
	if ch.volFromEnv != 32 {
		t.Fatalf("released level = %d, want 32", ch.volFromEnv)
	}
	for i := 0; i < 20; i++ {
		seq.ProcessEnvelope(ch)
	}
	if ch.volFromEnv != 0 {
		t.Fatalf("final level = %d, want 0", ch.volFromEnv)
	}
}

func TestFadeOutDropsLoop(t *testing.T) {
	seq, ch := effectRig(t)
	ch.keyOn = false
	ch.loopSize = 100
	ch.fade = 500
	seq.ProcessFadeOut(ch)
	if ch.fade != 200 || ch.loopSize != 100 {
		t.Fatalf("fade,loop = %d,%d, want 200,100", ch.fade, ch.loopSize)
	}
	seq.ProcessFadeOut(ch)
	if ch.fade != 0 || ch.loopSize != 0 {
		t.Fatalf("fade,loop = %d,%d, want 0,0", ch.fade, ch.loopSize)
	}
}

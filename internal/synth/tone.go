package synth

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
)

// Effect identifies a short UI feedback sound.
type Effect string

const (
	EffectClick       Effect = "click"
	EffectSuccess     Effect = "success"
	EffectError       Effect = "error"
	EffectCelebration Effect = "celebration"
	EffectPop         Effect = "pop"
)

// Effects returns every effect in display order.
func Effects() []Effect {
	return []Effect{EffectClick, EffectSuccess, EffectError, EffectCelebration, EffectPop}
}

// ParseEffect validates an effect name.
func ParseEffect(s string) (Effect, error) {
	e := Effect(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tones[e]; !ok {
		return "", fmt.Errorf("unknown effect %q", s)
	}
	return e, nil
}

// Waveform is the oscillator shape of a tone.
type Waveform int

const (
	Sine Waveform = iota
	Sawtooth
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Sawtooth:
		return "sawtooth"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// Tone is a single oscillator note whose gain decays exponentially to
// EndGain over its duration.
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Waveform  Waveform
	Gain      float64
}

const (
	// EffectGain is the starting gain of every effect tone.
	EffectGain = 0.3
	// EndGain is the gain every tone decays to.
	EndGain = 0.01
)

var tones = map[Effect]Tone{
	EffectClick:       {Frequency: 800, Duration: 50 * time.Millisecond, Waveform: Sine, Gain: EffectGain},
	EffectSuccess:     {Frequency: 600, Duration: 200 * time.Millisecond, Waveform: Sine, Gain: EffectGain},
	EffectError:       {Frequency: 300, Duration: 150 * time.Millisecond, Waveform: Sawtooth, Gain: EffectGain},
	EffectCelebration: {Frequency: 880, Duration: 300 * time.Millisecond, Waveform: Sine, Gain: EffectGain},
	EffectPop:         {Frequency: 1000, Duration: 80 * time.Millisecond, Waveform: Sine, Gain: EffectGain},
}

// ToneFor returns the tone played for e.
func ToneFor(e Effect) (Tone, bool) {
	t, ok := tones[e]
	return t, ok
}

// Chime is the ascending C major arpeggio played by PlaySequence.
var Chime = []Tone{
	{Frequency: 523.25, Duration: 300 * time.Millisecond, Gain: 0.2},  // C5
	{Frequency: 659.25, Duration: 300 * time.Millisecond, Gain: 0.2},  // E5
	{Frequency: 783.99, Duration: 300 * time.Millisecond, Gain: 0.2},  // G5
	{Frequency: 1046.50, Duration: 300 * time.Millisecond, Gain: 0.2}, // C6
}

// Render returns a stereo streamer that synthesizes t at sampleRate.
func Render(t Tone, sampleRate beep.SampleRate) beep.Streamer {
	total := sampleRate.N(t.Duration)
	if total <= 0 || t.Gain <= 0 {
		return beep.StreamerFunc(func([][2]float64) (int, bool) { return 0, false })
	}

	// Per-sample multiplier of the exponential ramp from Gain to EndGain
	end := math.Min(EndGain, t.Gain)
	decay := math.Pow(end/t.Gain, 1/float64(total))

	pos := 0
	gain := t.Gain
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < total {
			v := oscillate(t.Waveform, t.Frequency*float64(pos)/float64(sampleRate)) * gain
			samples[n] = [2]float64{v, v}
			gain *= decay
			pos++
			n++
		}
		return n, true
	})
}

// oscillate returns the waveform value at phase, measured in cycles.
func oscillate(w Waveform, phase float64) float64 {
	switch w {
	case Sawtooth:
		return 2 * (phase - math.Floor(phase+0.5))
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

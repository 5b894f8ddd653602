// Package synth renders plucked-string audio for laid-out notes.
package synth

import (
	"math"
)

// Plucked silk/steel string: bright upper partials that die away quickly.
var partials = []struct {
	ratio     float64 // frequency ratio
	amplitude float64 // relative amplitude
	decay     float64 // decay multiplier, higher dies faster
}{
	{1.0, 1.0, 1.0},
	{2.0, 0.8, 1.4},
	{3.0, 0.55, 1.9},
	{4.0, 0.35, 2.5},
	{5.0, 0.25, 3.2},
	{6.0, 0.15, 4.0},
	{7.0, 0.1, 4.8},
	{8.0, 0.06, 5.6},
}

const (
	attackTime   = 0.002 // seconds
	releaseStart = 0.85  // fraction of the note
	partialNorm  = 2.6
)

// Pluck renders one plucked note of the given frequency as samples at rate.
// A non-positive frequency renders silence.
func Pluck(freq float64, samples, rate int, volume float64) []int16 {
	data := make([]int16, max(samples, 0))
	if freq <= 0 || samples <= 0 || rate <= 0 {
		return data
	}

	// Thin strings are a little stiff, so upper partials run sharp.
	inharmonicity := 0.00015 * (freq / 440.0) * (freq / 440.0)
	noteDuration := float64(samples) / float64(rate)
	nyquist := float64(rate) / 2

	for i := range samples {
		t := float64(i) / float64(rate)
		progress := t / noteDuration

		var sample float64
		for _, p := range partials {
			ratio := p.ratio * math.Sqrt(1.0+inharmonicity*p.ratio*p.ratio)
			if freq*ratio >= nyquist {
				break
			}
			amp := p.amplitude * math.Exp(-progress*p.decay*3.5)
			sample += amp * math.Sin(2*math.Pi*freq*ratio*t)
		}
		sample /= partialNorm
		sample *= volume * envelope(i, samples, rate, noteDuration)
		data[i] = int16(clamp(sample, -1.0, 1.0) * 32767 * 0.85)
	}
	return data
}

// envelope is a percussive attack, exponential decay and a short release.
func envelope(i, samples, rate int, noteDuration float64) float64 {
	t := float64(i) / float64(rate)
	progress := float64(i) / float64(samples)

	decayRate := clamp(2.5/noteDuration, 0.8, 10.0)

	if t < attackTime {
		return 1.0 - math.Exp(-5.0*t/attackTime)
	}
	level := math.Exp(-(t-attackTime)*decayRate)*0.97 + 0.03
	if progress < releaseStart {
		return level
	}
	release := (progress - releaseStart) / (1.0 - releaseStart)
	return level * (1.0 - release*release)
}

func clamp(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

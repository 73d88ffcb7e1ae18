// Package beep plays short audible cues at capture start and end so
// the user knows the microphone state without looking anywhere.
package beep

import "math"

var disabled bool

// Disable silences all cues; used by the headless test mode.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// start cue: high and short
	startFreq  = 1200.0
	startDur   = 0.15
	startDecay = 60.0

	// end cue: lower, slightly longer
	endFreq  = 900.0
	endDur   = 0.2
	endDecay = 40.0

	cueVolume = 0.5
)

// tone renders a decaying mono sine into 16-bit samples.
func tone(freq, duration, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * cueVolume * envelope)
	}
	return samples
}

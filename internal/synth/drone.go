package synth

import (
	"math"

	noise "flightsim/internal/math"
)

// Drone synthesizes the engine note and wind rush of the aircraft.
// It is not safe for concurrent use; callers serialize SetEngine and Fill.
type Drone struct {
	sampleRate float64
	phase      [3]float64

	freq, targetFreq float64
	gain, targetGain float64
	wind, targetWind float64

	windNoise noise.Source
	windPos   float64
}

// Harmonic layout of the engine note: fundamental plus sqrt(2) and sqrt(3) partials
var (
	partialRatios = [3]float64{1, math.Sqrt2, math.Sqrt(3)}
	partialGains  = [3]float64{0.5, 0.3, 0.15}
)

const (
	idleFrequency = 55.0
	fullFrequency = 220.0
	// fraction of the remaining distance to a target covered per sample
	slew = 0.0005
)

// NewDrone creates a silent drone; wind is the noise channel for the air rush
func NewDrone(sampleRate int, wind noise.Source) *Drone {
	return &Drone{
		sampleRate: float64(sampleRate),
		freq:       idleFrequency,
		targetFreq: idleFrequency,
		windNoise:  wind,
	}
}

// SetEngine retargets pitch and loudness from throttle in [0, 1] and airspeed in m/s
func (d *Drone) SetEngine(throttle, speed float64) {
	throttle = math.Max(0, math.Min(1, throttle))
	d.targetFreq = idleFrequency + (fullFrequency-idleFrequency)*throttle
	d.targetGain = 0.1 + 0.4*throttle
	d.targetWind = math.Min(1, speed/150) * 0.3
}

// Silence fades both layers out
func (d *Drone) Silence() {
	d.targetGain = 0
	d.targetWind = 0
}

// Frequency is the current fundamental in Hz
func (d *Drone) Frequency() float64 {
	return d.freq
}

// Fill writes interleaved samples for channels channels
func (d *Drone) Fill(out []float32, channels int, volume float32) {
	if channels < 1 {
		channels = 1
	}
	for i := 0; i+channels <= len(out); i += channels {
		d.freq += (d.targetFreq - d.freq) * slew
		d.gain += (d.targetGain - d.gain) * slew
		d.wind += (d.targetWind - d.wind) * slew

		tone := 0.0
		for p := range d.phase {
			tone += math.Sin(d.phase[p]) * partialGains[p]
			d.phase[p] += 2 * math.Pi * d.freq * partialRatios[p] / d.sampleRate
			if d.phase[p] > 2*math.Pi {
				d.phase[p] -= 2 * math.Pi
			}
		}

		rush := 0.0
		if d.windNoise != nil {
			d.windPos += 1.0 / 16
			rush = d.windNoise.Eval2(d.windPos, 0.5)
		}

		sample := softClip(float32(tone*d.gain+rush*d.wind) * volume)
		for c := 0; c < channels; c++ {
			out[i+c] = sample
		}
	}
}

// softClip is linear up to 0.5 and approaches 1 asymptotically beyond it
func softClip(s float32) float32 {
	if s > 0.5 {
		return 1 - 0.25/s
	} else if s < -0.5 {
		return -1 - 0.25/s
	}
	return s
}

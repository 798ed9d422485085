// Package chime schedules the three-tone sparkle played when the scene
// transforms and hands it to an audio backend.
package chime

import (
	"math"
	"time"
)

// Envelope constants shared by every tone.
const (
	ToneDuration   = 300 * time.Millisecond
	StartGain      = 0.1
	EndGain        = 0.01
	FloorFrequency = 1.0
)

// ToneEvent is one scheduled sine tone. Offset is relative to the episode start.
type ToneEvent struct {
	Frequency float64       `json:"frequency"`
	Offset    time.Duration `json:"offset"`
	Duration  time.Duration `json:"duration"`
}

// Chime returns the fixed sparkle: 1500Hz, then 1200Hz 50ms later, then
// 1800Hz 100ms after the start.
func Chime() []ToneEvent {
	return []ToneEvent{
		{Frequency: 1500, Offset: 0, Duration: ToneDuration},
		{Frequency: 1200, Offset: 50 * time.Millisecond, Duration: ToneDuration},
		{Frequency: 1800, Offset: 100 * time.Millisecond, Duration: ToneDuration},
	}
}

// FrequencyAt is the instantaneous frequency t into the tone. It ramps
// exponentially from Frequency to FloorFrequency.
func (e ToneEvent) FrequencyAt(t time.Duration) float64 {
	return expRamp(e.Frequency, FloorFrequency, e.progress(t))
}

// GainAt is the amplitude t into the tone, ramping exponentially from
// StartGain to EndGain. It is zero outside the tone.
func (e ToneEvent) GainAt(t time.Duration) float64 {
	if t < 0 || t > e.Duration {
		return 0
	}
	return expRamp(StartGain, EndGain, e.progress(t))
}

// phaseAt integrates the exponential frequency sweep, in cycles.
func (e ToneEvent) phaseAt(t time.Duration) float64 {
	p := e.progress(t)
	d := e.Duration.Seconds()
	if e.Frequency == FloorFrequency || d == 0 {
		return e.Frequency * p * d
	}
	k := math.Log(FloorFrequency / e.Frequency)
	return e.Frequency * d * (math.Exp(k*p) - 1) / k
}

// SampleAt is the waveform value t into the tone.
func (e ToneEvent) SampleAt(t time.Duration) float64 {
	return e.GainAt(t) * math.Sin(2*math.Pi*e.phaseAt(t))
}

// End is the offset at which the tone is released.
func (e ToneEvent) End() time.Duration {
	return e.Offset + e.Duration
}

func (e ToneEvent) progress(t time.Duration) float64 {
	if e.Duration <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, float64(t)/float64(e.Duration)))
}

func expRamp(from, to, p float64) float64 {
	return from * math.Pow(to/from, p)
}

// Length is the offset at which the last tone ends.
func Length(tones []ToneEvent) time.Duration {
	var end time.Duration
	for _, t := range tones {
		end = max(end, t.End())
	}
	return end
}

// Render mixes tones into mono PCM samples at sampleRate, clipped to [-1, 1].
func Render(tones []ToneEvent, sampleRate int) []float64 {
	if sampleRate <= 0 {
		return nil
	}

	n := int(Length(tones).Seconds() * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		at := time.Duration(float64(i) / float64(sampleRate) * float64(time.Second))
		var v float64
		for _, tone := range tones {
			v += tone.SampleAt(at - tone.Offset)
		}
		out[i] = math.Max(-1, math.Min(1, v))
	}
	return out
}

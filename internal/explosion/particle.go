package explosion

import (
	"math"
	"time"
)

// Particle is one fragment of the burst. It travels from the origin to its
// final displacement over Duration while fading and shrinking to nothing.
type Particle struct {
	Index    int           `json:"index"`
	Angle    float64       `json:"angle"` // radians, [0, 2π)
	Speed    float64       `json:"speed"` // final displacement distance
	Size     float64       `json:"size"`
	Shape    Shape         `json:"shape"`
	Color    string        `json:"color"`
	Duration time.Duration `json:"duration"`
	Spin     float64       `json:"spin"` // degrees at end of life
}

// Frame is a sampled render state.
type Frame struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
	Rotation float64 `json:"rotation"`
}

// Displacement returns the offset from the origin at end of life.
func (p Particle) Displacement() (dx, dy float64) {
	return math.Cos(p.Angle) * p.Speed, math.Sin(p.Angle) * p.Speed
}

// At samples the particle elapsed time after the episode started.
func (p Particle) At(elapsed time.Duration) Frame {
	progress := Progress(elapsed, 0, p.Duration)
	eased := CircOut(progress)
	dx, dy := p.Displacement()

	return Frame{
		X:        dx * eased,
		Y:        dy * eased,
		Scale:    1 - eased,
		Opacity:  1 - eased,
		Rotation: p.Spin * eased,
	}
}

// Progress maps elapsed time onto [0,1] for an animation that starts after
// delay and runs for duration.
func Progress(elapsed, delay, duration time.Duration) float64 {
	if elapsed <= delay {
		return 0
	}
	if duration <= 0 || elapsed >= delay+duration {
		return 1
	}
	return float64(elapsed-delay) / float64(duration)
}

// CircOut decelerates sharply: fast launch, long settle.
func CircOut(p float64) float64 {
	p = clamp01(p)
	return math.Sqrt(1 - (1-p)*(1-p))
}

// EaseOut is a quadratic ease-out.
func EaseOut(p float64) float64 {
	p = clamp01(p)
	return 1 - (1-p)*(1-p)
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

// Package explosion generates the particle burst and shockwave rings played
// when the scene transforms. It returns trajectory parameters; sampling them
// over time is left to the renderer.
package explosion

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Burst parameters.
const (
	ParticleCount = 45

	MinSpeed = 200.0
	MaxSpeed = 600.0

	MinSize = 2.0
	MaxSize = 8.0

	StarProbability = 0.3

	MinDuration = 800 * time.Millisecond
	MaxDuration = 1200 * time.Millisecond

	// MaxSpin is the upper bound, in degrees, of a particle's end rotation.
	MaxSpin = 720.0
)

// Palette is cycled by particle index.
var Palette = [4]string{"#FFD700", "#FFFFFF", "#FF3131", "#FF4500"}

// Shape is how a particle is drawn.
type Shape string

const (
	ShapeDisc Shape = "disc"
	ShapeStar Shape = "star"
)

// Rand is the randomness the simulator draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Simulator produces explosion episodes.
type Simulator struct {
	rng Rand
}

// NewSimulator returns a Simulator drawing from rng. A nil rng uses an
// unseeded PCG source.
func NewSimulator(rng Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{rng: rng}
}

// NewSeededSimulator returns a Simulator whose draws are fully determined by seed.
func NewSeededSimulator(seed uint64) *Simulator {
	return NewSimulator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Episode is one explosion: a fixed particle burst plus two shockwave rings,
// anchored at the transition that created it.
type Episode struct {
	ID        uuid.UUID  `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	Particles []Particle `json:"particles"`
	Rings     [2]Ring    `json:"rings"`
}

// Explode creates a new episode starting at now. It only reads from the
// simulator's random source.
func (s *Simulator) Explode(now time.Time) *Episode {
	ep := &Episode{
		ID:        uuid.New(),
		StartedAt: now,
		Particles: make([]Particle, ParticleCount),
		Rings:     Shockwaves(),
	}

	for i := range ep.Particles {
		ep.Particles[i] = s.particle(i)
	}
	return ep
}

func (s *Simulator) particle(i int) Particle {
	shape := ShapeDisc
	angle := s.between(0, 2*math.Pi)
	if angle >= 2*math.Pi {
		angle = 0
	}
	speed := s.between(MinSpeed, MaxSpeed)
	size := s.between(MinSize, MaxSize)
	if s.rng.Float64() < StarProbability {
		shape = ShapeStar
	}
	dur := MinDuration + time.Duration(s.rng.Float64()*float64(MaxDuration-MinDuration))

	return Particle{
		Index:    i,
		Angle:    angle,
		Speed:    speed,
		Size:     size,
		Shape:    shape,
		Color:    Palette[i%len(Palette)],
		Duration: dur,
		Spin:     s.between(0, MaxSpin),
	}
}

// between draws from [lo, hi).
func (s *Simulator) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// EndsAt is when the last particle or ring of the episode finishes.
func (e *Episode) EndsAt() time.Time {
	var longest time.Duration
	for _, p := range e.Particles {
		longest = max(longest, p.Duration)
	}
	for _, r := range e.Rings {
		longest = max(longest, r.Delay+r.Duration)
	}
	return e.StartedAt.Add(longest)
}

// Stars counts the star-shaped particles.
func (e *Episode) Stars() int {
	n := 0
	for _, p := range e.Particles {
		if p.Shape == ShapeStar {
			n++
		}
	}
	return n
}

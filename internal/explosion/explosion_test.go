package explosion

import (
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// scripted replays a fixed sequence of draws, wrapping around.
type scripted struct {
	values []float64
	next   int
}

func (s *scripted) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

var epoch = time.Date(2026, 2, 17, 20, 0, 0, 0, time.UTC)

func TestExplode_Counts(t *testing.T) {
	ep := NewSeededSimulator(1).Explode(epoch)

	if len(ep.Particles) != ParticleCount {
		t.Errorf("particles = %d, want %d", len(ep.Particles), ParticleCount)
	}
	if len(ep.Rings) != 2 {
		t.Errorf("rings = %d, want 2", len(ep.Rings))
	}
	if !ep.StartedAt.Equal(epoch) {
		t.Errorf("StartedAt = %v, want %v", ep.StartedAt, epoch)
	}
}

func TestExplode_ScriptedDraws(t *testing.T) {
	// Each particle draws angle, speed, size, shape, duration, spin in that order.
	rng := &scripted{values: []float64{0.25, 0.5, 0.5, 0.1, 0.5, 0.5}}
	ep := NewSimulator(rng).Explode(epoch)

	p := ep.Particles[0]
	if math.Abs(p.Angle-math.Pi/2) > 1e-12 {
		t.Errorf("angle = %f, want π/2", p.Angle)
	}
	if p.Speed != 400 {
		t.Errorf("speed = %f, want 400", p.Speed)
	}
	if p.Size != 5 {
		t.Errorf("size = %f, want 5", p.Size)
	}
	if p.Shape != ShapeStar {
		t.Errorf("shape = %s, want star for draw below 0.3", p.Shape)
	}
	if p.Duration != time.Second {
		t.Errorf("duration = %v, want 1s", p.Duration)
	}
	if p.Spin != 360 {
		t.Errorf("spin = %f, want 360", p.Spin)
	}

	dx, dy := p.Displacement()
	if math.Abs(dx) > 1e-9 || math.Abs(dy-400) > 1e-9 {
		t.Errorf("displacement = (%f, %f), want (0, 400)", dx, dy)
	}
}

func TestExplode_ShapeThreshold(t *testing.T) {
	rng := &scripted{values: []float64{0, 0, 0, 0.3, 0, 0}}
	ep := NewSimulator(rng).Explode(epoch)

	for _, p := range ep.Particles {
		if p.Shape != ShapeDisc {
			t.Fatalf("particle %d: shape = %s, want disc for draw of 0.3", p.Index, p.Shape)
		}
	}
}

func TestExplode_PaletteCycles(t *testing.T) {
	ep := NewSeededSimulator(7).Explode(epoch)

	for i, p := range ep.Particles {
		if p.Index != i {
			t.Errorf("particle %d has index %d", i, p.Index)
		}
		if p.Color != Palette[i%4] {
			t.Errorf("particle %d color = %s, want %s", i, p.Color, Palette[i%4])
		}
	}
}

func TestExplode_SeedIsDeterministic(t *testing.T) {
	a := NewSeededSimulator(42).Explode(epoch)
	b := NewSeededSimulator(42).Explode(epoch)

	for i := range a.Particles {
		if a.Particles[i] != b.Particles[i] {
			t.Fatalf("particle %d differs between identical seeds", i)
		}
	}
	if a.ID == b.ID {
		t.Error("episodes should get distinct IDs")
	}
}

func TestShockwaves(t *testing.T) {
	rings := Shockwaves()

	inner, outer := rings[0], rings[1]
	if inner.FromScale != 0 || inner.ToScale != 4 || inner.Duration != 800*time.Millisecond || inner.Delay != 0 {
		t.Errorf("inner ring = %+v", inner)
	}
	if outer.FromScale != 0 || outer.ToScale != 6 || outer.Duration != time.Second || outer.Delay != 100*time.Millisecond {
		t.Errorf("outer ring = %+v", outer)
	}
	if inner.ToOpacity != 0 || outer.ToOpacity != 0 {
		t.Error("rings must fade to zero opacity")
	}
}

func TestRing_At(t *testing.T) {
	outer := Shockwaves()[1]

	start := outer.At(50 * time.Millisecond)
	if start.Scale != 0 || start.Opacity != 0.5 {
		t.Errorf("before delay: %+v, want scale 0 opacity 0.5", start)
	}

	end := outer.At(2 * time.Second)
	if end.Scale != 6 || end.Opacity != 0 {
		t.Errorf("after end: %+v, want scale 6 opacity 0", end)
	}

	mid := outer.At(600 * time.Millisecond)
	if mid.Scale <= 3 || mid.Scale >= 6 {
		t.Errorf("halfway scale = %f, want ease-out above linear 3", mid.Scale)
	}
}

func TestParticle_At(t *testing.T) {
	p := Particle{Angle: 0, Speed: 300, Duration: time.Second, Spin: 720}

	start := p.At(0)
	if start.X != 0 || start.Y != 0 || start.Scale != 1 || start.Opacity != 1 || start.Rotation != 0 {
		t.Errorf("t=0: %+v", start)
	}

	end := p.At(time.Second)
	if math.Abs(end.X-300) > 1e-9 || end.Scale != 0 || end.Opacity != 0 || end.Rotation != 720 {
		t.Errorf("t=duration: %+v", end)
	}

	after := p.At(5 * time.Second)
	if after != end {
		t.Errorf("sampling past the end should hold the final frame: %+v", after)
	}

	mid := p.At(500 * time.Millisecond)
	if mid.X <= 150 {
		t.Errorf("halfway X = %f, want decelerating curve past linear 150", mid.X)
	}
}

func TestEasing(t *testing.T) {
	for _, ease := range []func(float64) float64{CircOut, EaseOut} {
		if ease(0) != 0 || ease(1) != 1 {
			t.Error("easing must map 0->0 and 1->1")
		}
		if ease(-1) != 0 || ease(2) != 1 {
			t.Error("easing must clamp its input")
		}
	}
	if math.Abs(CircOut(0.5)-math.Sqrt(0.75)) > 1e-12 {
		t.Errorf("CircOut(0.5) = %f", CircOut(0.5))
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		elapsed, delay, duration time.Duration
		want                     float64
	}{
		{0, 0, time.Second, 0},
		{500 * time.Millisecond, 0, time.Second, 0.5},
		{time.Second, 0, time.Second, 1},
		{50 * time.Millisecond, 100 * time.Millisecond, time.Second, 0},
		{600 * time.Millisecond, 100 * time.Millisecond, time.Second, 0.5},
		{time.Second, 0, 0, 1},
	}

	for _, tt := range tests {
		if got := Progress(tt.elapsed, tt.delay, tt.duration); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Progress(%v, %v, %v) = %f, want %f", tt.elapsed, tt.delay, tt.duration, got, tt.want)
		}
	}
}

func TestEpisode_EndsAt(t *testing.T) {
	ep := &Episode{
		StartedAt: epoch,
		Particles: []Particle{{Duration: 900 * time.Millisecond}},
		Rings:     Shockwaves(),
	}

	// The outer ring (0.1s + 1s) outlasts the particle.
	if want := epoch.Add(1100 * time.Millisecond); !ep.EndsAt().Equal(want) {
		t.Errorf("EndsAt() = %v, want %v", ep.EndsAt(), want)
	}

	ep.Particles = append(ep.Particles, Particle{Duration: 1200 * time.Millisecond})
	if want := epoch.Add(1200 * time.Millisecond); !ep.EndsAt().Equal(want) {
		t.Errorf("EndsAt() = %v, want %v", ep.EndsAt(), want)
	}
}

func TestExplode_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		ep := NewSeededSimulator(seed).Explode(epoch)

		if len(ep.Particles) != ParticleCount {
			t.Fatalf("particles = %d", len(ep.Particles))
		}
		for _, p := range ep.Particles {
			if p.Angle < 0 || p.Angle >= 2*math.Pi {
				t.Fatalf("angle %f out of [0, 2π)", p.Angle)
			}
			if p.Speed < MinSpeed || p.Speed > MaxSpeed {
				t.Fatalf("speed %f out of range", p.Speed)
			}
			if p.Size < MinSize || p.Size > MaxSize {
				t.Fatalf("size %f out of range", p.Size)
			}
			if p.Duration < MinDuration || p.Duration > MaxDuration {
				t.Fatalf("duration %v out of range", p.Duration)
			}
			if p.Spin < 0 || p.Spin > MaxSpin {
				t.Fatalf("spin %f out of range", p.Spin)
			}
			if p.Shape != ShapeDisc && p.Shape != ShapeStar {
				t.Fatalf("unexpected shape %q", p.Shape)
			}
		}
		if ep.Rings != Shockwaves() {
			t.Fatal("rings must be the fixed shockwaves")
		}
	})
}

func TestExplode_StarShare(t *testing.T) {
	sim := NewSeededSimulator(2026)

	stars, total := 0, 0
	for range 200 {
		for _, p := range sim.Explode(epoch).Particles {
			if p.Shape == ShapeStar {
				stars++
			}
			total++
		}
	}

	ep := sim.Explode(epoch)
	want := 0
	for _, p := range ep.Particles {
		if p.Shape == ShapeStar {
			want++
		}
	}
	if ep.Stars() != want {
		t.Errorf("Stars() = %d, want %d", ep.Stars(), want)
	}

	share := float64(stars) / float64(total)
	if share < 0.27 || share > 0.33 {
		t.Errorf("star share = %.3f over %d particles, want about 0.3", share, total)
	}
}

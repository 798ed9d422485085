package explosion

import "time"

// Ring is a shockwave that expands from nothing while fading out.
type Ring struct {
	Name        string        `json:"name"`
	FromScale   float64       `json:"from_scale"`
	ToScale     float64       `json:"to_scale"`
	FromOpacity float64       `json:"from_opacity"`
	ToOpacity   float64       `json:"to_opacity"`
	Delay       time.Duration `json:"delay"`
	Duration    time.Duration `json:"duration"`
}

// Shockwaves returns the two fixed rings of every episode: an inner ring that
// reaches 4x in 0.8s and an outer ring that starts 0.1s later and reaches 6x in 1s.
func Shockwaves() [2]Ring {
	return [2]Ring{
		{
			Name:        "inner",
			FromScale:   0,
			ToScale:     4,
			FromOpacity: 0.8,
			ToOpacity:   0,
			Duration:    800 * time.Millisecond,
		},
		{
			Name:        "outer",
			FromScale:   0,
			ToScale:     6,
			FromOpacity: 0.5,
			ToOpacity:   0,
			Delay:       100 * time.Millisecond,
			Duration:    time.Second,
		},
	}
}

// At samples the ring elapsed time after the episode started. Before its
// delay the ring sits at its starting values.
func (r Ring) At(elapsed time.Duration) Frame {
	eased := EaseOut(Progress(elapsed, r.Delay, r.Duration))
	return Frame{
		Scale:   r.FromScale + (r.ToScale-r.FromScale)*eased,
		Opacity: r.FromOpacity + (r.ToOpacity-r.FromOpacity)*eased,
	}
}

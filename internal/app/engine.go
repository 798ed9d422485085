package app

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/explosion"
	"github.com/ayusman/kaishou/internal/gesture"
	"github.com/ayusman/kaishou/internal/landmark"
	"github.com/ayusman/kaishou/internal/transform"
)

// Frame is one landmark observation. A nil Hand means no hand was seen.
type Frame struct {
	Hand *landmark.Hand
	At   time.Time
}

// Result describes what one frame did.
type Result struct {
	Raw gesture.Raw
	// OpenFingers is -1 when the frame could not be classified.
	OpenFingers int
	Event       transform.Event
	Fired       bool
	// Episode and Tones are set only on EnterTransformed.
	Episode *explosion.Episode
	Tones   []chime.ToneEvent
	State   transform.Snapshot
}

// UpdateKind tells subscribers what an Update reports.
type UpdateKind string

const (
	UpdateTransition      UpdateKind = "transition"
	UpdateEpisodeFinished UpdateKind = "episode_finished"
)

// Update is pushed to subscribers on every transition and when an explosion
// episode ends.
type Update struct {
	Kind        UpdateKind         `json:"kind"`
	At          time.Time          `json:"at"`
	Event       string             `json:"event,omitempty"`
	Raw         string             `json:"raw,omitempty"`
	OpenFingers int                `json:"open_fingers"`
	Episode     *explosion.Episode `json:"episode,omitempty"`
	Tones       []chime.ToneEvent  `json:"tones,omitempty"`
	EpisodeID   string             `json:"episode_id,omitempty"`
	Cancelled   bool               `json:"cancelled,omitempty"`
	State       transform.Snapshot `json:"-"`
}

// StateView is the display form of the observable state.
type StateView struct {
	State          string `json:"state"`
	Gesture        string `json:"gesture"`
	Transformed    bool   `json:"transformed"`
	Caption        string `json:"caption"`
	Banner         string `json:"banner,omitempty"`
	Subtitle       string `json:"subtitle"`
	ActiveEpisodes int    `json:"active_episodes"`
	Enabled        bool   `json:"enabled"`
}

func newStateView(s transform.Snapshot, active int, enabled bool) StateView {
	return StateView{
		State:          s.State.String(),
		Gesture:        s.Gesture.String(),
		Transformed:    s.Transformed(),
		Caption:        transform.Caption(s.Gesture),
		Banner:         transform.Banner(s.State),
		Subtitle:       transform.FestiveSubtitle,
		ActiveEpisodes: active,
		Enabled:        enabled,
	}
}

// Process classifies one frame and advances the state machine. Entering the
// transformed state starts one explosion episode and one chime.
//
// Process is what Run calls for each submitted frame. Callers that drive the
// app synchronously, such as the simulate command and tests, may call it
// directly but must not do so while Run is active.
func (a *App) Process(ctx context.Context, f Frame) Result {
	if f.At.IsZero() {
		f.At = time.Now()
	}

	res := Result{Raw: gesture.RawUnknown, OpenFingers: -1}
	if f.Hand != nil {
		if n, ok := a.classifier.OpenFingers(f.Hand.Points[:]); ok {
			res.OpenFingers = n
			res.Raw = gesture.FromOpenFingers(n)
		}
	}

	// The machine's observer publishes the new snapshot before this returns.
	res.Event, res.Fired = a.machine.OnRawGesture(res.Raw)
	res.State = a.machine.Snapshot()

	if !res.Fired {
		return res
	}

	_, span := a.tracer.Start(ctx, "transform."+res.Event.String(),
		trace.WithTimestamp(f.At),
		trace.WithAttributes(
			attribute.String("gesture.raw", res.Raw.String()),
			attribute.Int("gesture.open_fingers", res.OpenFingers),
		),
	)
	defer span.End()

	if res.Event == transform.EnterTransformed {
		res.Episode = a.simulator.Explode(f.At)
		a.episodes.add(res.Episode)
		res.Tones = a.chimes.ScheduleChime(ctx, f.At)
		span.SetAttributes(attribute.String("episode.id", res.Episode.ID.String()))
	}

	log.Printf("%s (raw %s, %d open)", res.Event, res.Raw, res.OpenFingers)

	u := Update{
		Kind:        UpdateTransition,
		At:          f.At,
		Event:       res.Event.String(),
		Raw:         res.Raw.String(),
		OpenFingers: res.OpenFingers,
		Episode:     res.Episode,
		Tones:       res.Tones,
		State:       res.State,
	}
	if res.Episode != nil {
		u.EpisodeID = res.Episode.ID.String()
	}
	a.publish(u)

	return res
}

// episodeFinished runs on the episode timer goroutine, or on the caller of
// add or cancelAll when an episode is cut short.
func (a *App) episodeFinished(ep *explosion.Episode, at time.Time, cancelled bool) {
	a.publish(Update{
		Kind:      UpdateEpisodeFinished,
		At:        at,
		EpisodeID: ep.ID.String(),
		Cancelled: cancelled,
		State:     a.Snapshot(),
	})
}

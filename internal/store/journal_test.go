package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/kaishou/internal/chime"
)

var base = time.Date(2026, 2, 17, 20, 0, 0, 0, time.UTC)

func createEpisode(t *testing.T, s *Store, startedAt time.Time) *Episode {
	t.Helper()

	e := &Episode{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		EndsAt:    startedAt.Add(1200 * time.Millisecond),
		Particles: 45,
		Stars:     14,
		Tones:     chime.Chime(),
	}
	if err := s.Episodes().Create(e); err != nil {
		t.Fatalf("failed to create episode: %v", err)
	}
	return e
}

func TestEpisodeRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	want := createEpisode(t, s, base)

	got, err := s.Episodes().GetByID(want.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Particles != 45 || got.Stars != 14 {
		t.Errorf("counts = %d/%d, want 45/14", got.Particles, got.Stars)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.EndsAt.Equal(want.EndsAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.EndsAt, want.StartedAt, want.EndsAt)
	}
	if len(got.Tones) != 3 || got.Tones[2] != chime.Chime()[2] {
		t.Errorf("tones = %+v", got.Tones)
	}
	if got.FinishedAt != nil || got.Cancelled {
		t.Error("new episode should be unfinished")
	}
}

func TestEpisodeRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Episodes().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEpisodeRepository_Finish(t *testing.T) {
	s := newTestStore(t)
	e := createEpisode(t, s, base)

	finished := base.Add(1200 * time.Millisecond)
	if err := s.Episodes().Finish(e.ID, finished, true); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := s.Episodes().GetByID(e.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
	if !got.Cancelled {
		t.Error("expected episode to be marked cancelled")
	}

	if err := s.Episodes().Finish("missing", finished, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish(missing) = %v, want ErrNotFound", err)
	}
}

func TestEpisodeRepository_List(t *testing.T) {
	s := newTestStore(t)
	first := createEpisode(t, s, base)
	second := createEpisode(t, s, base.Add(time.Second))

	all, err := s.Episodes().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d episodes", len(all))
	}

	one, err := s.Episodes().List(1)
	if err != nil {
		t.Fatalf("List(1) error = %v", err)
	}
	if len(one) != 1 || one[0].ID != second.ID {
		t.Errorf("List(1) should return only the newest episode")
	}
}

func TestTransitionRepository(t *testing.T) {
	s := newTestStore(t)
	ep := createEpisode(t, s, base)

	enter := &Transition{
		ID:          uuid.NewString(),
		Event:       "ENTER_TRANSFORMED",
		Raw:         "OPEN",
		OpenFingers: 4,
		EpisodeID:   ep.ID,
		OccurredAt:  base,
	}
	exit := &Transition{
		ID:          uuid.NewString(),
		Event:       "EXIT_TRANSFORMED",
		Raw:         "FIST",
		OpenFingers: 0,
		OccurredAt:  base.Add(2 * time.Second),
	}
	for _, tr := range []*Transition{enter, exit} {
		if err := s.Transitions().Create(tr); err != nil {
			t.Fatalf("Create(%s) error = %v", tr.Event, err)
		}
	}

	got, err := s.Transitions().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	if got[0].Event != "EXIT_TRANSFORMED" || got[0].EpisodeID != "" {
		t.Errorf("newest = %+v, want exit without episode", got[0])
	}
	if got[1].EpisodeID != ep.ID || got[1].OpenFingers != 4 {
		t.Errorf("oldest = %+v, want enter linked to episode", got[1])
	}
}

func TestTransitionRepository_RejectsUnknownEvent(t *testing.T) {
	s := newTestStore(t)

	err := s.Transitions().Create(&Transition{
		ID:         uuid.NewString(),
		Event:      "WAVE",
		Raw:        "OPEN",
		OccurredAt: base,
	})
	if err == nil {
		t.Error("expected check constraint to reject unknown event")
	}
}

func TestTransitionRepository_RejectsDanglingEpisode(t *testing.T) {
	s := newTestStore(t)

	err := s.Transitions().Create(&Transition{
		ID:         uuid.NewString(),
		Event:      "ENTER_TRANSFORMED",
		Raw:        "OPEN",
		EpisodeID:  "no-such-episode",
		OccurredAt: base,
	})
	if err == nil {
		t.Error("expected foreign key to reject unknown episode")
	}
}

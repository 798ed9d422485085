package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/kaishou/internal/store"
)

const journalBuffer = 64

// journal writes updates to the store off the frame loop. When the store falls
// behind, updates are dropped rather than stalling detection.
type journal struct {
	store   *store.Store
	entries chan Update

	mu     sync.Mutex
	closed bool
}

func newJournal(s *store.Store) *journal {
	return &journal{
		store:   s,
		entries: make(chan Update, journalBuffer),
	}
}

func (j *journal) record(u Update) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		log.Printf("journal stopped, dropping %s %s", u.Kind, u.EpisodeID)
		return
	}
	select {
	case j.entries <- u:
	default:
		log.Printf("journal full, dropping %s", u.Kind)
	}
}

// run writes entries until ctx is done, then closes the journal to new
// entries and writes what is already queued.
func (j *journal) run(ctx context.Context) {
	j.mu.Lock()
	j.closed = false
	j.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			j.mu.Lock()
			j.closed = true
			j.mu.Unlock()
			j.drain()
			return
		case u := <-j.entries:
			if err := j.write(u); err != nil {
				log.Printf("journal: %v", err)
			}
		}
	}
}

// drain writes whatever is already queued.
func (j *journal) drain() {
	for {
		select {
		case u := <-j.entries:
			if err := j.write(u); err != nil {
				log.Printf("journal: %v", err)
			}
		default:
			return
		}
	}
}

func (j *journal) write(u Update) error {
	switch u.Kind {
	case UpdateTransition:
		if u.Episode != nil {
			if err := j.store.Episodes().Create(episodeRecord(u)); err != nil {
				return fmt.Errorf("record episode %s: %w", u.EpisodeID, err)
			}
		}
		err := j.store.Transitions().Create(&store.Transition{
			ID:          uuid.NewString(),
			Event:       u.Event,
			Raw:         u.Raw,
			OpenFingers: u.OpenFingers,
			EpisodeID:   u.EpisodeID,
			OccurredAt:  u.At,
		})
		if err != nil {
			return fmt.Errorf("record %s: %w", u.Event, err)
		}
	case UpdateEpisodeFinished:
		if err := j.store.Episodes().Finish(u.EpisodeID, u.At, u.Cancelled); err != nil {
			return fmt.Errorf("finish episode %s: %w", u.EpisodeID, err)
		}
	}
	return nil
}

func episodeRecord(u Update) *store.Episode {
	ep := u.Episode
	return &store.Episode{
		ID:        ep.ID.String(),
		StartedAt: ep.StartedAt,
		EndsAt:    ep.EndsAt(),
		Particles: len(ep.Particles),
		Stars:     ep.Stars(),
		Tones:     u.Tones,
	}
}

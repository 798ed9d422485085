package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Transition is a journaled state machine transition.
type Transition struct {
	ID          string
	Event       string
	Raw         string
	OpenFingers int
	EpisodeID   string // empty for exits
	OccurredAt  time.Time
}

// TransitionRepository provides access to the transitions table.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Create inserts a transition. Times are stored in UTC so they sort as text.
func (r *TransitionRepository) Create(t *Transition) error {
	var episodeID sql.NullString
	if t.EpisodeID != "" {
		episodeID = sql.NullString{String: t.EpisodeID, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO transitions (id, event, raw, open_fingers, episode_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Event, t.Raw, t.OpenFingers, episodeID, t.OccurredAt.UTC(),
	)
	return err
}

// List returns up to limit transitions, newest first. A limit of zero or less
// returns all of them.
func (r *TransitionRepository) List(limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, event, raw, open_fingers, episode_id, occurred_at
		 FROM transitions ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		var episodeID sql.NullString

		if err := rows.Scan(&t.ID, &t.Event, &t.Raw, &t.OpenFingers, &episodeID, &t.OccurredAt); err != nil {
			return nil, err
		}

		t.EpisodeID = episodeID.String
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}

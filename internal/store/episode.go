package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
)

// Episode is a journaled explosion episode.
type Episode struct {
	ID         string
	StartedAt  time.Time
	EndsAt     time.Time
	Particles  int
	Stars      int
	Tones      []chime.ToneEvent
	FinishedAt *time.Time
	Cancelled  bool
}

// EpisodeRepository provides access to the episodes table.
type EpisodeRepository struct {
	db *sql.DB
}

// Episodes returns the episode repository for this store.
func (s *Store) Episodes() *EpisodeRepository {
	return &EpisodeRepository{db: s.db}
}

// Create inserts an episode.
func (r *EpisodeRepository) Create(e *Episode) error {
	tones, err := json.Marshal(e.Tones)
	if err != nil {
		return fmt.Errorf("encode tones: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO episodes (id, started_at, ends_at, particles, stars, tones)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UTC(), e.EndsAt.UTC(), e.Particles, e.Stars, string(tones),
	)
	return err
}

// Finish records when an episode ended and whether it was cut short.
// Returns ErrNotFound if the episode does not exist.
func (r *EpisodeRepository) Finish(id string, at time.Time, cancelled bool) error {
	result, err := r.db.Exec(
		`UPDATE episodes SET finished_at = ?, cancelled = ? WHERE id = ?`,
		at.UTC(), cancelled, id,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves an episode by its ID.
func (r *EpisodeRepository) GetByID(id string) (*Episode, error) {
	row := r.db.QueryRow(
		`SELECT id, started_at, ends_at, particles, stars, tones, finished_at, cancelled
		 FROM episodes WHERE id = ?`,
		id,
	)

	e, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// List returns up to limit episodes, newest first. A limit of zero or less
// returns all of them.
func (r *EpisodeRepository) List(limit int) ([]*Episode, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, started_at, ends_at, particles, stars, tones, finished_at, cancelled
		 FROM episodes ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return episodes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(s scanner) (*Episode, error) {
	e := &Episode{}
	var tones string
	var finishedAt sql.NullTime

	if err := s.Scan(&e.ID, &e.StartedAt, &e.EndsAt, &e.Particles, &e.Stars, &tones, &finishedAt, &e.Cancelled); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tones), &e.Tones); err != nil {
		return nil, fmt.Errorf("decode tones for episode %s: %w", e.ID, err)
	}
	if finishedAt.Valid {
		e.FinishedAt = &finishedAt.Time
	}
	return e, nil
}

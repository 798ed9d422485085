package chime

import (
	"context"
	"fmt"
	"log"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/backend_mock.go -package=mocks . Backend

// Backend synthesizes scheduled tones. Play must return promptly; backends
// that block on playback run it in their own goroutine.
type Backend interface {
	Play(ctx context.Context, start time.Time, tones []ToneEvent) error
}

// Scheduler hands the chime to a backend and absorbs any backend failure.
type Scheduler struct {
	backend Backend
}

// NewScheduler returns a Scheduler. A nil backend makes every chime silent.
func NewScheduler(backend Backend) *Scheduler {
	return &Scheduler{backend: backend}
}

// ScheduleChime schedules the three sparkle tones at now and returns them.
// The returned schedule is the same whether or not the backend plays it.
func (s *Scheduler) ScheduleChime(ctx context.Context, now time.Time) []ToneEvent {
	tones := Chime()
	if s.backend == nil {
		return tones
	}

	if err := s.play(ctx, now, tones); err != nil {
		log.Printf("chime skipped: %v", err)
	}
	return tones
}

func (s *Scheduler) play(ctx context.Context, now time.Time, tones []ToneEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audio backend panic: %v", r)
		}
	}()
	return s.backend.Play(ctx, now, tones)
}

// Silent is a Backend that drops every tone.
type Silent struct{}

// Play does nothing.
func (Silent) Play(context.Context, time.Time, []ToneEvent) error { return nil }

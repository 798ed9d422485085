package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
)

// ChimePlayer is the name of the plugin that plays tone schedules.
const ChimePlayer = "chime-player"

// Actions understood by the chime-player.
const (
	ActionPlay   = "play"
	ActionRender = "render"
)

// ErrUnsupportedAction is returned when a plugin's manifest does not list the
// action it is asked to run.
var ErrUnsupportedAction = errors.New("action not supported")

// ChimeBackend is a chime.Backend that hands schedules to the chime-player
// plugin. Play returns as soon as the plugin is launched.
type ChimeBackend struct {
	manager  *Manager
	executor *Executor
	name     string

	wg sync.WaitGroup
}

var _ chime.Backend = (*ChimeBackend)(nil)

// NewChimeBackend creates a backend that runs the chime-player plugin found by manager.
func NewChimeBackend(manager *Manager, executor *Executor) *ChimeBackend {
	return &ChimeBackend{
		manager:  manager,
		executor: executor,
		name:     ChimePlayer,
	}
}

// Play launches the plugin with the schedule. Only lookup and encoding errors
// are returned; playback failures are logged.
func (b *ChimeBackend) Play(ctx context.Context, start time.Time, tones []chime.ToneEvent) error {
	plug, err := b.manager.Get(b.name)
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	if !plug.Supports(ActionPlay) {
		return fmt.Errorf("%s: %w: %s", b.name, ErrUnsupportedAction, ActionPlay)
	}

	params, err := json.Marshal(NewPlayParams(start, tones))
	if err != nil {
		return fmt.Errorf("encode play params: %w", err)
	}
	req := &Request{Action: ActionPlay, Params: params}

	// Playback outlives the frame that triggered it.
	runCtx := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		resp, err := b.executor.Execute(runCtx, plug, req)
		if err != nil {
			log.Printf("chime player: %v", err)
			return
		}
		if !resp.Success {
			log.Printf("chime player: %s", resp.Error)
		}
	}()

	return nil
}

// Wait blocks until every launched playback has finished.
func (b *ChimeBackend) Wait() {
	b.wg.Wait()
}

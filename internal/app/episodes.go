package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/kaishou/internal/explosion"
)

// episodeRegistry tracks playing explosions. Each episode ends on its own
// timer; episodes never touch the state machine.
type episodeRegistry struct {
	mu     sync.Mutex
	active map[uuid.UUID]*episodeEntry
	order  []uuid.UUID // oldest first
	max    int
	idle   []chan struct{}

	onFinish func(ep *explosion.Episode, at time.Time, cancelled bool)
}

type episodeEntry struct {
	ep    *explosion.Episode
	timer *time.Timer
}

func newEpisodeRegistry(max int, onFinish func(*explosion.Episode, time.Time, bool)) *episodeRegistry {
	return &episodeRegistry{
		active:   make(map[uuid.UUID]*episodeEntry),
		max:      max,
		onFinish: onFinish,
	}
}

// add starts ep's timer. When the registry is capped and full, the oldest
// episode is cut short first.
func (r *episodeRegistry) add(ep *explosion.Episode) {
	var evicted []*episodeEntry

	r.mu.Lock()
	for r.max > 0 && len(r.order) >= r.max {
		evicted = append(evicted, r.removeLocked(r.order[0]))
	}

	id := ep.ID
	r.active[id] = &episodeEntry{
		ep: ep,
		timer: time.AfterFunc(ep.EndsAt().Sub(ep.StartedAt), func() {
			r.finish(id)
		}),
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	for _, e := range evicted {
		e.timer.Stop()
		r.notify(e.ep, true)
	}
}

// finish ends one episode that ran its course. Unknown IDs are ignored so a
// timer racing with a cancellation reports the episode only once.
func (r *episodeRegistry) finish(id uuid.UUID) {
	r.mu.Lock()
	e := r.removeLocked(id)
	r.mu.Unlock()

	if e != nil {
		r.notify(e.ep, false)
		r.signalIdle()
	}
}

// cancelAll cuts every playing episode short.
func (r *episodeRegistry) cancelAll() {
	r.mu.Lock()
	entries := make([]*episodeEntry, 0, len(r.order))
	for len(r.order) > 0 {
		entries = append(entries, r.removeLocked(r.order[0]))
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.timer.Stop()
		r.notify(e.ep, true)
	}
	r.signalIdle()
}

// wait blocks until no episode is playing, or until timeout. It reports
// whether the registry emptied. Finish notifications have been delivered
// by the time it returns true.
func (r *episodeRegistry) wait(timeout time.Duration) bool {
	r.mu.Lock()
	if len(r.order) == 0 {
		r.mu.Unlock()
		return true
	}
	ch := make(chan struct{})
	r.idle = append(r.idle, ch)
	r.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

func (r *episodeRegistry) signalIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) > 0 {
		return
	}
	for _, ch := range r.idle {
		close(ch)
	}
	r.idle = nil
}

func (r *episodeRegistry) removeLocked(id uuid.UUID) *episodeEntry {
	e, ok := r.active[id]
	if !ok {
		return nil
	}
	delete(r.active, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return e
}

func (r *episodeRegistry) notify(ep *explosion.Episode, cancelled bool) {
	if r.onFinish != nil {
		r.onFinish(ep, time.Now(), cancelled)
	}
}

func (r *episodeRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *episodeRegistry) list() []*explosion.Episode {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*explosion.Episode, len(r.order))
	for i, id := range r.order {
		out[i] = r.active[id].ep
	}
	return out
}

// Package app wires the landmark sources to the gesture classifier, the
// transformation state machine and the explosion and chime effects.
//
// Frames enter through Submit and are consumed by a single Run loop, which is
// the only goroutine that touches the state machine. Explosion episodes run on
// their own timers and report back through Update notifications.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/kaishou/internal/capture"
	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/detector"
	"github.com/ayusman/kaishou/internal/explosion"
	"github.com/ayusman/kaishou/internal/gesture"
	"github.com/ayusman/kaishou/internal/store"
	"github.com/ayusman/kaishou/internal/transform"
)

// DefaultQueueSize is the number of frames Submit can buffer ahead of Run.
const DefaultQueueSize = 8

// settleTimeout bounds how long Run waits for playing episodes on shutdown.
// It covers the longest possible episode.
const settleTimeout = explosion.MaxDuration + time.Second

var (
	// ErrNotRunning is returned by Submit when no Run loop is consuming frames.
	ErrNotRunning = errors.New("app is not running")
	// ErrQueueFull is returned by Submit when the frame queue is full. The
	// frame is dropped; the next one carries the same information.
	ErrQueueFull = errors.New("frame queue is full")
)

// Config holds configuration options for the application.
type Config struct {
	// Threshold is the fingertip extension distance. Zero uses gesture.ExtendedThreshold.
	Threshold float64
	// Seed makes explosions reproducible. Zero seeds from the runtime.
	Seed uint64
	// MaxEpisodes caps concurrently playing explosions. Zero means unlimited;
	// otherwise the oldest episode is cut short to make room.
	MaxEpisodes int
	// CancelEpisodesOnStop cuts playing explosions short on Stop instead of
	// letting them finish.
	CancelEpisodesOnStop bool
	// QueueSize is the Submit buffer. Zero uses DefaultQueueSize.
	QueueSize int

	Camera capture.Config
	// MotionThreshold is the percentage of changed pixels needed before a
	// camera frame is sent to the detector. Zero analyses every frame.
	MotionThreshold float64

	// Detector overrides the MediaPipe detector.
	Detector detector.Detector
	// Backend plays the chime. Nil is silent.
	Backend chime.Backend
	// Store receives the transition journal. Nil disables journaling.
	Store *store.Store
	// Tracer records a span per transition. Nil uses the global provider.
	Tracer trace.Tracer
}

// App is the main application that turns hand landmarks into transformations.
type App struct {
	config     Config
	classifier gesture.Classifier
	machine    *transform.Machine
	simulator  *explosion.Simulator
	chimes     *chime.Scheduler
	episodes   *episodeRegistry
	journal    *journal
	tracer     trace.Tracer

	camera   capture.Camera
	motion   *capture.MotionGate
	detector detector.Detector

	frames  chan Frame
	running atomic.Bool

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}

	snapMu sync.RWMutex
	snap   transform.Snapshot

	subMu       sync.Mutex
	subscribers []*subscriber
}

type subscriber struct {
	fn func(Update)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	queue := config.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}

	sim := explosion.NewSimulator(nil)
	if config.Seed != 0 {
		sim = explosion.NewSeededSimulator(config.Seed)
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/ayusman/kaishou/internal/app")
	}

	a := &App{
		config:     config,
		classifier: gesture.NewClassifier(config.Threshold),
		machine:    transform.NewMachine(),
		simulator:  sim,
		chimes:     chime.NewScheduler(config.Backend),
		tracer:     tracer,
		camera:     capture.NewCamera(config.Camera),
		frames:     make(chan Frame, queue),
		enabled:    true,
	}
	a.snap = a.machine.Snapshot()
	a.machine.Subscribe(func(_ transform.Event, snap transform.Snapshot) {
		a.snapMu.Lock()
		a.snap = snap
		a.snapMu.Unlock()
	})
	a.episodes = newEpisodeRegistry(config.MaxEpisodes, a.episodeFinished)

	if config.MotionThreshold > 0 {
		a.motion = capture.NewMotionGate(config.MotionThreshold)
	}

	if config.Store != nil {
		a.journal = newJournal(config.Store)
		a.Subscribe(a.journal.record)
	}

	a.detector = config.Detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), camera frames will have no hands", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// Run consumes submitted frames until ctx is cancelled. It is the only
// goroutine that drives the state machine.
//
// On cancellation Run settles the playing episodes before it returns: they
// are cut short when CancelEpisodesOnStop is set, otherwise they get up to
// settleTimeout to finish. Their finish records reach the journal before its
// final drain.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("app is already running")
	}
	defer a.running.Store(false)

	g, ctx := errgroup.WithContext(ctx)

	// The journal outlives the frame loop so that it still sees the
	// episode_finished updates published while settling.
	journalCtx, stopJournal := context.WithCancel(context.WithoutCancel(ctx))
	defer stopJournal()

	if a.journal != nil {
		g.Go(func() error {
			a.journal.run(journalCtx)
			return nil
		})
	}

	g.Go(func() error {
		defer stopJournal()
		for {
			select {
			case <-ctx.Done():
				a.running.Store(false)
				a.settleEpisodes()
				return nil
			case f := <-a.frames:
				a.Process(ctx, f)
			}
		}
	})

	return g.Wait()
}

// settleEpisodes ends or waits out the playing episodes.
func (a *App) settleEpisodes() {
	if a.config.CancelEpisodesOnStop {
		a.episodes.cancelAll()
		return
	}
	if !a.episodes.wait(settleTimeout) {
		log.Printf("episodes still playing after %v, cancelling", settleTimeout)
		a.episodes.cancelAll()
	}
}

// Running reports whether Run is consuming frames.
func (a *App) Running() bool {
	return a.running.Load()
}

// Submit queues a frame for the Run loop without blocking.
func (a *App) Submit(f Frame) error {
	if !a.running.Load() {
		return ErrNotRunning
	}
	if f.At.IsZero() {
		f.At = time.Now()
	}

	select {
	case a.frames <- f:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers fn for every Update. fn runs on the goroutine that
// produced the update and must not block. The returned func unsubscribes.
func (a *App) Subscribe(fn func(Update)) (unsubscribe func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	s := &subscriber{fn: fn}
	a.subscribers = append(a.subscribers, s)

	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		for i, cur := range a.subscribers {
			if cur == s {
				a.subscribers = append(a.subscribers[:i], a.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (a *App) publish(u Update) {
	a.subMu.Lock()
	subs := make([]*subscriber, len(a.subscribers))
	copy(subs, a.subscribers)
	a.subMu.Unlock()

	for _, s := range subs {
		s.fn(u)
	}
}

// Snapshot returns the state as of the last processed frame. Safe for
// concurrent use.
func (a *App) Snapshot() transform.Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snap
}

// State returns the current observable state for display.
func (a *App) State() StateView {
	return newStateView(a.Snapshot(), a.episodes.len(), a.IsEnabled())
}

// ActiveEpisodes returns the explosions that are still playing, oldest first.
func (a *App) ActiveEpisodes() []*explosion.Episode {
	return a.episodes.list()
}

// SetEnabled enables or disables camera detection. Frames submitted by other
// sources are still processed.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether camera detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Start opens the camera and begins the camera pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("camera pipeline started")
	return nil
}

// Stop halts the camera pipeline and releases resources. Playing explosions
// finish on their own unless CancelEpisodesOnStop is set.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.mu.Lock()
	if err := a.camera.Close(); err != nil {
		log.Printf("error closing camera: %v", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("error closing detector: %v", err)
		}
	}
	a.mu.Unlock()

	if a.config.CancelEpisodesOnStop {
		a.episodes.cancelAll()
	}

	log.Println("camera pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

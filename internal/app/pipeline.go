package app

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/kaishou/internal/landmark"
)

// runPipeline reads camera frames at the camera's rate and submits the first
// detected hand of each to the Run loop.
//
// Pipeline logic:
//  1. Skip the tick while detection is disabled
//  2. Skip frames the motion gate considers still
//  3. Run hand detection and submit the first hand, or no hand
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	cam := a.Camera()
	ticker := time.NewTicker(time.Second / time.Duration(cam.FPS()))
	defer ticker.Stop()

	dropped := 0

	for {
		select {
		case <-stopCh:
			if dropped > 0 {
				log.Printf("dropped %d camera frames on a full queue", dropped)
			}
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			hand, ok := a.detectFrame()
			if !ok {
				continue
			}

			if err := a.Submit(Frame{Hand: hand, At: time.Now()}); errors.Is(err, ErrQueueFull) {
				dropped++
			}
		}
	}
}

// detectFrame reads and analyses one camera frame. ok is false when the frame
// should not be submitted.
func (a *App) detectFrame() (hand *landmark.Hand, ok bool) {
	frame, err := a.Camera().ReadFrame()
	if err != nil {
		log.Printf("error reading frame: %v", err)
		return nil, false
	}
	defer frame.Close()

	if a.motion != nil {
		if moved, _ := a.motion.Allow(frame); !moved {
			return nil, false
		}
	}

	d := a.Detector()
	if d == nil {
		return nil, false
	}

	hands, err := d.Detect(frame)
	if err != nil {
		log.Printf("error detecting hands: %v", err)
		return nil, false
	}

	return landmark.First(hands), true
}

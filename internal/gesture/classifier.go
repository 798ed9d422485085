// Package gesture turns a single frame of hand landmarks into a raw open/fist label.
package gesture

import "github.com/ayusman/kaishou/internal/landmark"

// Raw is the unsmoothed, single-frame classification of a hand pose.
type Raw int

const (
	// RawUnknown covers no hand, malformed input and the ambiguous two-finger pose.
	RawUnknown Raw = iota
	// RawOpen is three or more extended fingers.
	RawOpen
	// RawFist is at most one extended finger.
	RawFist
)

// String returns the label used in logs and on the wire.
func (r Raw) String() string {
	switch r {
	case RawOpen:
		return "OPEN"
	case RawFist:
		return "FIST"
	default:
		return "UNKNOWN"
	}
}

// ExtendedThreshold is the wrist-to-fingertip distance, in normalized image
// units, above which a finger counts as extended.
const ExtendedThreshold = 0.18

// Classifier maps landmark sets to raw gestures using a fixed extension threshold.
// The zero value uses ExtendedThreshold.
type Classifier struct {
	Threshold float64
}

// NewClassifier returns a Classifier with the given threshold.
// Non-positive thresholds fall back to ExtendedThreshold.
func NewClassifier(threshold float64) Classifier {
	if threshold <= 0 {
		threshold = ExtendedThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify labels one hand. A nil hand is RawUnknown.
func (c Classifier) Classify(hand *landmark.Hand) Raw {
	if hand == nil {
		return RawUnknown
	}
	return c.ClassifyPoints(hand.Points[:])
}

// ClassifyPoints labels an ordered landmark slice. Anything other than a full
// 21-point skeleton with finite wrist and fingertip coordinates is RawUnknown.
func (c Classifier) ClassifyPoints(points []landmark.Point3D) Raw {
	open, ok := c.OpenFingers(points)
	if !ok {
		return RawUnknown
	}
	return FromOpenFingers(open)
}

// FromOpenFingers maps an extended finger count to a raw gesture: three or
// more is open, one or none is a fist, exactly two is ambiguous.
func FromOpenFingers(open int) Raw {
	switch {
	case open >= 3:
		return RawOpen
	case open <= 1:
		return RawFist
	default:
		return RawUnknown
	}
}

// OpenFingers counts extended non-thumb fingers. ok is false when the input
// cannot be classified.
func (c Classifier) OpenFingers(points []landmark.Point3D) (open int, ok bool) {
	if len(points) != landmark.NumLandmarks {
		return 0, false
	}

	threshold := c.Threshold
	if threshold <= 0 {
		threshold = ExtendedThreshold
	}

	wrist := points[landmark.Wrist]
	if !wrist.Finite() {
		return 0, false
	}

	for _, idx := range landmark.FingerTips {
		tip := points[idx]
		if !tip.Finite() {
			return 0, false
		}
		if landmark.Distance2D(tip, wrist) > threshold {
			open++
		}
	}
	return open, true
}

var defaultClassifier Classifier

// Classify labels one hand with the default threshold.
func Classify(hand *landmark.Hand) Raw {
	return defaultClassifier.Classify(hand)
}

// ClassifyPoints labels a landmark slice with the default threshold.
func ClassifyPoints(points []landmark.Point3D) Raw {
	return defaultClassifier.ClassifyPoints(points)
}

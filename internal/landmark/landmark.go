// Package landmark holds the 21-point hand skeleton shared by the detectors
// and the gesture classifier. It has no cgo dependencies.
package landmark

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the four non-thumb fingertip indices, index finger first.
var FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D is a landmark in normalized image space. X and Y are in [0,1];
// Z is relative depth and may be zero when the source is 2-D only.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between a and b in the image plane.
// Depth is ignored.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Finite reports whether both planar coordinates are real numbers.
func (p Point3D) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Hand represents the 21 hand landmarks of a single tracked hand.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a Hand from an ordered point slice.
// It returns false when the slice does not hold exactly NumLandmarks points.
func FromPoints(points []Point3D) (*Hand, bool) {
	if len(points) != NumLandmarks {
		return nil, false
	}

	hand := &Hand{}
	copy(hand.Points[:], points)
	return hand, true
}

// First returns the first detected hand, or nil when none was found.
func First(hands []Hand) *Hand {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}

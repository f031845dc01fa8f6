package framing

// SmoothedState holds the current smoothed pan/zoom state. It is created
// once at startup, owned exclusively by the Controller, and advanced toward
// the per-frame target by exponential moving average.
type SmoothedState struct {
	Center Point
	Zoom   float64
}

// NewSmoothedState returns the neutral starting state: frame center, no zoom.
func NewSmoothedState(frameWidth, frameHeight int) SmoothedState {
	return SmoothedState{
		Center: Point{X: float64(frameWidth) / 2, Y: float64(frameHeight) / 2},
		Zoom:   1.0,
	}
}

// Advance moves the state one EMA step toward the target. Pan and zoom use
// independent alphas; each axis of the center is smoothed independently.
func (s *SmoothedState) Advance(target TrackTarget, panAlpha, zoomAlpha float64) {
	s.Center.X = smooth(s.Center.X, target.Center.X, panAlpha)
	s.Center.Y = smooth(s.Center.Y, target.Center.Y, panAlpha)
	s.Zoom = smooth(s.Zoom, target.Zoom, zoomAlpha)
}

// smooth applies one exponential moving average step:
//
//	new = (1-alpha)*current + alpha*target
//
// alpha=1 jumps straight to the target; small alphas converge geometrically,
// the error decaying as (1-alpha)^n over n frames.
func smooth(current, target, alpha float64) float64 {
	return (1-alpha)*current + alpha*target
}

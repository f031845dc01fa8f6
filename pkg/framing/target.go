package framing

import (
	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
)

// fallbackZoom is the neutral pull-back applied when no face is detected.
// The camera retreats toward a wide, stable framing instead of freezing
// wherever tracking was lost.
const fallbackZoom = 1.5

// Point is a 2D position in pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// TrackTarget is the desired framing for the current frame: where the
// crop window should center and how far it should zoom. Recomputed from
// scratch every frame, never mutated.
type TrackTarget struct {
	Center Point
	Zoom   float64
}

// EstimateTarget computes the desired framing from the current detections.
//
// With detections, the largest box is assumed to be the primary subject:
// the target centers on it and the zoom is chosen so the face occupies
// idealFaceWidth pixels, clamped to [minZoom, maxZoom]. With no detections
// the target falls back to frame center at the neutral pull-back zoom.
//
// Pure function of its inputs; always returns a valid target.
func EstimateTarget(boxes []detection.BoundingBox, frameWidth, frameHeight int, idealFaceWidth, minZoom, maxZoom float64) TrackTarget {
	face := detection.Largest(boxes)
	if face == nil {
		return TrackTarget{
			Center: Point{X: float64(frameWidth) / 2, Y: float64(frameHeight) / 2},
			Zoom:   clamp(fallbackZoom, minZoom, maxZoom),
		}
	}

	cx, cy := face.Center()

	// ideal 480px, actual 240px -> zoom 2.0 (push in)
	// ideal 480px, actual 600px -> zoom 0.8 (pull out, then clamped)
	zoom := idealFaceWidth / float64(face.Width)

	return TrackTarget{
		Center: Point{X: cx, Y: cy},
		Zoom:   clamp(zoom, minZoom, maxZoom),
	}
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

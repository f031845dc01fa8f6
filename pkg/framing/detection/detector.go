// Package detection provides face detection backends for auto-framing.
package detection

import "gocv.io/x/gocv"

// BoundingBox is an axis-aligned detection rectangle in pixel coordinates.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the center point of the box.
func (b BoundingBox) Center() (x, y float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Area returns the area of the box in pixels.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Valid reports whether the box has positive extent.
// Detector backends filter invalid boxes before returning,
// so downstream consumers never see degenerate rectangles.
func (b BoundingBox) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

// Detector is the interface for face detection backends.
// Implementations must be callable once per frame and hold no
// state that depends on previous frames.
type Detector interface {
	// Detect finds faces in the grayscale frame and returns their
	// bounding boxes in pixel coordinates.
	Detect(gray *gocv.Mat) ([]BoundingBox, error)

	// Close releases resources
	Close() error
}

// Largest returns the box with the maximum area, or nil for an empty slice.
// Ties keep the first box in detector order.
func Largest(boxes []BoundingBox) *BoundingBox {
	if len(boxes) == 0 {
		return nil
	}

	best := &boxes[0]
	for i := 1; i < len(boxes); i++ {
		if boxes[i].Area() > best.Area() {
			best = &boxes[i]
		}
	}
	return best
}

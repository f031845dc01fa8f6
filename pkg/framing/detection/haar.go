package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-autoframe/pkg/debug"
	"gocv.io/x/gocv"
)

// HaarConfig holds Haar cascade detector parameters.
type HaarConfig struct {
	ModelPath    string  // Path to cascade XML
	ScaleFactor  float64 // Image pyramid scale step (smaller = slower, more precise)
	MinNeighbors int     // Required neighbor rectangles (higher = fewer false positives)
}

// DefaultHaarConfig returns production defaults for the frontal face cascade.
func DefaultHaarConfig() HaarConfig {
	return HaarConfig{
		ModelPath:    "models/haarcascade_frontalface_default.xml",
		ScaleFactor:  1.1,
		MinNeighbors: 5,
	}
}

// HaarDetector detects faces with an OpenCV Haar cascade classifier.
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	config     HaarConfig
	mu         sync.Mutex // Protects inference
}

// NewHaar creates a Haar cascade face detector from the cascade XML file.
func NewHaar(cfg HaarConfig) (*HaarDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", cfg.ModelPath)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.ModelPath) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade: %s", cfg.ModelPath)
	}

	return &HaarDetector{
		classifier: classifier,
		config:     cfg,
	}, nil
}

// Detect finds faces in the grayscale frame.
func (d *HaarDetector) Detect(gray *gocv.Mat) ([]BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gray.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		*gray,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,                // Flags (unused by modern cascades)
		image.Pt(0, 0),   // No minimum size
		image.Pt(0, 0),   // No maximum size
	)

	var boxes []BoundingBox
	for _, r := range rects {
		b := BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		if !b.Valid() {
			continue
		}
		boxes = append(boxes, b)
	}

	if len(boxes) > 0 {
		debug.TrackLog("[haar] found %d face(s)\n", len(boxes))
	}

	return boxes, nil
}

// Close releases the classifier resources.
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

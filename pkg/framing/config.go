// Package framing implements the auto-framing control loop: per-frame target
// estimation from face detections, exponential smoothing of pan/zoom state,
// and the crop-and-rescale transform that keeps the subject framed at a
// consistent apparent size.
package framing

import "fmt"

// Config holds all tunable parameters for the framing loop.
type Config struct {
	// Framing
	IdealFaceWidthRatio float64 // Desired face width as a fraction of frame width (0-1]

	// Zoom bounds
	MinZoom float64 // Never zoom out past this (1.0 = full frame)
	MaxZoom float64 // Never zoom in past this (higher = more pixelation)

	// Smoothing (EMA alphas, higher = more responsive, lower = smoother)
	PanSmoothing  float64 // For center movement
	ZoomSmoothing float64 // For zoom movement (slower: zoom jitter is more visible than pan jitter)

	// Pacing
	TargetFPS float64 // Output frame rate cap; 0 runs at source speed
}

// DefaultConfig returns the recommended configuration for webcam framing.
func DefaultConfig() Config {
	return Config{
		// 25% of frame width leaves comfortable headroom around the face
		IdealFaceWidthRatio: 0.25,

		// Zoom bounds - above 2.5x gets visibly pixelated
		MinZoom: 1.0,
		MaxZoom: 2.5,

		// Smoothing - zoom deliberately slower than pan
		PanSmoothing:  0.10,
		ZoomSmoothing: 0.05,

		// No pacing by default; follow the capture device
		TargetFPS: 0,
	}
}

// SlowConfig returns a configuration for slower, calmer framing.
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.PanSmoothing = 0.05
	cfg.ZoomSmoothing = 0.02
	return cfg
}

// AggressiveConfig returns a configuration for fast, reactive framing.
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.PanSmoothing = 0.25
	cfg.ZoomSmoothing = 0.12
	cfg.MaxZoom = 3.0
	return cfg
}

// Validate checks the configuration once at startup.
func (c Config) Validate() error {
	if c.IdealFaceWidthRatio <= 0 || c.IdealFaceWidthRatio > 1 {
		return fmt.Errorf("ideal face width ratio must be in (0,1], got %v", c.IdealFaceWidthRatio)
	}
	// Zoom below 1.0 would need a crop window larger than the frame
	if c.MinZoom < 1 {
		return fmt.Errorf("min zoom must be at least 1.0, got %v", c.MinZoom)
	}
	if c.MinZoom > c.MaxZoom {
		return fmt.Errorf("min zoom %v exceeds max zoom %v", c.MinZoom, c.MaxZoom)
	}
	if c.PanSmoothing <= 0 || c.PanSmoothing > 1 {
		return fmt.Errorf("pan smoothing must be in (0,1], got %v", c.PanSmoothing)
	}
	if c.ZoomSmoothing <= 0 || c.ZoomSmoothing > 1 {
		return fmt.Errorf("zoom smoothing must be in (0,1], got %v", c.ZoomSmoothing)
	}
	if c.TargetFPS < 0 {
		return fmt.Errorf("target FPS must be non-negative, got %v", c.TargetFPS)
	}
	return nil
}

package framing

import "fmt"

// TuningParams holds the framing parameters adjustable at runtime through
// the dashboard API, without restarting the pipeline.
type TuningParams struct {
	IdealFaceWidthRatio float64 `json:"ideal_face_width_ratio"`
	MinZoom             float64 `json:"min_zoom"`
	MaxZoom             float64 `json:"max_zoom"`
	PanSmoothing        float64 `json:"pan_smoothing"`
	ZoomSmoothing       float64 `json:"zoom_smoothing"`
}

// GetTuningParams returns the current tunable parameters.
func (c *Controller) GetTuningParams() TuningParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TuningParams{
		IdealFaceWidthRatio: c.config.IdealFaceWidthRatio,
		MinZoom:             c.config.MinZoom,
		MaxZoom:             c.config.MaxZoom,
		PanSmoothing:        c.config.PanSmoothing,
		ZoomSmoothing:       c.config.ZoomSmoothing,
	}
}

// SetTuningParams applies tuning updates. Only non-zero fields are applied,
// and the resulting configuration must still validate; invalid updates are
// rejected atomically.
func (c *Controller) SetTuningParams(params TuningParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.config
	if params.IdealFaceWidthRatio > 0 {
		next.IdealFaceWidthRatio = params.IdealFaceWidthRatio
	}
	if params.MinZoom > 0 {
		next.MinZoom = params.MinZoom
	}
	if params.MaxZoom > 0 {
		next.MaxZoom = params.MaxZoom
	}
	if params.PanSmoothing > 0 {
		next.PanSmoothing = params.PanSmoothing
	}
	if params.ZoomSmoothing > 0 {
		next.ZoomSmoothing = params.ZoomSmoothing
	}

	if err := next.Validate(); err != nil {
		return fmt.Errorf("tuning rejected: %w", err)
	}

	c.config = next
	return nil
}

package framing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-autoframe/internal/log"
	"github.com/teslashibe/go-autoframe/pkg/debug"
	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
	"gocv.io/x/gocv"
)

// ErrEndOfStream means the frame source stopped yielding frames. It is
// normal termination, not a failure.
var ErrEndOfStream = errors.New("end of stream")

// ErrDeviceUnavailable means the capture device could not be opened.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Signal is a discrete control input polled once per iteration.
type Signal int

const (
	SignalNone Signal = iota
	SignalQuit
	SignalToggleVisualization
)

// FrameSource delivers frames from a camera or file.
type FrameSource interface {
	// NextFrame blocks until the next frame is available and writes it
	// into frame. Returns ErrEndOfStream when the source is exhausted.
	NextFrame(frame *gocv.Mat) error

	// Size returns the frame dimensions, fixed for the session.
	Size() (width, height int)

	// FPS returns the nominal frame rate reported by the source.
	FPS() float64
}

// FrameSink publishes output frames (the virtual camera).
type FrameSink interface {
	Publish(frame *gocv.Mat) error
}

// PreviewSink shows annotated frames to the operator. Best-effort; the
// loop runs identically without one (headless mode).
type PreviewSink interface {
	Show(frame *gocv.Mat, overlay string)
}

// InputSource yields control signals, polled non-blockingly once per
// iteration.
type InputSource interface {
	Poll() Signal
}

// StatusUpdater receives tracking state for the dashboard. Implementations
// must not block; the loop calls it once per frame.
type StatusUpdater interface {
	UpdateTracking(zoom float64, center Point, faces int)

	// WantsPreview gates the JPEG encode of dashboard preview frames,
	// which is skipped entirely when nobody is watching.
	WantsPreview() bool
	PublishPreview(jpeg []byte)
}

// Status is a point-in-time snapshot of the framing loop.
type Status struct {
	Running           bool    `json:"running"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Zoom              float64 `json:"zoom"`
	CenterX           float64 `json:"center_x"`
	CenterY           float64 `json:"center_y"`
	FaceDetected      bool    `json:"face_detected"`
	ShowVisualization bool    `json:"show_visualization"`
	Frames            uint64  `json:"frames"`
	DetectorMisses    uint64  `json:"detector_misses"`
}

const previewHelp = "Press 'v' to toggle overlay, 'q' to quit"

// Controller runs the per-frame pipeline: acquire, detect, estimate,
// smooth, transform, publish. It owns the SmoothedState and the
// visualization flag for the whole session.
type Controller struct {
	source   FrameSource
	detector detection.Detector
	sink     FrameSink
	preview  PreviewSink   // optional
	input    InputSource   // optional
	status   StatusUpdater // optional

	width  int
	height int

	mu                sync.RWMutex
	config            Config
	state             SmoothedState
	showVisualization bool
	lastDetected      bool
	frames            uint64
	misses            uint64
	running           bool
}

// NewController wires the framing loop. The configuration is validated once
// here; the loop assumes it is sound afterwards.
func NewController(cfg Config, source FrameSource, detector detection.Detector, sink FrameSink) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("framing config: %w", err)
	}

	width, height := source.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("source reports invalid dimensions %dx%d", width, height)
	}

	return &Controller{
		source:            source,
		detector:          detector,
		sink:              sink,
		width:             width,
		height:            height,
		config:            cfg,
		state:             NewSmoothedState(width, height),
		showVisualization: true,
	}, nil
}

// SetPreview attaches an optional preview sink and input source.
func (c *Controller) SetPreview(preview PreviewSink, input InputSource) {
	c.preview = preview
	c.input = input
}

// SetStatusUpdater attaches an optional dashboard updater.
func (c *Controller) SetStatusUpdater(status StatusUpdater) {
	c.status = status
}

// Snapshot returns the current loop status.
func (c *Controller) Snapshot() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Running:           c.running,
		Width:             c.width,
		Height:            c.height,
		Zoom:              c.state.Zoom,
		CenterX:           c.state.Center.X,
		CenterY:           c.state.Center.Y,
		FaceDetected:      c.lastDetected,
		ShowVisualization: c.showVisualization,
		Frames:            c.frames,
		DetectorMisses:    c.misses,
	}
}

// ToggleVisualization flips the overlay flag and returns the new value.
func (c *Controller) ToggleVisualization() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showVisualization = !c.showVisualization
	return c.showVisualization
}

// SetVisualization sets the overlay flag.
func (c *Controller) SetVisualization(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showVisualization = on
}

// Run drives the pipeline until the context is cancelled, the source ends,
// or a quit signal arrives. Returns an error only for genuine failures;
// end-of-stream and quit are clean exits.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	var pace *time.Ticker
	if fps := c.configSnapshot().TargetFPS; fps > 0 {
		pace = time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer pace.Stop()
	}

	log.Info("framing loop started", "width", c.width, "height", c.height, "source_fps", c.source.FPS())

	for {
		select {
		case <-ctx.Done():
			log.Info("framing loop cancelled")
			return nil
		default:
		}

		if err := c.source.NextFrame(&frame); err != nil {
			if errors.Is(err, ErrEndOfStream) {
				log.Info("frame source ended, stopping")
				return nil
			}
			return fmt.Errorf("acquire frame: %w", err)
		}

		boxes := c.detect(&frame, &gray)

		cfg := c.configSnapshot()
		idealFaceWidth := float64(c.width) * cfg.IdealFaceWidthRatio
		target := EstimateTarget(boxes, c.width, c.height, idealFaceWidth, cfg.MinZoom, cfg.MaxZoom)

		c.mu.Lock()
		c.state.Advance(target, cfg.PanSmoothing, cfg.ZoomSmoothing)
		state := c.state
		show := c.showVisualization
		c.lastDetected = len(boxes) > 0
		c.frames++
		c.mu.Unlock()

		out, err := Transform(&frame, state, c.width, c.height)
		if err != nil {
			// A failed transform means the clamping invariant broke
			// upstream; surface it instead of limping on
			return fmt.Errorf("frame transform: %w", err)
		}

		if err := c.sink.Publish(&out); err != nil {
			log.Warn("publish frame", "err", err)
		}

		if c.preview != nil {
			annotated := frame.Clone()
			if show {
				DrawDetections(&annotated, boxes)
			}
			c.preview.Show(&annotated, previewHelp)
			annotated.Close()
		}

		c.notifyStatus(state, boxes, &out)
		out.Close()

		switch c.pollInput() {
		case SignalQuit:
			log.Info("quit signal received")
			return nil
		case SignalToggleVisualization:
			on := c.ToggleVisualization()
			log.Info("visualization toggled", "on", on)
		}

		if pace != nil {
			select {
			case <-pace.C:
			case <-ctx.Done():
				log.Info("framing loop cancelled")
				return nil
			}
		}
	}
}

// detect converts the frame to grayscale and runs the detector. A detector
// failure downgrades to "no detection" for this frame only; the smoothing
// state rides it out and the next frame self-corrects.
func (c *Controller) detect(frame, gray *gocv.Mat) []detection.BoundingBox {
	gocv.CvtColor(*frame, gray, gocv.ColorBGRToGray)

	boxes, err := c.detector.Detect(gray)
	if err != nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		debug.TrackLog("[framing] detector error: %v\n", err)
		return nil
	}
	return boxes
}

func (c *Controller) configSnapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Controller) pollInput() Signal {
	if c.input == nil {
		return SignalNone
	}
	return c.input.Poll()
}

func (c *Controller) notifyStatus(state SmoothedState, boxes []detection.BoundingBox, out *gocv.Mat) {
	if c.status == nil {
		return
	}

	c.status.UpdateTracking(state.Zoom, state.Center, len(boxes))

	if !c.status.WantsPreview() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *out)
	if err != nil {
		debug.TrackLog("[framing] preview encode: %v\n", err)
		return
	}
	defer buf.Close()

	// The hub delivers asynchronously, so hand it a copy
	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	c.status.PublishPreview(jpeg)
}

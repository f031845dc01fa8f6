package framing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
	"gocv.io/x/gocv"
)

// syntheticSource yields a fixed number of blank frames, then end-of-stream.
type syntheticSource struct {
	width     int
	height    int
	frames    int
	delivered int
}

func (s *syntheticSource) NextFrame(frame *gocv.Mat) error {
	if s.delivered >= s.frames {
		return ErrEndOfStream
	}
	s.delivered++
	m := gocv.NewMatWithSize(s.height, s.width, gocv.MatTypeCV8UC3)
	defer m.Close()
	m.CopyTo(frame)
	return nil
}

func (s *syntheticSource) Size() (int, int) { return s.width, s.height }
func (s *syntheticSource) FPS() float64     { return 30 }

// scriptedDetector returns the same boxes (or error) on every frame.
type scriptedDetector struct {
	boxes []detection.BoundingBox
	err   error
	calls int
}

func (d *scriptedDetector) Detect(gray *gocv.Mat) ([]detection.BoundingBox, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.boxes, nil
}

func (d *scriptedDetector) Close() error { return nil }

// recordingSink counts published frames and records their dimensions.
type recordingSink struct {
	published int
	lastCols  int
	lastRows  int
}

func (s *recordingSink) Publish(frame *gocv.Mat) error {
	s.published++
	s.lastCols = frame.Cols()
	s.lastRows = frame.Rows()
	return nil
}

// scriptedInput emits one signal after a number of polls.
type scriptedInput struct {
	after  int
	signal Signal
	polls  int
}

func (i *scriptedInput) Poll() Signal {
	i.polls++
	if i.polls == i.after {
		return i.signal
	}
	return SignalNone
}

func newTestController(t *testing.T, cfg Config, source FrameSource, det detection.Detector, sink FrameSink) *Controller {
	t.Helper()
	c, err := NewController(cfg, source, det, sink)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestController_RunsToEndOfStream(t *testing.T) {
	source := &syntheticSource{width: 640, height: 480, frames: 10}
	det := &scriptedDetector{}
	sink := &recordingSink{}

	c := newTestController(t, DefaultConfig(), source, det, sink)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run should exit cleanly at end of stream: %v", err)
	}

	if sink.published != 10 {
		t.Errorf("expected 10 published frames, got %d", sink.published)
	}
	if sink.lastCols != 640 || sink.lastRows != 480 {
		t.Errorf("output dimensions %dx%d, want 640x480", sink.lastCols, sink.lastRows)
	}
	if det.calls != 10 {
		t.Errorf("detector called %d times, want 10", det.calls)
	}

	status := c.Snapshot()
	if status.Running {
		t.Error("controller should report stopped after Run returns")
	}
	if status.Frames != 10 {
		t.Errorf("frame counter %d, want 10", status.Frames)
	}
}

func TestController_ConvergesOnSteadyFace(t *testing.T) {
	// A face held at a constant position pulls the smoothed state toward
	// its center and the zoom toward idealFaceWidth/faceWidth
	source := &syntheticSource{width: 1920, height: 1080, frames: 150}
	det := &scriptedDetector{boxes: []detection.BoundingBox{
		{X: 600, Y: 300, Width: 240, Height: 240},
	}}
	sink := &recordingSink{}

	cfg := DefaultConfig()
	cfg.PanSmoothing = 0.2
	cfg.ZoomSmoothing = 0.1
	c := newTestController(t, cfg, source, det, sink)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	status := c.Snapshot()
	if !status.FaceDetected {
		t.Error("expected face_detected after steady detections")
	}
	// Target zoom = 480/240 = 2.0
	if math.Abs(status.Zoom-2.0) > 0.01 {
		t.Errorf("zoom %v did not converge toward 2.0", status.Zoom)
	}
	if math.Abs(status.CenterX-720) > 1 || math.Abs(status.CenterY-420) > 1 {
		t.Errorf("center (%v,%v) did not converge toward (720,420)", status.CenterX, status.CenterY)
	}
}

func TestController_DetectorFailureDowngradesToNoDetection(t *testing.T) {
	source := &syntheticSource{width: 640, height: 480, frames: 20}
	det := &scriptedDetector{err: errors.New("inference exploded")}
	sink := &recordingSink{}

	c := newTestController(t, DefaultConfig(), source, det, sink)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("detector failures must not abort the session: %v", err)
	}

	if sink.published != 20 {
		t.Errorf("expected all 20 frames published despite detector failures, got %d", sink.published)
	}

	status := c.Snapshot()
	if status.DetectorMisses != 20 {
		t.Errorf("expected 20 recorded misses, got %d", status.DetectorMisses)
	}
	// With no detections the zoom drifts toward the neutral pull-back
	if status.Zoom <= 1.0 || status.Zoom > 1.5 {
		t.Errorf("zoom %v should be drifting from 1.0 toward 1.5", status.Zoom)
	}
}

func TestController_QuitSignalStopsLoop(t *testing.T) {
	source := &syntheticSource{width: 320, height: 240, frames: 1000}
	sink := &recordingSink{}

	c := newTestController(t, DefaultConfig(), source, &scriptedDetector{}, sink)
	c.SetPreview(nil, &scriptedInput{after: 5, signal: SignalQuit})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sink.published != 5 {
		t.Errorf("expected loop to stop after 5 frames, got %d", sink.published)
	}
}

func TestController_ToggleSignalFlipsVisualization(t *testing.T) {
	source := &syntheticSource{width: 320, height: 240, frames: 3}
	c := newTestController(t, DefaultConfig(), source, &scriptedDetector{}, &recordingSink{})
	c.SetPreview(nil, &scriptedInput{after: 2, signal: SignalToggleVisualization})

	if !c.Snapshot().ShowVisualization {
		t.Fatal("visualization should start enabled")
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.Snapshot().ShowVisualization {
		t.Error("expected visualization toggled off")
	}
}

func TestController_ContextCancellation(t *testing.T) {
	source := &syntheticSource{width: 320, height: 240, frames: 1000}
	c := newTestController(t, DefaultConfig(), source, &scriptedDetector{}, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("cancellation must be a clean exit: %v", err)
	}
	if c.Snapshot().Frames != 0 {
		t.Errorf("expected no frames processed after pre-cancelled context, got %d", c.Snapshot().Frames)
	}
}

func TestController_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PanSmoothing = 0

	source := &syntheticSource{width: 320, height: 240, frames: 1}
	if _, err := NewController(cfg, source, &scriptedDetector{}, &recordingSink{}); err == nil {
		t.Error("expected config validation error")
	}
}

func TestController_Tuning(t *testing.T) {
	source := &syntheticSource{width: 640, height: 480, frames: 1}
	c := newTestController(t, DefaultConfig(), source, &scriptedDetector{}, &recordingSink{})

	params := c.GetTuningParams()
	if params.ZoomSmoothing != 0.05 {
		t.Errorf("expected default zoom smoothing 0.05, got %v", params.ZoomSmoothing)
	}

	if err := c.SetTuningParams(TuningParams{ZoomSmoothing: 0.2, MaxZoom: 3.0}); err != nil {
		t.Fatalf("valid tuning rejected: %v", err)
	}

	params = c.GetTuningParams()
	if params.ZoomSmoothing != 0.2 || params.MaxZoom != 3.0 {
		t.Errorf("tuning not applied: %+v", params)
	}
	// Untouched fields keep their values
	if params.PanSmoothing != 0.1 {
		t.Errorf("pan smoothing should be unchanged, got %v", params.PanSmoothing)
	}

	// Invalid combinations are rejected atomically
	if err := c.SetTuningParams(TuningParams{MinZoom: 5.0}); err == nil {
		t.Error("expected rejection of min zoom above max zoom")
	}
	if c.GetTuningParams().MinZoom == 5.0 {
		t.Error("rejected tuning must not be applied")
	}
	// A min zoom below 1.0 would make the crop window exceed the frame
	if err := c.SetTuningParams(TuningParams{MinZoom: 0.9}); err == nil {
		t.Error("expected rejection of min zoom below one")
	}
}

func TestController_PacingLimitsFrameRate(t *testing.T) {
	source := &syntheticSource{width: 640, height: 480, frames: 5}
	sink := &recordingSink{}

	cfg := DefaultConfig()
	cfg.TargetFPS = 100 // 10ms per frame

	c := newTestController(t, cfg, source, &scriptedDetector{}, sink)

	start := time.Now()
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	elapsed := time.Since(start)

	if sink.published != 5 {
		t.Fatalf("expected 5 published frames, got %d", sink.published)
	}
	// Five paced iterations take at least ~50ms; leave slack for timer
	// granularity but catch the unpaced case, which finishes in microseconds
	if elapsed < 35*time.Millisecond {
		t.Errorf("5 frames at 100 FPS finished in %v, pacing not applied", elapsed)
	}
}

func TestController_CancelDuringPaceWait(t *testing.T) {
	source := &syntheticSource{width: 640, height: 480, frames: 1000}
	cfg := DefaultConfig()
	cfg.TargetFPS = 1 // 1s per frame, so Run sits in the pace wait

	c := newTestController(t, cfg, source, &scriptedDetector{}, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run should exit cleanly on cancellation: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Run took %v to notice cancellation inside the pace wait", elapsed)
	}
	if c.Snapshot().Running {
		t.Error("controller should report stopped after cancellation")
	}
}

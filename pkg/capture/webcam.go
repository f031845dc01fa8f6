// Package capture opens local video devices as frame sources for the
// framing loop.
package capture

import (
	"fmt"
	"strconv"

	"github.com/teslashibe/go-autoframe/internal/log"
	"github.com/teslashibe/go-autoframe/pkg/framing"
	"gocv.io/x/gocv"
)

// Config holds capture device settings. Width, height and FPS are requests;
// the device reports what it actually delivers and those values win.
type Config struct {
	Device string  // Camera index ("0") or device path ("/dev/video0")
	Width  int     // Requested width, 0 keeps the device default
	Height int     // Requested height, 0 keeps the device default
	FPS    float64 // Requested frame rate, 0 keeps the device default
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{Device: "0"}
}

// Validate checks the capture configuration.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("capture device must be set")
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("requested dimensions must be non-negative, got %dx%d", c.Width, c.Height)
	}
	if c.FPS < 0 {
		return fmt.Errorf("requested FPS must be non-negative, got %v", c.FPS)
	}
	return nil
}

// Webcam is a framing.FrameSource backed by a gocv VideoCapture device.
type Webcam struct {
	vc     *gocv.VideoCapture
	width  int
	height int
	fps    float64
}

// Open opens the configured capture device and reads back its actual
// dimensions and frame rate. Returns framing.ErrDeviceUnavailable when the
// device cannot be opened.
func Open(cfg Config) (*Webcam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("capture config: %w", err)
	}

	vc, err := openDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", framing.ErrDeviceUnavailable, cfg.Device, err)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}

	w := &Webcam{
		vc:     vc,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		fps:    vc.Get(gocv.VideoCaptureFPS),
	}

	if w.width <= 0 || w.height <= 0 {
		vc.Close()
		return nil, fmt.Errorf("%w: %s reports %dx%d", framing.ErrDeviceUnavailable, cfg.Device, w.width, w.height)
	}

	log.Info("capture device opened", "device", cfg.Device, "width", w.width, "height", w.height, "fps", w.fps)
	return w, nil
}

// openDevice opens by camera index when the device string is numeric,
// otherwise by path.
func openDevice(device string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(device); err == nil {
		return gocv.VideoCaptureDevice(id)
	}
	return gocv.VideoCaptureFile(device)
}

// NextFrame reads the next frame into frame. A failed read is treated as
// end of stream: the device was closed or disconnected.
func (w *Webcam) NextFrame(frame *gocv.Mat) error {
	if ok := w.vc.Read(frame); !ok || frame.Empty() {
		return framing.ErrEndOfStream
	}
	return nil
}

// Size returns the actual frame dimensions reported by the device.
func (w *Webcam) Size() (width, height int) {
	return w.width, w.height
}

// FPS returns the nominal frame rate reported by the device.
func (w *Webcam) FPS() float64 {
	return w.fps
}

// Close releases the capture device.
func (w *Webcam) Close() error {
	return w.vc.Close()
}

// Package virtualcam publishes output frames to a v4l2loopback device, so
// the framed stream appears as a regular camera in video call applications.
//
// Frames are piped as raw BGR24 into an ffmpeg child process that writes
// the v4l2 device. Color order is a boundary concern handled here: the
// pipeline works in OpenCV's native BGR, and ffmpeg converts to whatever
// the loopback consumer negotiates.
package virtualcam

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/teslashibe/go-autoframe/internal/log"
	"gocv.io/x/gocv"
)

// Config holds virtual camera sink settings. Dimensions are fixed for the
// session and must match the capture source.
type Config struct {
	Device     string  // v4l2loopback device path, e.g. /dev/video10
	Width      int     // Frame width in pixels
	Height     int     // Frame height in pixels
	FPS        float64 // Nominal frame rate advertised to consumers
	FFmpegPath string  // ffmpeg binary, defaults to "ffmpeg" on PATH
}

// Validate checks the sink configuration.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("output device must be set")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid output dimensions %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("output FPS must be positive, got %v", c.FPS)
	}
	return nil
}

// Writer streams raw frames into the virtual camera device.
type Writer struct {
	cfg       Config
	frameSize int

	mu       sync.Mutex
	pipe     io.WriteCloser
	cmd      *exec.Cmd
	writeErr error // First write error, reported once
}

// Open starts the ffmpeg bridge to the loopback device.
func Open(cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("virtualcam config: %w", err)
	}

	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	cmd := exec.Command(ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-framerate", fmt.Sprintf("%g", cfg.FPS),
		"-i", "-",
		"-f", "v4l2",
		cfg.Device,
	)

	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("virtualcam stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg bridge: %w", err)
	}

	log.Info("virtual camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height, "fps", cfg.FPS)

	return &Writer{
		cfg:       cfg,
		frameSize: cfg.Width * cfg.Height * 3,
		pipe:      pipe,
		cmd:       cmd,
	}, nil
}

// newPipeWriter wires a Writer onto an arbitrary pipe. Used by tests.
func newPipeWriter(cfg Config, pipe io.WriteCloser) *Writer {
	return &Writer{
		cfg:       cfg,
		frameSize: cfg.Width * cfg.Height * 3,
		pipe:      pipe,
	}
}

// Publish writes one BGR frame to the device. The frame must match the
// session dimensions.
func (w *Writer) Publish(frame *gocv.Mat) error {
	data := frame.ToBytes()
	if len(data) != w.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d (%dx%d BGR)", len(data), w.frameSize, w.cfg.Width, w.cfg.Height)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writeErr != nil {
		return w.writeErr
	}
	if _, err := w.pipe.Write(data); err != nil {
		w.writeErr = fmt.Errorf("write to %s: %w", w.cfg.Device, err)
		return w.writeErr
	}
	return nil
}

// Close shuts down the ffmpeg bridge and waits for it to exit.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.pipe.Close(); err != nil {
		return err
	}
	if w.cmd != nil {
		return w.cmd.Wait()
	}
	return nil
}

// Autoframe - an auto-framing virtual camera.
//
// Tracks your face in the webcam stream and publishes a smoothly panned
// and zoomed crop to a v4l2loopback device, so video call apps see a
// camera that keeps you framed.
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-autoframe/internal/config"
	"github.com/teslashibe/go-autoframe/internal/log"
	"github.com/teslashibe/go-autoframe/pkg/capture"
	"github.com/teslashibe/go-autoframe/pkg/debug"
	"github.com/teslashibe/go-autoframe/pkg/framing"
	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
	"github.com/teslashibe/go-autoframe/pkg/preview"
	"github.com/teslashibe/go-autoframe/pkg/virtualcam"
	"github.com/teslashibe/go-autoframe/pkg/web"
)

func main() {
	// Command line flags
	device := flag.String("device", config.CaptureDevice(), "Capture device (index or path)")
	output := flag.String("output", config.OutputDevice(), "v4l2loopback output device")
	width := flag.Int("width", 0, "Requested capture width (0 = device default)")
	height := flag.Int("height", 0, "Requested capture height (0 = device default)")
	fps := flag.Float64("fps", 0, "Requested capture FPS (0 = device default)")
	detectorName := flag.String("detector", "haar", "Detection backend: haar or yunet")
	modelPath := flag.String("model", "", "Detector model path (default depends on backend)")
	preset := flag.String("preset", "default", "Framing preset: default, slow, aggressive")
	port := flag.String("port", config.DashboardPort(), "Dashboard port (empty disables)")
	headless := flag.Bool("headless", false, "Run without a preview window")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Enable very verbose per-frame logs")
	flag.Parse()

	log.Init(*logLevel)
	debug.Enabled = *debugFlag
	debug.Tracking = *debugTracking

	fmt.Println("🎥 Autoframe Virtual Camera")
	fmt.Printf("   Capture:  %s\n", *device)
	fmt.Printf("   Output:   %s\n", *output)
	fmt.Printf("   Detector: %s\n", *detectorName)
	fmt.Println()

	cfg, err := framingPreset(*preset)
	if err != nil {
		stdlog.Fatalf("Invalid preset: %v", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Shutting down...")
		cancel()
	}()

	// Open the capture device
	source, err := capture.Open(capture.Config{
		Device: *device,
		Width:  *width,
		Height: *height,
		FPS:    *fps,
	})
	if err != nil {
		stdlog.Fatalf("Failed to open capture device: %v", err)
	}
	defer source.Close()

	srcWidth, srcHeight := source.Size()
	srcFPS := source.FPS()
	if srcFPS <= 0 {
		srcFPS = 30
	}

	// Create the detector
	detector, err := newDetector(*detectorName, *modelPath)
	if err != nil {
		stdlog.Fatalf("Failed to create detector: %v", err)
	}
	defer detector.Close()

	// Open the virtual camera with the source's properties
	sink, err := virtualcam.Open(virtualcam.Config{
		Device: *output,
		Width:  srcWidth,
		Height: srcHeight,
		FPS:    srcFPS,
	})
	if err != nil {
		stdlog.Fatalf("Failed to open virtual camera: %v", err)
	}
	defer sink.Close()

	controller, err := framing.NewController(cfg, source, detector, sink)
	if err != nil {
		stdlog.Fatalf("Failed to create framing controller: %v", err)
	}

	if !*headless {
		win := preview.NewWindow("Autoframe Preview")
		defer win.Close()
		controller.SetPreview(win, win)
		fmt.Println("Press 'v' to toggle the overlay, 'q' to quit")
	}

	if *port != "" {
		dashboard := web.NewServer(*port, controller)
		controller.SetStatusUpdater(dashboard)
		dashboard.StartAsync()
		defer dashboard.Shutdown()
		fmt.Printf("🌐 Dashboard: http://localhost:%s\n", *port)
	}

	fmt.Println("✅ Virtual camera running")

	if err := controller.Run(ctx); err != nil {
		stdlog.Fatalf("Framing loop failed: %v", err)
	}

	fmt.Println("👋 Goodbye!")
}

// framingPreset maps a preset name to its configuration.
func framingPreset(name string) (framing.Config, error) {
	switch name {
	case "default":
		return framing.DefaultConfig(), nil
	case "slow":
		return framing.SlowConfig(), nil
	case "aggressive":
		return framing.AggressiveConfig(), nil
	}
	return framing.Config{}, fmt.Errorf("unknown preset %q", name)
}

// newDetector creates the configured detection backend.
func newDetector(name, modelPath string) (detection.Detector, error) {
	switch name {
	case "haar":
		cfg := detection.DefaultHaarConfig()
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}
		return detection.NewHaar(cfg)
	case "yunet":
		cfg := detection.DefaultYuNetConfig()
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}
		return detection.NewYuNet(cfg)
	}
	return nil, fmt.Errorf("unknown detector %q", name)
}

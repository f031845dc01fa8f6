package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-autoframe/pkg/debug"
	"gocv.io/x/gocv"
)

// YuNetConfig holds YuNet detector parameters.
type YuNetConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	NMSThresh        float64 // Non-maximum suppression threshold
}

// DefaultYuNetConfig returns production defaults for YuNet.
func DefaultYuNetConfig() YuNetConfig {
	return YuNetConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.3,
	}
}

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection.
// Heavier than the Haar cascade but far more robust to pose and lighting.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   YuNetConfig
	bgr      gocv.Mat   // Reused conversion buffer (YuNet wants 3 channels)
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a YuNet face detector from the ONNX model file.
func NewYuNet(cfg YuNetConfig) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",                            // No config file needed for ONNX
		image.Pt(320, 320),            // Initial input size, updated per frame
		float32(cfg.ConfidenceThresh), // Score threshold
		float32(cfg.NMSThresh),        // NMS threshold
		5000,                          // Top K
		int(gocv.NetBackendDefault),   // Backend
		int(gocv.NetTargetCPU),        // Target
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
		bgr:      gocv.NewMat(),
	}, nil
}

// Detect finds faces in the grayscale frame.
func (d *YuNetDetector) Detect(gray *gocv.Mat) ([]BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gray.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	// YuNet expects a 3-channel input
	gocv.CvtColor(*gray, &d.bgr, gocv.ColorGrayToBGR)

	d.detector.SetInputSize(image.Pt(d.bgr.Cols(), d.bgr.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(d.bgr, &faces)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	var boxes []BoundingBox
	for r := 0; r < faces.Rows(); r++ {
		b := BoundingBox{
			X:      int(faces.GetFloatAt(r, 0)),
			Y:      int(faces.GetFloatAt(r, 1)),
			Width:  int(faces.GetFloatAt(r, 2)),
			Height: int(faces.GetFloatAt(r, 3)),
		}
		if !b.Valid() {
			continue
		}
		boxes = append(boxes, b)
	}

	if len(boxes) > 0 {
		debug.TrackLog("[yunet] found %d face(s)\n", len(boxes))
	}

	return boxes, nil
}

// Close releases the detector resources.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bgr.Close()
	d.detector.Close()
	return nil
}

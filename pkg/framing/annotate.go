package framing

import (
	"image"
	"image/color"

	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
	"gocv.io/x/gocv"
)

var detectionColor = color.RGBA{G: 255, A: 255}

// DrawDetections draws a rectangle around each detected face, in place.
func DrawDetections(frame *gocv.Mat, boxes []detection.BoundingBox) {
	for _, b := range boxes {
		rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
		gocv.Rectangle(frame, rect, detectionColor, 2)
	}
}

// DrawOverlayText writes a status line onto the frame, in place.
func DrawOverlayText(frame *gocv.Mat, text string) {
	gocv.PutText(frame, text,
		image.Pt(10, 30),
		gocv.FontHersheySimplex, 0.7,
		color.RGBA{R: 255, G: 255, B: 255, A: 255}, 2)
}

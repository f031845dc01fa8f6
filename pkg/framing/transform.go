package framing

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ErrInvalidZoom reports a crop window that cannot fit the frame. It means
// the clamping upstream is broken, so callers must treat it as fatal rather
// than clamp again.
var ErrInvalidZoom = errors.New("invalid zoom for crop window")

// Window is an integer crop region, fully contained in the source frame.
type Window struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CropWindow computes the visible window for the given smoothed center and
// zoom. The window is centered on the target but slides along the frame edges
// rather than leaving the frame, so an off-center subject near an edge never
// produces black borders.
//
// Rounding policy: window extent is rounded once from the zoom math, then the
// origin is floored and re-clamped against that extent. Deriving the far edge
// from origin+extent keeps the output size stable frame to frame.
func CropWindow(center Point, zoom float64, frameWidth, frameHeight int) (Window, error) {
	if zoom <= 0 {
		return Window{}, fmt.Errorf("%w: zoom=%v", ErrInvalidZoom, zoom)
	}

	winW := float64(frameWidth) / zoom
	winH := float64(frameHeight) / zoom

	w := int(math.Round(winW))
	h := int(math.Round(winH))
	if w < 1 || h < 1 || w > frameWidth || h > frameHeight {
		return Window{}, fmt.Errorf("%w: window %dx%d exceeds frame %dx%d (zoom=%v)",
			ErrInvalidZoom, w, h, frameWidth, frameHeight, zoom)
	}

	x := int(math.Floor(clamp(center.X-winW/2, 0, float64(frameWidth)-winW)))
	y := int(math.Floor(clamp(center.Y-winH/2, 0, float64(frameHeight)-winH)))

	// Rounding the extent up can push the far edge one pixel past the frame
	if x+w > frameWidth {
		x = frameWidth - w
	}
	if y+h > frameHeight {
		y = frameHeight - h
	}

	return Window{X: x, Y: y, Width: w, Height: h}, nil
}

// Transform crops the frame to the smoothed state's window and rescales back
// to outWidth x outHeight with bilinear interpolation. The returned Mat is
// owned by the caller and must be closed.
func Transform(frame *gocv.Mat, state SmoothedState, outWidth, outHeight int) (gocv.Mat, error) {
	win, err := CropWindow(state.Center, state.Zoom, frame.Cols(), frame.Rows())
	if err != nil {
		return gocv.Mat{}, err
	}

	region := frame.Region(image.Rect(win.X, win.Y, win.X+win.Width, win.Y+win.Height))
	defer region.Close()

	out := gocv.NewMat()
	gocv.Resize(region, &out, image.Pt(outWidth, outHeight), 0, 0, gocv.InterpolationLinear)
	return out, nil
}

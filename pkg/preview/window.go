// Package preview shows the operator preview window and translates its
// keyboard input into framing loop signals.
package preview

import (
	"github.com/teslashibe/go-autoframe/pkg/framing"
	"gocv.io/x/gocv"
)

// Window is a framing.PreviewSink and framing.InputSource backed by a gocv
// window. The window's event pump runs inside Poll, so Poll must be called
// every iteration for the preview to repaint.
type Window struct {
	win *gocv.Window
}

// NewWindow opens the preview window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays the annotated frame with an optional overlay line.
func (w *Window) Show(frame *gocv.Mat, overlay string) {
	if overlay != "" {
		framing.DrawOverlayText(frame, overlay)
	}
	w.win.IMShow(*frame)
}

// Poll pumps window events for 1ms and maps pressed keys to signals:
// 'q' quits, 'v' toggles the detection overlay.
func (w *Window) Poll() framing.Signal {
	switch w.win.WaitKey(1) & 0xFF {
	case 'q', 'Q':
		return framing.SignalQuit
	case 'v', 'V':
		return framing.SignalToggleVisualization
	}
	return framing.SignalNone
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

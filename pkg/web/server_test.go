package web

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/framing"
	"github.com/teslashibe/go-autoframe/pkg/framing/detection"
)

type stubSource struct {
	width, height int
}

func (s *stubSource) NextFrame(frame *gocv.Mat) error { return framing.ErrEndOfStream }
func (s *stubSource) Size() (int, int)                { return s.width, s.height }
func (s *stubSource) FPS() float64                    { return 30 }

type stubDetector struct{}

func (d *stubDetector) Detect(gray *gocv.Mat) ([]detection.BoundingBox, error) { return nil, nil }
func (d *stubDetector) Close() error                                           { return nil }

type stubSink struct{}

func (s *stubSink) Publish(frame *gocv.Mat) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	controller, err := framing.NewController(
		framing.DefaultConfig(),
		&stubSource{width: 640, height: 480},
		&stubDetector{},
		&stubSink{},
	)
	require.NoError(t, err)
	return NewServer("0", controller)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var status framing.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 640, status.Width)
	assert.Equal(t, 480, status.Height)
	assert.Equal(t, 1.0, status.Zoom)
	assert.True(t, status.ShowVisualization)
}

func TestTuningRoundTrip(t *testing.T) {
	s := newTestServer(t)

	body := bytes.NewBufferString(`{"zoom_smoothing": 0.2, "max_zoom": 3.0}`)
	req := httptest.NewRequest("POST", "/api/tuning", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var params framing.TuningParams
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&params))
	assert.Equal(t, 0.2, params.ZoomSmoothing)
	assert.Equal(t, 3.0, params.MaxZoom)
	// Untouched fields keep defaults
	assert.Equal(t, 0.1, params.PanSmoothing)
}

func TestTuningRejectsInvalid(t *testing.T) {
	s := newTestServer(t)

	// min above current max must be rejected without being applied
	body := bytes.NewBufferString(`{"min_zoom": 9.0}`)
	req := httptest.NewRequest("POST", "/api/tuning", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)

	assert.Equal(t, 1.0, s.controller.GetTuningParams().MinZoom)
}

func TestVisualizationToggleAndSet(t *testing.T) {
	s := newTestServer(t)

	// No body: toggle (starts enabled)
	req := httptest.NewRequest("POST", "/api/visualization", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result["show_visualization"])

	// Explicit set
	body := bytes.NewBufferString(`{"enabled": true}`)
	req = httptest.NewRequest("POST", "/api/visualization", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	require.NoError(t, err)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result["show_visualization"])
	assert.True(t, s.controller.Snapshot().ShowVisualization)
}

func TestStatusWebSocketStream(t *testing.T) {
	controller, err := framing.NewController(
		framing.DefaultConfig(),
		&stubSource{width: 640, height: 480},
		&stubDetector{},
		&stubSink{},
	)
	require.NoError(t, err)

	s := NewServer("18099", controller)
	s.StartAsync()
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18099/ws/status", nil)
	require.NoError(t, err, "WebSocket dial")
	defer ws.Close()

	// Wait for the hub to register the client
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, s.statusHub.ClientCount())

	s.UpdateTracking(1.25, framing.Point{X: 320, Y: 240}, 1)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var update TrackingUpdate
	require.NoError(t, json.Unmarshal(data, &update))
	assert.Equal(t, 1.25, update.Zoom)
	assert.Equal(t, 320.0, update.CenterX)
	assert.Equal(t, 1, update.Faces)
}

func TestWantsPreviewReflectsClients(t *testing.T) {
	s := newTestServer(t)
	assert.False(t, s.WantsPreview(), "no preview clients yet")
}

// Package web provides a real-time dashboard for the framing pipeline:
// status and tuning over HTTP, live state and preview frames over websocket.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autoframe/internal/log"
	"github.com/teslashibe/go-autoframe/pkg/framing"
	"github.com/teslashibe/go-autoframe/pkg/hub"
)

// statusBroadcastInterval limits how often per-frame tracking updates are
// pushed to websocket clients. The loop runs at camera rate; the dashboard
// doesn't need more than 10 updates per second.
const statusBroadcastInterval = 100 * time.Millisecond

// TrackingUpdate is the live state pushed over /ws/status.
type TrackingUpdate struct {
	Zoom    float64 `json:"zoom"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Faces   int     `json:"faces"`
}

// Server is the dashboard server. It implements framing.StatusUpdater so
// the controller can feed it directly.
type Server struct {
	app        *fiber.App
	port       string
	controller *framing.Controller

	statusHub  *hub.Hub
	previewHub *hub.Hub

	mu            sync.Mutex
	lastBroadcast time.Time
}

// NewServer creates the dashboard server for a framing controller.
func NewServer(port string, controller *framing.Controller) *Server {
	s := &Server{
		port:       port,
		controller: controller,
		statusHub:  hub.New("status"),
		previewHub: hub.New("preview"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Autoframe Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/visualization", s.handleVisualization)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// Start starts the dashboard server. Blocks.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.previewHub.Run()

	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the dashboard server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server stopped", "err", err)
		}
	}()
}

// Shutdown stops the dashboard server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateTracking pushes the smoothed state to status clients, rate-limited
// so the per-frame call stays cheap.
func (s *Server) UpdateTracking(zoom float64, center framing.Point, faces int) {
	s.mu.Lock()
	if time.Since(s.lastBroadcast) < statusBroadcastInterval {
		s.mu.Unlock()
		return
	}
	s.lastBroadcast = time.Now()
	s.mu.Unlock()

	s.statusHub.BroadcastJSON(TrackingUpdate{
		Zoom:    zoom,
		CenterX: center.X,
		CenterY: center.Y,
		Faces:   faces,
	})
}

// WantsPreview reports whether anyone is watching the preview stream.
func (s *Server) WantsPreview() bool {
	return s.previewHub.ClientCount() > 0
}

// PublishPreview broadcasts a JPEG preview frame to preview clients.
func (s *Server) PublishPreview(jpeg []byte) {
	s.previewHub.BroadcastBinary(jpeg)
}

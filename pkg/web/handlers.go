package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autoframe/pkg/framing"
	"github.com/teslashibe/go-autoframe/pkg/hub"
)

// handleStatus returns the current framing loop snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.controller.Snapshot())
}

// handleGetTuning returns the current tunable parameters.
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.controller.GetTuningParams())
}

// handleSetTuning applies a tuning update. Zero fields are left unchanged;
// invalid combinations are rejected without being applied.
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params framing.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}

	if err := s.controller.SetTuningParams(params); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(s.controller.GetTuningParams())
}

// VisualizationRequest optionally forces the overlay state; with no body
// the flag is toggled.
type VisualizationRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleVisualization toggles or sets the detection overlay.
func (s *Server) handleVisualization(c *fiber.Ctx) error {
	var req VisualizationRequest
	_ = c.BodyParser(&req) // Empty body means toggle

	var on bool
	if req.Enabled != nil {
		s.controller.SetVisualization(*req.Enabled)
		on = *req.Enabled
	} else {
		on = s.controller.ToggleVisualization()
	}

	return c.JSON(fiber.Map{"show_visualization": on})
}

// handleStatusWS streams live tracking updates.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}

// handlePreviewWS streams JPEG preview frames.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	hub.NewClient(s.previewHub, c).Run()
}

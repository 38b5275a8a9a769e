package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/hub"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

// handleStatus returns the current scene state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.scene.State())
}

// handleGetSettings returns the runtime view settings
func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.views.GetConfigJSON())
}

// handlePatchSettings applies a partial settings update
func (s *Server) handlePatchSettings(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.views.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Info("settings updated", "settings", params)

	return c.JSON(s.views.GetConfigJSON())
}

// handlePresets lists the size presets accepted by PATCH /api/settings
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}

// handleLastFrame returns the most recent composited frame
func (s *Server) handleLastFrame(c *fiber.Ctx) error {
	s.lastFrameMu.RLock()
	frame := s.lastFrame
	s.lastFrameMu.RUnlock()

	if frame == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no frame yet"})
	}
	c.Type("jpg")
	return c.Send(frame)
}

// handleCameraWS streams composited frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleStatusWS streams scene state, sending the current state first
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)

	if msg, err := protocol.NewStateMessage(s.scene.State()); err == nil {
		if data, err := msg.Bytes(); err == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}

	client.Run()
}

// handleViewerMessage handles resize and ping messages from status viewers
func (s *Server) handleViewerMessage(client *hub.Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeResize:
		r, err := msg.GetResizeData()
		if err != nil {
			return
		}
		cfg := s.views.GetConfig()
		cfg.Width, cfg.Height = r.Width, r.Height
		if err := s.views.SetConfig(cfg); err != nil {
			log.Warn("viewer resize rejected", "width", r.Width, "height", r.Height, "error", err)
		}

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err != nil {
			return
		}
		if data, err := pong.Bytes(); err == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}
}

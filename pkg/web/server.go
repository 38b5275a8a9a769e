// Package web serves the live viewer: composited frames, scene state and
// runtime settings.
package web

import (
	"context"
	_ "embed"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/hub"
	"github.com/teslashibe/go-arucogl/pkg/ingest"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

//go:embed index.html
var indexHTML []byte

// Scene is the frame loop as seen by the viewer.
type Scene interface {
	State() protocol.StateData
}

// Server is the viewer web server
type Server struct {
	app  *fiber.App
	port string

	scene   Scene
	views   *camera.Manager
	sources *ingest.Hub

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	cameraHub *hub.Hub

	lastFrame   []byte
	lastFrameMu sync.RWMutex
}

// NewServer creates the viewer server. sources may be nil when frames only
// come from a local device.
func NewServer(port string, scene Scene, views *camera.Manager, sources *ingest.Hub) *Server {
	s := &Server{
		port:      port,
		scene:     scene,
		views:     views,
		sources:   sources,
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
	}
	s.statusHub.OnMessage = s.handleViewerMessage

	app := fiber.New(fiber.Config{
		AppName:               "ArUco GL Viewer",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/settings", s.handleGetSettings)
	api.Patch("/settings", s.handlePatchSettings)
	api.Get("/presets", s.handlePresets)
	api.Get("/frame.jpg", s.handleLastFrame)

	if sources != nil {
		sources.RegisterRoutes(app)
		sources.RegisterAPIRoutes(api)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and serves until the listener fails or Shutdown is
// called. The hubs stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("viewer listening", "url", "http://localhost:"+s.port)

	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// SendFrame broadcasts a composited JPEG to camera viewers.
func (s *Server) SendFrame(jpeg []byte, width, height int, frameID uint64) {
	s.lastFrameMu.Lock()
	s.lastFrame = jpeg
	s.lastFrameMu.Unlock()

	s.cameraHub.BroadcastBinary(jpeg)
}

// SendState broadcasts the scene state to status viewers.
func (s *Server) SendState(state protocol.StateData) {
	msg, err := protocol.NewStateMessage(state)
	if err != nil {
		log.Warn("encode state", "error", err)
		return
	}
	if err := s.statusHub.BroadcastMessage(msg); err != nil {
		log.Warn("broadcast state", "error", err)
	}
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// CameraHub returns the camera hub for external use
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

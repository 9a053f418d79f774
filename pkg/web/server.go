// Package web exposes the monitoring station's HTTP/JSON contract to the
// dashboard.
package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"facewatch/internal/log"
	"facewatch/pkg/camera"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
	"facewatch/pkg/hub"
	"facewatch/pkg/pipeline"
)

// Server wires the perception core to the dashboard-facing API.
type Server struct {
	app  *fiber.App
	port string

	camera    *camera.Manager
	pipeline  *pipeline.Pipeline
	registrar *gallery.Registrar
	gallery   *gallery.Gallery
	store     history.Store

	// Live camera frames for dashboard preview
	frameHub *hub.Hub
}

// NewServer creates the API server around the perception components.
func NewServer(port string, cam *camera.Manager, p *pipeline.Pipeline,
	reg *gallery.Registrar, g *gallery.Gallery, store history.Store) *Server {
	s := &Server{
		port:      port,
		camera:    cam,
		pipeline:  p,
		registrar: reg,
		gallery:   g,
		store:     store,
		frameHub:  hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "facewatch",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024, // base64 frames
	})

	// CORS for the dashboard served from another origin
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/check_camera", s.handleCheckCamera)
	api.Post("/capture_frame", s.handleCaptureFrame)
	api.Post("/register_user", s.handleRegisterUser)
	api.Post("/detect_face", s.handleDetectFace)
	api.Get("/get_detection_history", s.handleGetHistory)
	api.Get("/get_stats", s.handleGetStats)
	api.Get("/get_users", s.handleGetUsers)
	api.Post("/release_camera", s.handleReleaseCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hub and listens for connections. Blocks.
func (s *Server) Start() error {
	go s.frameHub.Run()
	log.Info("api server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// RunFrameStream pushes live JPEG frames to websocket subscribers while a
// monitoring session is active. Call in a goroutine; returns when ctx is
// cancelled.
func (s *Server) RunFrameStream(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.pipeline.Active() || s.frameHub.ClientCount() == 0 {
				continue
			}
			frame, err := s.pipeline.Frame()
			if err != nil {
				log.Debug("frame stream capture failed", "error", err)
				continue
			}
			s.frameHub.BroadcastBinary(frame)
		}
	}
}

// handleCameraWS streams live JPEG frames to a dashboard client.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.frameHub, c)
	client.Run()
}

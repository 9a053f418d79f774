package web

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"facewatch/internal/log"
	"facewatch/pkg/camera"
	"facewatch/pkg/emotion"
	"facewatch/pkg/face"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
	"facewatch/pkg/pipeline"
)

// UnknownUser is the display value for faces below the match threshold.
const UnknownUser = "unknown"

// detectionJSON is one element of the detect_face response.
type detectionJSON struct {
	User        string  `json:"user"`
	Similarity  float64 `json:"similarity"`
	Emotion     string  `json:"emotion"`
	IsKnown     bool    `json:"is_known"`
	Motion      float64 `json:"motion"`
	TotalMotion float64 `json:"total_motion"`
}

// historyJSON is one element of the get_detection_history response.
type historyJSON struct {
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
	Similarity float64   `json:"similarity"`
	Emotion    string    `json:"emotion"`
	Motion     float64   `json:"motion"`
	IsKnown    bool      `json:"is_known"`
}

// statsJSON is the get_stats payload.
type statsJSON struct {
	TotalUsers        int                   `json:"total_users"`
	TotalDetections   int                   `json:"total_detections"`
	KnownDetections   int                   `json:"known_detections"`
	UnknownDetections int                   `json:"unknown_detections"`
	EmotionCounts     map[emotion.Label]int `json:"emotion_counts"`
	AverageMotion     float64               `json:"average_motion"`
	RecentDetections  int                   `json:"recent_detections"`
}

// userJSON is one element of the get_users response.
type userJSON struct {
	Name             string    `json:"name"`
	RegistrationDate time.Time `json:"registration_date"`
}

func success(c *fiber.Ctx, payload fiber.Map) error {
	payload["success"] = true
	return c.JSON(payload)
}

// failure reports a domain error to the dashboard: HTTP 200 with a stable
// error kind plus a user-facing message.
func failure(c *fiber.Ctx, err error, message string) error {
	return c.JSON(fiber.Map{
		"success": false,
		"error":   errKind(err),
		"message": message,
	})
}

// errKind maps component errors onto stable kinds for the dashboard.
func errKind(err error) string {
	switch {
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, camera.ErrAlreadyActive):
		return "already_active"
	case errors.Is(err, camera.ErrCaptureFailed):
		return "capture_failed"
	case errors.Is(err, face.ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, emotion.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, gallery.ErrNoFaceFound):
		return "no_face_found"
	case errors.Is(err, gallery.ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, gallery.ErrEmptyName):
		return "empty_name"
	case errors.Is(err, history.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, pipeline.ErrSessionNotActive):
		return "session_not_active"
	case errors.Is(err, pipeline.ErrDetectionTimeout):
		return "detection_timeout"
	default:
		return "internal"
	}
}

// decodeImage strips an optional data-URL prefix and decodes base64 image
// bytes.
func decodeImage(data string) ([]byte, error) {
	if idx := strings.IndexByte(data, ','); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		return nil, face.ErrInvalidImage
	}
	return raw, nil
}

func encodeImage(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}

// handleCheckCamera reports whether the camera could be acquired now.
func (s *Server) handleCheckCamera(c *fiber.Ctx) error {
	if s.camera.CheckAvailable() {
		return success(c, fiber.Map{"message": "camera available"})
	}
	return failure(c, camera.ErrDeviceUnavailable, "camera not available")
}

// handleCaptureFrame grabs one still frame. The monitoring session is
// started on first use and kept for subsequent ticks.
func (s *Server) handleCaptureFrame(c *fiber.Ctx) error {
	if !s.pipeline.Active() {
		if err := s.pipeline.Start(); err != nil {
			return failure(c, err, "could not open camera")
		}
	}

	frame, err := s.pipeline.Frame()
	if err != nil {
		return failure(c, err, "could not capture frame")
	}

	s.frameHub.BroadcastBinary(frame)
	return success(c, fiber.Map{"image": encodeImage(frame)})
}

type registerRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// handleRegisterUser adds a user to the gallery from a submitted photo.
func (s *Server) handleRegisterUser(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "bad_request", "message": "invalid request body",
		})
	}
	if req.Image == "" {
		return failure(c, face.ErrInvalidImage, "image is required")
	}

	jpeg, err := decodeImage(req.Image)
	if err != nil {
		return failure(c, err, "could not decode image")
	}

	u, err := s.registrar.Register(c.Context(), req.Name, jpeg)
	if err != nil {
		return failure(c, err, registerMessage(err))
	}
	return success(c, fiber.Map{"message": "user " + u.Name + " registered successfully"})
}

func registerMessage(err error) string {
	switch {
	case errors.Is(err, gallery.ErrEmptyName):
		return "user name is required"
	case errors.Is(err, gallery.ErrDuplicateName):
		return "a user with this name is already registered"
	case errors.Is(err, gallery.ErrNoFaceFound):
		return "no face found in the image"
	case errors.Is(err, face.ErrInvalidImage):
		return "could not process the image"
	default:
		return "registration failed"
	}
}

type detectRequest struct {
	Image string `json:"image"`
}

// handleDetectFace runs the perception stages over a dashboard-captured
// frame. An empty detections list means "no face", not an error.
func (s *Server) handleDetectFace(c *fiber.Ctx) error {
	var req detectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "bad_request", "message": "invalid request body",
		})
	}
	if req.Image == "" {
		return failure(c, face.ErrInvalidImage, "image is required")
	}

	jpeg, err := decodeImage(req.Image)
	if err != nil {
		return failure(c, err, "could not decode image")
	}

	det, err := s.pipeline.Process(c.Context(), jpeg)
	if err != nil {
		log.Warn("detect_face failed", "error", err)
		return failure(c, err, "face detection failed")
	}

	detections := []detectionJSON{}
	if det.Found {
		user := det.User
		if !det.Known {
			user = UnknownUser
		}
		detections = append(detections, detectionJSON{
			User:        user,
			Similarity:  det.Similarity,
			Emotion:     string(det.Emotion),
			IsKnown:     det.Known,
			Motion:      det.Motion,
			TotalMotion: det.TotalMotion,
		})
	}
	return success(c, fiber.Map{
		"detections":  detections,
		"total_faces": len(detections),
	})
}

// handleGetHistory returns recent detection events, newest first.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	events, err := s.store.Query(c.Context(), limit, time.Time{}, time.Time{})
	if err != nil {
		return failure(c, err, "could not load detection history")
	}

	items := make([]historyJSON, 0, len(events))
	for _, e := range events {
		user := e.User
		if !e.Known {
			user = UnknownUser
		}
		items = append(items, historyJSON{
			Timestamp:  e.Timestamp,
			User:       user,
			Similarity: e.Similarity,
			Emotion:    string(e.Emotion),
			Motion:     e.Motion,
			IsKnown:    e.Known,
		})
	}
	return success(c, fiber.Map{"history": items, "total": len(items)})
}

// handleGetStats returns aggregates recomputed from the log and gallery.
func (s *Server) handleGetStats(c *fiber.Ctx) error {
	stats, err := s.store.Aggregate(c.Context())
	if err != nil {
		return failure(c, err, "could not compute statistics")
	}

	return success(c, fiber.Map{"stats": statsJSON{
		TotalUsers:        s.gallery.Size(),
		TotalDetections:   stats.TotalDetections,
		KnownDetections:   stats.Known,
		UnknownDetections: stats.Unknown,
		EmotionCounts:     stats.EmotionCounts,
		AverageMotion:     stats.AverageMotion,
		RecentDetections:  stats.Recent,
	}})
}

// handleGetUsers lists registered users.
func (s *Server) handleGetUsers(c *fiber.Ctx) error {
	users := s.gallery.Users()
	items := make([]userJSON, 0, len(users))
	for _, u := range users {
		items = append(items, userJSON{Name: u.Name, RegistrationDate: u.RegisteredAt})
	}
	return success(c, fiber.Map{"users": items, "total": len(items)})
}

// handleReleaseCamera stops the session and frees the device. Idempotent:
// releasing an inactive camera still acknowledges success.
func (s *Server) handleReleaseCamera(c *fiber.Ctx) error {
	s.pipeline.Stop()
	s.camera.ReleaseAny()
	return success(c, fiber.Map{"message": "camera released"})
}

// Package config provides configuration helpers for facewatch commands.
package config

import (
	"os"
	"strconv"
)

// Defaults for the monitoring station.
const (
	DefaultPort          = "5000"
	DefaultCameraID      = 0
	DefaultThreshold     = 70.0
	DefaultFaceModel     = "models/face_detection_yunet.onnx"
	DefaultEncoderModel  = "models/face_recognition_sface.onnx"
	DefaultEmotionModel  = "models/emotion_classifier.onnx"
	DefaultCaptureWidth  = 640
	DefaultCaptureHeight = 480
)

// Port returns the HTTP listen port from FACEWATCH_PORT.
func Port() string {
	if p := os.Getenv("FACEWATCH_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// CameraID returns the capture device index from FACEWATCH_CAMERA_ID.
func CameraID() int {
	if v := os.Getenv("FACEWATCH_CAMERA_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			return id
		}
	}
	return DefaultCameraID
}

// Threshold returns the similarity threshold (0-100) from
// FACEWATCH_THRESHOLD. Values outside 0-100 fall back to the default.
func Threshold() float64 {
	if v := os.Getenv("FACEWATCH_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t >= 0 && t <= 100 {
			return t
		}
	}
	return DefaultThreshold
}

// DatabaseURL returns the Postgres DSN from FACEWATCH_DB.
// An empty value selects the in-memory store.
func DatabaseURL() string {
	return os.Getenv("FACEWATCH_DB")
}

// FaceModelPath returns the face detector model path.
func FaceModelPath() string {
	if p := os.Getenv("FACEWATCH_FACE_MODEL"); p != "" {
		return p
	}
	return DefaultFaceModel
}

// EncoderModelPath returns the face embedding model path.
func EncoderModelPath() string {
	if p := os.Getenv("FACEWATCH_ENCODER_MODEL"); p != "" {
		return p
	}
	return DefaultEncoderModel
}

// EmotionModelPath returns the emotion classifier model path.
// A missing file at this path selects the fallback classifier.
func EmotionModelPath() string {
	if p := os.Getenv("FACEWATCH_EMOTION_MODEL"); p != "" {
		return p
	}
	return DefaultEmotionModel
}

// LogLevel returns the log level from FACEWATCH_LOG_LEVEL.
func LogLevel() string {
	if l := os.Getenv("FACEWATCH_LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}

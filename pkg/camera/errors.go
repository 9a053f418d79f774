package camera

import "errors"

// Sentinel errors for camera resource management.
var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrAlreadyActive is returned when a session already holds the device.
	ErrAlreadyActive = errors.New("camera: session already active")

	// ErrCaptureFailed is returned on a hardware read error. Callers should
	// treat it as transient and retry on the next tick.
	ErrCaptureFailed = errors.New("camera: capture failed")
)

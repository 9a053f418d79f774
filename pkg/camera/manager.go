// Package camera serializes access to the single physical capture device.
// At most one session holds the device at a time; a second Acquire fails
// fast instead of blocking or stealing the handle.
package camera

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"facewatch/internal/log"
)

// Handle is the ownership token for an acquired camera session.
type Handle struct {
	id string
}

// ID returns the session token.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Manager owns the capture device and serializes acquire/capture/release.
type Manager struct {
	mu     sync.Mutex
	device Device
	active *Handle
	held   bool
}

// NewManager creates a manager for the given device.
func NewManager(device Device) *Manager {
	return &Manager{device: device}
}

// Acquire opens the device and returns the session handle.
// Fails with ErrAlreadyActive while another session holds the device and
// with ErrDeviceUnavailable when the hardware cannot be opened.
func (m *Manager) Acquire() (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held {
		return nil, ErrAlreadyActive
	}
	if err := m.device.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	h := &Handle{id: uuid.NewString()}
	m.active = h
	m.held = true
	log.Debug("camera acquired", "session", h.id)
	return h, nil
}

// Capture reads one encoded frame for the holding session.
// Fails with ErrCaptureFailed on a hardware read error; the caller should
// retry on the next scheduled tick rather than aborting the session.
func (m *Manager) Capture(h *Handle) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.held || h == nil || m.active.id != h.id {
		return nil, fmt.Errorf("%w: no active session for handle", ErrCaptureFailed)
	}
	frame, err := m.device.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return frame, nil
}

// Release closes the device for the given handle. Idempotent: releasing a
// nil, stale, or already-released handle is a no-op, because clients may
// release during teardown races without confirming acquisition succeeded.
func (m *Manager) Release(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.held {
		return
	}
	if h != nil && m.active != nil && m.active.id != h.id {
		return
	}
	if err := m.device.Close(); err != nil {
		log.Warn("camera close failed", "error", err)
	}
	m.active = nil
	m.held = false
	log.Debug("camera released")
}

// ReleaseAny force-releases whatever session is active. Used by the
// release_camera endpoint, which has no handle of its own.
func (m *Manager) ReleaseAny() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.held {
		return
	}
	if err := m.device.Close(); err != nil {
		log.Warn("camera close failed", "error", err)
	}
	m.active = nil
	m.held = false
	log.Debug("camera released")
}

// Active reports whether a session currently holds the device.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// CheckAvailable reports whether the device could be acquired right now.
func (m *Manager) CheckAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return false
	}
	return m.device.Available()
}

package face

import "sync"

// MockDetector is a scriptable Detector for tests. Each call to Detect
// consumes the next scripted result; the last result repeats once the
// script is exhausted.
type MockDetector struct {
	mu      sync.Mutex
	results []MockResult
	calls   int
}

// MockResult is one scripted Detect outcome.
type MockResult struct {
	Faces []Face
	Err   error
}

// NewMockDetector creates a mock that replays the given results in order.
func NewMockDetector(results ...MockResult) *MockDetector {
	return &MockDetector{results: results}
}

// Detect returns the next scripted result.
func (m *MockDetector) Detect(jpeg []byte) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++

	if idx < 0 {
		return nil, nil
	}
	r := m.results[idx]
	return r.Faces, r.Err
}

// Close implements Detector.
func (m *MockDetector) Close() error { return nil }

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

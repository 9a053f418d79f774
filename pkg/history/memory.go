package history

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Used when no database is configured, and
// as a test double. The log does not survive a process restart.
type Memory struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemory creates an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records one event.
func (m *Memory) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Query returns the most recent events, newest first.
func (m *Memory) Query(_ context.Context, limit int, from, to time.Time) ([]Event, error) {
	limit = ClampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Event, 0, limit)
	// Events are appended in creation order, so walk backwards.
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if InRange(m.events[i].Timestamp, from, to) {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

// Aggregate recomputes stats over the full log.
func (m *Memory) Aggregate(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		TotalDetections: len(m.events),
		EmotionCounts:   newEmotionCounts(),
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var motionSum float64
	for _, e := range m.events {
		if e.Known {
			stats.Known++
		} else {
			stats.Unknown++
		}
		stats.EmotionCounts[e.Emotion]++
		motionSum += e.Motion
		if e.Timestamp.After(cutoff) {
			stats.Recent++
		}
	}
	if stats.TotalDetections > 0 {
		stats.AverageMotion = motionSum / float64(stats.TotalDetections)
	}
	return stats, nil
}

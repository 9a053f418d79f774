// Package history records detection events append-only and derives
// aggregate statistics from the log.
package history

import (
	"context"
	"errors"
	"time"

	"facewatch/pkg/emotion"
)

// MaxQueryLimit bounds the number of events a single query may return.
const MaxQueryLimit = 1000

// ErrStorageUnavailable is returned when the backing storage cannot be
// reached. Fatal for the affected operation: a failed append is surfaced,
// never silently dropped, since the log is the audit trail for reporting.
var ErrStorageUnavailable = errors.New("history: storage unavailable")

// Event is one durable record of a processed frame's outcome. Created at
// most once per frame, never mutated.
type Event struct {
	Timestamp  time.Time     `json:"timestamp"`
	User       string        `json:"user"` // empty = unknown face
	Similarity float64       `json:"similarity"`
	Emotion    emotion.Label `json:"emotion"`
	Motion     float64       `json:"motion"`
	Known      bool          `json:"is_known"`
}

// Stats is derived from the event log at query time. Never kept as
// independent mutable counters, to avoid drift against the log.
type Stats struct {
	TotalDetections int                   `json:"total_detections"`
	Known           int                   `json:"known_detections"`
	Unknown         int                   `json:"unknown_detections"`
	EmotionCounts   map[emotion.Label]int `json:"emotion_counts"`
	AverageMotion   float64               `json:"average_motion"`
	Recent          int                   `json:"recent_detections"` // last 24h
}

// Store is the append-only detection log.
type Store interface {
	// Append records one event.
	Append(ctx context.Context, e Event) error

	// Query returns the most recent limit events, descending by
	// timestamp, intersected with the optional half-open range
	// [from, to). Zero times disable the corresponding bound. limit is
	// clamped to MaxQueryLimit; non-positive values use the maximum.
	Query(ctx context.Context, limit int, from, to time.Time) ([]Event, error)

	// Aggregate recomputes Stats from the full log.
	Aggregate(ctx context.Context) (Stats, error)
}

// ClampLimit applies the query limit policy shared by implementations.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// newEmotionCounts pre-fills the histogram with every taxonomy label, so
// reports always show all seven categories.
func newEmotionCounts() map[emotion.Label]int {
	counts := make(map[emotion.Label]int, len(emotion.Labels))
	for _, l := range emotion.Labels {
		counts[l] = 0
	}
	return counts
}

// InRange reports whether ts falls inside the half-open [from, to) range.
func InRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}

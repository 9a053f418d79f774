// Package pipeline orchestrates the per-frame perception work: capture,
// motion scoring, face detection, identity matching, emotion
// classification, and event recording. It is driven by an external caller
// on a fixed cadence; no internal background loop.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // frame decoding for motion scoring
	_ "image/png"
	"sync"
	"time"

	"facewatch/internal/log"
	"facewatch/pkg/camera"
	"facewatch/pkg/emotion"
	"facewatch/pkg/face"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
	"facewatch/pkg/motion"
)

// Sentinel errors for session control.
var (
	// ErrSessionNotActive is returned by Tick while the session is idle.
	ErrSessionNotActive = errors.New("pipeline: session not active")

	// ErrDetectionTimeout is returned when model inference exceeds the
	// caller's deadline. The polling loop should move on to the next tick.
	ErrDetectionTimeout = errors.New("pipeline: detection timed out")
)

// Detection is the per-frame outcome returned to the caller. Found is
// false when the frame contained no face; the remaining identity fields
// are meaningful only when Found is true.
type Detection struct {
	Found       bool
	User        string
	Similarity  float64
	Emotion     emotion.Label
	Known       bool
	Box         image.Rectangle
	Motion      float64
	TotalMotion float64
	Timestamp   time.Time
}

// Pipeline is the per-session perception state machine: Idle -> Active ->
// Idle.
type Pipeline struct {
	camera     *camera.Manager
	detector   face.Detector
	classifier emotion.Classifier
	gallery    *gallery.Gallery
	store      history.Store
	tracker    *motion.Tracker
	threshold  float64

	mu      sync.Mutex
	handle  *camera.Handle
	active  bool
	stopped bool
}

// New wires a pipeline from its leaf components.
func New(cam *camera.Manager, det face.Detector, cls emotion.Classifier,
	g *gallery.Gallery, store history.Store, threshold float64) *Pipeline {
	return &Pipeline{
		camera:     cam,
		detector:   det,
		classifier: cls,
		gallery:    g,
		store:      store,
		tracker:    motion.NewTracker(),
		threshold:  threshold,
	}
}

// Start acquires the camera and activates the session. On failure the
// session stays idle and the acquire error is surfaced.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return camera.ErrAlreadyActive
	}

	h, err := p.camera.Acquire()
	if err != nil {
		return err
	}
	p.handle = h
	p.active = true
	p.stopped = false
	p.tracker.Reset()
	log.Info("monitoring session started", "session", h.ID())
	return nil
}

// Tick captures one frame and processes it. Invoked on a fixed external
// cadence. Capture errors are transient: the caller retries on the next
// tick without stopping the session.
func (p *Pipeline) Tick(ctx context.Context) (*Detection, error) {
	p.mu.Lock()
	// A Stop issued mid-tick takes effect here, at the top of the next one.
	if !p.active || p.stopped {
		p.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	h := p.handle
	p.mu.Unlock()

	frame, err := p.camera.Capture(h)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, frame)
}

// Frame captures one still frame without running the perception stages.
// Used by the dashboard's snapshot endpoint.
func (p *Pipeline) Frame() ([]byte, error) {
	p.mu.Lock()
	if !p.active || p.stopped {
		p.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	h := p.handle
	p.mu.Unlock()

	return p.camera.Capture(h)
}

// Stop releases the camera unconditionally, even if acquire never
// succeeded, and returns the session to idle. Safe to call at any point,
// including mid-Tick, and idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	p.camera.Release(p.handle)
	p.handle = nil
	if p.active {
		log.Info("monitoring session stopped")
	}
	p.active = false
	p.tracker.Reset()
}

// Active reports whether a monitoring session is running.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active && !p.stopped
}

// Process runs the perception stages for one encoded frame. Shared by
// Tick and the detect_face endpoint, which supplies frames captured by
// the dashboard. A frame with no face produces a Detection with
// Found=false and is not recorded.
func (p *Pipeline) Process(ctx context.Context, frame []byte) (*Detection, error) {
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", face.ErrInvalidImage, err)
	}
	score := p.tracker.Score(img)

	faces, err := p.detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	det := &Detection{
		Motion:      score,
		TotalMotion: p.tracker.Total(),
		Timestamp:   time.Now(),
	}

	primary := face.Primary(faces)
	if primary == nil {
		return det, nil
	}

	// Identity and emotion have no data dependency on each other.
	match := p.gallery.MatchEmbedding(primary.Embedding, p.threshold)
	label, err := p.classifier.Classify(frame, primary.Box)
	if err != nil {
		return nil, err
	}

	det.Found = true
	det.User = match.User
	det.Similarity = match.Similarity
	det.Known = match.Known
	det.Emotion = label
	det.Box = primary.Box

	event := history.Event{
		Timestamp:  det.Timestamp,
		User:       det.User,
		Similarity: det.Similarity,
		Emotion:    det.Emotion,
		Motion:     det.Motion,
		Known:      det.Known,
	}
	if err := p.store.Append(ctx, event); err != nil {
		// Losing history silently would corrupt the audit trail.
		return nil, err
	}

	log.Debug("detection recorded",
		"user", det.User, "similarity", det.Similarity,
		"emotion", det.Emotion, "known", det.Known)
	return det, nil
}

// detect runs face detection bounded by the caller's deadline. The
// in-flight inference is not hard-aborted on timeout; its result is
// discarded.
func (p *Pipeline) detect(ctx context.Context, frame []byte) ([]face.Face, error) {
	if ctx.Done() == nil {
		return p.detector.Detect(frame)
	}

	type result struct {
		faces []face.Face
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		faces, err := p.detector.Detect(frame)
		ch <- result{faces, err}
	}()

	select {
	case r := <-ch:
		return r.faces, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDetectionTimeout, ctx.Err())
	}
}

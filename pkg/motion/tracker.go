// Package motion scores frame-to-frame visual change for a monitoring
// session. The score is telemetry only; detection never gates on it.
package motion

import (
	"image"
	"sync"
)

// Grid dimensions for the down-sampled luma representation. Small enough
// that scoring is cheap at any capture resolution.
const (
	gridW = 64
	gridH = 48
)

// Tracker computes a non-negative motion score against the previous frame.
// State is scoped to one monitoring session and discarded on Reset.
type Tracker struct {
	mu    sync.Mutex
	prev  []uint8
	has   bool
	total float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Score computes the motion score for the next frame: the mean absolute
// luma delta over a 64x48 grid, scaled to 0-100. The first frame of a
// session has no predecessor and scores 0. The cumulative total and the
// previous-frame state are updated on every call.
func (t *Tracker) Score(img image.Image) float64 {
	grid := downsample(img)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.has {
		t.prev = grid
		t.has = true
		return 0
	}

	var sum int
	for i := range grid {
		d := int(grid[i]) - int(t.prev[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	score := float64(sum) / float64(len(grid)) / 255.0 * 100.0

	t.prev = grid
	t.total += score
	return score
}

// Total returns the cumulative motion for the session. It is monotonically
// non-decreasing between Resets.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Reset discards the session state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prev = nil
	t.has = false
	t.total = 0
}

// downsample maps the image onto a fixed luma grid using nearest-neighbor
// sampling.
func downsample(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	grid := make([]uint8, gridW*gridH)
	if w == 0 || h == 0 {
		return grid
	}

	for gy := 0; gy < gridH; gy++ {
		sy := b.Min.Y + gy*h/gridH
		for gx := 0; gx < gridW; gx++ {
			sx := b.Min.X + gx*w/gridW
			r, g, bl, _ := img.At(sx, sy).RGBA()
			// ITU-R BT.601 luma, 16-bit channels down to 8 bits.
			luma := (299*r + 587*g + 114*bl) / 1000 >> 8
			grid[gy*gridW+gx] = uint8(luma)
		}
	}
	return grid
}

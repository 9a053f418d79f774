package motion

import (
	"image"
	"image/color"
	"testing"
)

func uniformFrame(w, h int, level uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

func TestTracker_FirstFrameScoresZero(t *testing.T) {
	tr := NewTracker()
	if got := tr.Score(uniformFrame(320, 240, 128)); got != 0 {
		t.Errorf("first frame score = %v, want 0", got)
	}
	if got := tr.Total(); got != 0 {
		t.Errorf("total after first frame = %v, want 0", got)
	}
}

func TestTracker_IdenticalFramesScoreZero(t *testing.T) {
	tr := NewTracker()
	tr.Score(uniformFrame(320, 240, 200))
	if got := tr.Score(uniformFrame(320, 240, 200)); got != 0 {
		t.Errorf("identical frame score = %v, want 0", got)
	}
}

func TestTracker_ChangedFrameScoresPositive(t *testing.T) {
	tr := NewTracker()
	tr.Score(uniformFrame(320, 240, 0))
	got := tr.Score(uniformFrame(320, 240, 255))
	if got <= 0 {
		t.Fatalf("changed frame score = %v, want > 0", got)
	}
	if got > 100 {
		t.Errorf("score = %v, want <= 100", got)
	}
}

func TestTracker_CumulativeMonotonic(t *testing.T) {
	tr := NewTracker()
	levels := []uint8{0, 60, 60, 130, 10, 10, 255}

	last := 0.0
	for _, lvl := range levels {
		tr.Score(uniformFrame(160, 120, lvl))
		total := tr.Total()
		if total < last {
			t.Fatalf("total decreased: %v -> %v", last, total)
		}
		last = total
	}
	if last <= 0 {
		t.Error("expected positive cumulative motion after changing frames")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Score(uniformFrame(160, 120, 0))
	tr.Score(uniformFrame(160, 120, 255))
	tr.Reset()

	if got := tr.Total(); got != 0 {
		t.Errorf("total after reset = %v, want 0", got)
	}
	// First frame after reset has no predecessor again.
	if got := tr.Score(uniformFrame(160, 120, 90)); got != 0 {
		t.Errorf("first frame after reset = %v, want 0", got)
	}
}

package emotion

import (
	"errors"
	"image"
	"testing"
)

func TestFallback_ReturnsTaxonomyLabel(t *testing.T) {
	f := NewFallback()
	frames := [][]byte{
		[]byte("frame-1"),
		[]byte("frame-2"),
		{},
	}
	for i, frame := range frames {
		label, err := f.Classify(frame, image.Rect(0, 0, 64, 64))
		if err != nil {
			t.Fatalf("frame %d: Classify failed: %v", i, err)
		}
		if !label.Valid() {
			t.Errorf("frame %d: label %q not in taxonomy", i, label)
		}
	}
}

func TestFallback_Deterministic(t *testing.T) {
	f := NewFallback()
	frame := []byte("same-frame")
	box := image.Rect(10, 10, 90, 90)

	first, _ := f.Classify(frame, box)
	for i := 0; i < 5; i++ {
		got, _ := f.Classify(frame, box)
		if got != first {
			t.Fatalf("fallback label flickered: %q then %q", first, got)
		}
	}
}

func TestClassify_InvalidBox(t *testing.T) {
	f := NewFallback()
	bad := []image.Rectangle{
		{},                         // empty
		image.Rect(50, 50, 50, 90), // zero width
		image.Rect(20, 70, 80, 70), // zero height
	}
	for i, box := range bad {
		if _, err := f.Classify([]byte("frame"), box); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("box %d: got %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestLowConfidenceFlag(t *testing.T) {
	if !NewFallback().LowConfidence() {
		t.Error("fallback must report low confidence")
	}
}

func TestLabelValid(t *testing.T) {
	if len(Labels) != 7 {
		t.Fatalf("taxonomy has %d labels, want 7", len(Labels))
	}
	for _, l := range Labels {
		if !l.Valid() {
			t.Errorf("label %q should be valid", l)
		}
	}
	if Label("bored").Valid() {
		t.Error("label outside the taxonomy must be invalid")
	}
}

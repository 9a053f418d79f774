package emotion

import (
	"hash/fnv"
	"image"
)

// Fallback is the classifier used when the emotion model cannot be loaded.
// It returns a syntactically valid taxonomy label derived from the crop
// bytes, keeping downstream contracts uniform, but its output carries no
// accuracy guarantee.
type Fallback struct{}

// NewFallback creates the fallback classifier.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Classify returns a deterministic label for the crop. Never fails on a
// validly-shaped box.
func (f *Fallback) Classify(jpeg []byte, box image.Rectangle) (Label, error) {
	if err := validateBox(box); err != nil {
		return "", err
	}

	// Deterministic pick keyed on frame bytes and box, so repeated
	// frames report a stable label instead of flickering.
	h := fnv.New32a()
	h.Write(jpeg)
	h.Write([]byte{
		byte(box.Min.X), byte(box.Min.Y),
		byte(box.Max.X), byte(box.Max.Y),
	})
	return Labels[h.Sum32()%uint32(len(Labels))], nil
}

// LowConfidence implements Classifier. Fallback output is advisory only.
func (f *Fallback) LowConfidence() bool { return true }

// Close implements Classifier.
func (f *Fallback) Close() error { return nil }

// Package emotion classifies a cropped face region into a fixed 7-label
// taxonomy. Two implementations exist behind one interface: a model-backed
// classifier and a fallback used when the model cannot be loaded. The mode
// is selected once at startup; call sites never branch on availability.
package emotion

import (
	"errors"
	"image"
)

// Label is one of the seven emotion categories.
type Label string

// The fixed taxonomy. Every classifier returns exactly one of these.
const (
	Happy     Label = "happy"
	Neutral   Label = "neutral"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Surprised Label = "surprised"
	Fearful   Label = "fearful"
	Disgusted Label = "disgusted"
)

// Labels lists the taxonomy in model output order.
var Labels = []Label{Angry, Disgusted, Sad, Fearful, Happy, Surprised, Neutral}

// Valid reports whether l belongs to the taxonomy.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// ErrInvalidInput is returned for a malformed bounding box, before any
// classification is attempted.
var ErrInvalidInput = errors.New("emotion: invalid face crop")

// Classifier maps a face region of a frame to a taxonomy label.
type Classifier interface {
	// Classify returns the top label for the face at box within the
	// encoded frame. It never fails on a validly-shaped crop.
	Classify(jpeg []byte, box image.Rectangle) (Label, error)

	// LowConfidence reports whether this classifier's output carries no
	// accuracy guarantee (fallback mode).
	LowConfidence() bool

	// Close releases model resources.
	Close() error
}

// validateBox rejects malformed boxes before classification.
func validateBox(box image.Rectangle) error {
	if box.Empty() || box.Dx() <= 0 || box.Dy() <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// Package face provides face detection and embedding extraction.
package face

import "image"

// EmbeddingDim is the dimensionality of SFace embeddings. Every gallery
// entry carries a vector of this length.
const EmbeddingDim = 128

// Face is one detected face candidate: a pixel bounding box plus the
// identity embedding extracted from it.
type Face struct {
	Box        image.Rectangle
	Confidence float64
	Embedding  []float32
}

// Area returns the bounding box area in pixels.
func (f Face) Area() int {
	return f.Box.Dx() * f.Box.Dy()
}

// Detector finds faces in an encoded image and extracts their embeddings.
type Detector interface {
	// Detect returns zero or more face candidates. An image with no face
	// yields an empty slice, not an error. An undecodable image fails
	// with ErrInvalidImage.
	Detect(jpeg []byte) ([]Face, error)

	// Close releases model resources.
	Close() error
}

// Primary selects the single face reported per frame when multiple are
// present: the candidate with the largest bounding-box area, ties broken
// by leftmost x-coordinate. Returns nil for an empty slice.
func Primary(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	best := &faces[0]
	for i := 1; i < len(faces); i++ {
		f := &faces[i]
		switch {
		case f.Area() > best.Area():
			best = f
		case f.Area() == best.Area() && f.Box.Min.X < best.Box.Min.X:
			best = f
		}
	}
	return best
}

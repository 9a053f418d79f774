package gallery

import "errors"

// Sentinel errors for registration and matching.
var (
	// ErrDuplicateName is returned when the trimmed name is already
	// registered. The gallery is left unchanged.
	ErrDuplicateName = errors.New("gallery: name already registered")

	// ErrNoFaceFound is returned when registration finds no face in the
	// submitted image.
	ErrNoFaceFound = errors.New("gallery: no face found in image")

	// ErrEmptyName is returned when the name is empty after trimming.
	ErrEmptyName = errors.New("gallery: name required")

	// ErrDimensionMismatch is returned when an embedding's length differs
	// from the gallery's. The entry is never inserted.
	ErrDimensionMismatch = errors.New("gallery: embedding dimension mismatch")
)

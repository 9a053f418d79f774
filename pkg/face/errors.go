package face

import "errors"

// Sentinel errors for detection and encoding.
var (
	// ErrInvalidImage is returned for a corrupt or undecodable input
	// image. Distinct from "no face found", which is an empty result.
	ErrInvalidImage = errors.New("face: invalid image")

	// ErrNoFace is returned by callers that require at least one face
	// (e.g. registration) when detection finds none.
	ErrNoFace = errors.New("face: no face found")
)

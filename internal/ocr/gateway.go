// Package ocr wraps the external text-detection provider and selects the
// meter reading value out of the detected text fragments.
package ocr

import (
	"context"
)

// Vertex is one corner of a fragment's bounding quadrilateral, in pixel
// coordinates.
type Vertex struct {
	X int32
	Y int32
}

// Fragment is a single detected text region. The provider returns an
// unordered set of fragments; by convention the first one aggregates the full
// recognized text and is not a value candidate.
type Fragment struct {
	Description string
	Vertices    []Vertex
}

// TextDetector detects text fragments in a staged image file.
type TextDetector interface {
	DetectText(ctx context.Context, imagePath string) ([]Fragment, error)
}

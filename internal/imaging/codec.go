// Package imaging decodes the embedded image payloads accepted by the
// capture endpoint. A payload is a data URI carrying a base64-encoded PNG or
// JPEG, e.g. "data:image/png;base64,iVBOR...".
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidEncoding is returned when the payload does not match the accepted
// data URI scheme or its body is not valid base64.
var ErrInvalidEncoding = errors.New("invalid base64 image payload")

var dataURIPattern = regexp.MustCompile(`^data:image/(jpeg|png);base64,`)

// Image is a decoded image payload.
type Image struct {
	// Format is "png" or "jpeg", taken from the data URI prefix.
	Format string
	Bytes  []byte
}

// Decode validates and decodes an embedded image payload. It is a pure
// function with no side effects.
func Decode(payload string) (*Image, error) {
	match := dataURIPattern.FindStringSubmatch(payload)
	if match == nil {
		return nil, fmt.Errorf("%w: missing data:image/(jpeg|png);base64 prefix", ErrInvalidEncoding)
	}

	encoded := payload[len(match[0]):]
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty image body", ErrInvalidEncoding)
	}

	return &Image{Format: match[1], Bytes: raw}, nil
}

package ocr

import (
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`\d+`)

// SelectHighlighted picks the meter reading out of the detected fragments
// using bounding-box area as a proxy for the emphasized digit window on the
// meter dial. When skipFirst is true the first fragment (the aggregate text
// block) is not a candidate.
//
// A fragment qualifies only if it has at least 4 vertices and its text
// contains a run of decimal digits; the first such run is the candidate
// value. The largest area wins; on equal areas the first-seen fragment is
// kept. Returns 0 when no fragment qualifies.
func SelectHighlighted(fragments []Fragment, skipFirst bool) int64 {
	candidates := fragments
	if skipFirst {
		if len(fragments) <= 1 {
			return 0
		}
		candidates = fragments[1:]
	}

	var highlighted int64
	var maxArea int64

	for _, fragment := range candidates {
		if len(fragment.Vertices) < 4 {
			continue
		}

		width := abs64(int64(fragment.Vertices[1].X) - int64(fragment.Vertices[0].X))
		height := abs64(int64(fragment.Vertices[2].Y) - int64(fragment.Vertices[0].Y))
		area := width * height

		match := digitRun.FindString(fragment.Description)
		if match == "" {
			continue
		}

		value, err := strconv.ParseInt(match, 10, 64)
		if err != nil {
			continue
		}

		if area > maxArea {
			maxArea = area
			highlighted = value
		}
	}

	return highlighted
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

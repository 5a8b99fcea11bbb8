package timeparser

import (
	"fmt"
	"time"
)

// ParseMeasureDatetime parses the measurement timestamp supplied by the
// caller. ISO-8601 variants with and without offset are accepted; a bare
// date resolves to midnight UTC.
func ParseMeasureDatetime(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339,          // 2024-08-29T14:00:00Z
		time.RFC3339Nano,      // 2024-08-29T14:00:00.123Z
		"2006-01-02T15:04:05", // no offset, assumed UTC
		"2006-01-02",          // date only
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", dateStr, lastErr)
}

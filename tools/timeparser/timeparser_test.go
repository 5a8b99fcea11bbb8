package timeparser_test

import (
	"testing"
	"time"

	"github.com/metervision/meter-reading-service/tools/timeparser"
)

func TestParseMeasureDatetime_RFC3339(t *testing.T) {
	got, err := timeparser.ParseMeasureDatetime("2024-08-29T14:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 8, 29, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseMeasureDatetime_WithOffset(t *testing.T) {
	got, err := timeparser.ParseMeasureDatetime("2024-08-29T14:00:00-03:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 8, 29, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseMeasureDatetime_NoOffset(t *testing.T) {
	got, err := timeparser.ParseMeasureDatetime("2024-08-29T14:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 8, 29, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseMeasureDatetime_DateOnly(t *testing.T) {
	got, err := timeparser.ParseMeasureDatetime("2024-08-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Year() != 2024 || got.Month() != time.August || got.Day() != 29 {
		t.Errorf("unexpected date: %v", got)
	}
}

func TestParseMeasureDatetime_Invalid(t *testing.T) {
	if _, err := timeparser.ParseMeasureDatetime("29/08/2024 14:00"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := timeparser.ParseMeasureDatetime("not-a-date"); err == nil {
		t.Error("expected error for garbage input")
	}
}

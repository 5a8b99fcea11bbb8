package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MeasureType is the kind of utility meter a reading was taken from.
type MeasureType string

const (
	MeasureTypeWater MeasureType = "WATER"
	MeasureTypeGas   MeasureType = "GAS"
)

// ParseMeasureType parses a measure type, accepting any casing.
func ParseMeasureType(s string) (MeasureType, error) {
	switch MeasureType(strings.ToUpper(s)) {
	case MeasureTypeWater:
		return MeasureTypeWater, nil
	case MeasureTypeGas:
		return MeasureTypeGas, nil
	default:
		return "", fmt.Errorf("unknown measure type %q", s)
	}
}

// Customer represents a registered customer in the database
type Customer struct {
	ID        int64
	Code      string
	CreatedAt time.Time
}

// Measurement represents a captured meter reading in the database
type Measurement struct {
	ID              uuid.UUID
	MeasureUUID     uuid.UUID
	CustomerCode    string
	MeasureDatetime time.Time
	MeasureType     MeasureType
	MeasureValue    int64
	ConfirmedValue  *int64
	Confirmed       bool
	ImageURL        string
	CreatedAt       time.Time
}

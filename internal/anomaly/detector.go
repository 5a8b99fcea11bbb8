package anomaly

import (
	"fmt"
)

// Detector flags OCR-extracted values that deviate sharply from a customer's
// recent readings. Detection is advisory only: a flagged value is still
// persisted and returned unchanged, the pipeline merely logs the finding.
type Detector struct {
	spikeThreshold            float64
	minDataPointsForDetection int
}

// NewDetector creates a new anomaly detector with the specified thresholds
func NewDetector(spikeThreshold float64, minDataPointsForDetection int) *Detector {
	return &Detector{
		spikeThreshold:            spikeThreshold,
		minDataPointsForDetection: minDataPointsForDetection,
	}
}

// DetectSpike checks the extracted value against the customer's recent
// history and reports a reason when it looks like an OCR misread.
func (d *Detector) DetectSpike(value float64, historicalValues []float64) (bool, string) {
	if len(historicalValues) < d.minDataPointsForDetection {
		return false, ""
	}

	sum := 0.0
	for _, v := range historicalValues {
		sum += v
	}
	average := sum / float64(len(historicalValues))

	if average > 0 && value > d.spikeThreshold*average {
		return true, fmt.Sprintf("value %.0f exceeds %.1fx rolling average %.2f",
			value, d.spikeThreshold, average)
	}

	return false, ""
}

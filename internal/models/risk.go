package models

import "math"

// RiskLevel is the tri-band classification of a rejection probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Risk band thresholds over the rejection probability. A probability at
// or below the low threshold is Low; at or below the medium threshold is
// Medium; anything above is High.
const (
	RiskThresholdLow    = 0.33
	RiskThresholdMedium = 0.66
)

// Color hints for the presentation layer, one per band.
const (
	riskColorLow    = "#10b981"
	riskColorMedium = "#f59e0b"
	riskColorHigh   = "#ef4444"
)

// RiskAssessment carries the classification of a single rejection
// probability: the band, the 0-100 score, and a display color hint.
type RiskAssessment struct {
	Level RiskLevel `json:"level"`
	Score int       `json:"score"`
	Color string    `json:"color"`
}

// AssessRisk classifies a rejection probability into a risk band.
// The score is the probability scaled to 0-100 and rounded.
func AssessRisk(rejectionProbability float64) RiskAssessment {
	score := int(math.Round(rejectionProbability * 100))
	switch {
	case rejectionProbability <= RiskThresholdLow:
		return RiskAssessment{Level: RiskLow, Score: score, Color: riskColorLow}
	case rejectionProbability <= RiskThresholdMedium:
		return RiskAssessment{Level: RiskMedium, Score: score, Color: riskColorMedium}
	default:
		return RiskAssessment{Level: RiskHigh, Score: score, Color: riskColorHigh}
	}
}

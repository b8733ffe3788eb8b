package underpay

import "math"

// ConfidenceLevel classifies how much historical evidence backs a pattern.
type ConfidenceLevel string

const (
	ConfidenceInsufficient ConfidenceLevel = "insufficient"
	ConfidenceLow          ConfidenceLevel = "low"
	ConfidenceMedium       ConfidenceLevel = "medium"
	ConfidenceHigh         ConfidenceLevel = "high"
	ConfidenceVeryHigh     ConfidenceLevel = "very_high"
)

// minReliableSampleSize is the observation count below which a pattern's
// base confidence is halved and capped; a pattern seen a handful of times
// must not report high confidence however high its raw score.
const minReliableSampleSize = 50

// ConfidenceAssessment is the calibrated output of the confidence
// calculator: a level, the sample-size-adjusted score, and the category the
// sample size fell into.
type ConfidenceAssessment struct {
	Level              ConfidenceLevel `json:"confidence_level"`
	AdjustedConfidence float64         `json:"adjusted_confidence"`
	SampleSizeCategory string          `json:"sample_size_category"`
}

// sampleSizeMultiplier returns the confidence multiplier and category label
// for a sample size at or above the reliability floor.
func sampleSizeMultiplier(historicalCount int) (float64, string) {
	switch {
	case historicalCount < 100:
		return 0.75, "minimum"
	case historicalCount < 200:
		return 0.9, "low"
	case historicalCount < 300:
		return 1.0, "medium"
	case historicalCount < 500:
		return 1.05, "high"
	default:
		return 1.1, "very_high"
	}
}

// levelFromAdjusted classifies the adjusted confidence score.
func levelFromAdjusted(adjusted float64) ConfidenceLevel {
	switch {
	case adjusted >= 95:
		return ConfidenceVeryHigh
	case adjusted >= 90:
		return ConfidenceHigh
	case adjusted >= 80:
		return ConfidenceMedium
	case adjusted >= 70:
		return ConfidenceLow
	default:
		return ConfidenceInsufficient
	}
}

// CalculateConfidence converts a pattern's observation count and base
// confidence into a calibrated assessment.  Counts below the reliability
// floor gate the result to at most 50 with level "insufficient"; above it a
// count-dependent multiplier scales the base confidence, capped at 99 and
// rounded to one decimal.
func CalculateConfidence(historicalCount int, baseConfidence float64) ConfidenceAssessment {
	if historicalCount < minReliableSampleSize {
		adjusted := math.Min(baseConfidence*0.5, 50)
		return ConfidenceAssessment{
			Level:              ConfidenceInsufficient,
			AdjustedConfidence: round1(adjusted),
			SampleSizeCategory: "insufficient_data",
		}
	}

	multiplier, category := sampleSizeMultiplier(historicalCount)
	adjusted := round1(math.Min(baseConfidence*multiplier, 99))
	return ConfidenceAssessment{
		Level:              levelFromAdjusted(adjusted),
		AdjustedConfidence: adjusted,
		SampleSizeCategory: category,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

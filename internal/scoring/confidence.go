package scoring

import (
	"math"
	"time"
)

// ConfidenceLevel buckets a confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

const (
	// SaturationSampleSize is the sample size at which the size component reaches 1.
	SaturationSampleSize = 20
	// RecencyWindow is how far back a submission counts as recent.
	RecencyWindow = 90 * 24 * time.Hour

	recencyDivisor        = 5.0
	maxRecencyBonus       = 0.2
	maxConsistencyPenalty = 0.3

	lowConfidenceBelow    = 0.3
	mediumConfidenceBelow = 0.7
)

// Confidence scores how much a report can be trusted, in [0, 1].
//
// It is a bounded, monotonic heuristic rather than a statistical estimator: sample size
// saturates at SaturationSampleSize, recent submissions add at most 0.2 and rating
// dispersion subtracts at most 0.3.
func Confidence(sampleSize, recentCount int, variance float64) float64 {
	nScore := math.Min(float64(sampleSize)/SaturationSampleSize, 1.0)
	recencyBonus := math.Min(float64(recentCount)/recencyDivisor, maxRecencyBonus)
	consistencyPenalty := consistencyPenalty(variance)

	return clamp01(nScore + recencyBonus - consistencyPenalty)
}

func consistencyPenalty(variance float64) float64 {
	switch {
	case math.IsNaN(variance):
		return maxConsistencyPenalty
	case variance < 0:
		return 0
	default:
		return math.Min(variance, maxConsistencyPenalty)
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ConfidenceLabel maps a confidence score to LOW, MEDIUM or HIGH.
func ConfidenceLabel(score float64) ConfidenceLevel {
	switch {
	case score < lowConfidenceBelow:
		return ConfidenceLow
	case score < mediumConfidenceBelow:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// CompositeVariance is the sample variance of per-submission fairness indexes scaled to [0, 1].
// Submissions with nothing ratable are skipped. Fewer than two usable submissions yield 0.
func CompositeVariance(submissions []Ratings) float64 {
	scores := make([]float64, 0, len(submissions))
	for _, r := range submissions {
		if !Ratable(r) {
			continue
		}
		scores = append(scores, float64(FairnessIndex(r))/100)
	}

	n := len(scores)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(n)

	var sq float64
	for _, s := range scores {
		d := s - mean
		sq += d * d
	}
	return sq / float64(n-1)
}

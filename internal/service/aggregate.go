package service

import (
	"sort"
	"time"

	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/scoring"
)

const maxTopTags = 5

// Aggregate computes the report over subs as of now. It does not apply the anonymity
// threshold; callers gate on len(subs) first.
func Aggregate(subs []models.FeedbackSubmission, now time.Time) AggregateReport {
	averages := categoryAverages(subs)

	perSubmission := make([]scoring.Ratings, 0, len(subs))
	recent := 0
	cutoff := now.Add(-scoring.RecencyWindow)
	for _, sub := range subs {
		perSubmission = append(perSubmission, sub.Ratings)
		if sub.CreatedAt.After(cutoff) {
			recent++
		}
	}

	confidence := scoring.Confidence(len(subs), recent, scoring.CompositeVariance(perSubmission))
	counts := countTags(subs)

	return AggregateReport{
		IsAnonymized:    true,
		SampleSize:      len(subs),
		FairnessIndex:   scoring.FairnessIndex(averages),
		Categories:      averages,
		TopTags:         topTags(counts, maxTopTags),
		Confidence:      confidence,
		ConfidenceLabel: scoring.ConfidenceLabel(confidence),
		RiskFlags:       scoring.DetectRiskFlags(averages, tagNames(counts)),
	}
}

// categoryAverages is the per-category mean over the submissions that rated it.
func categoryAverages(subs []models.FeedbackSubmission) scoring.Ratings {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sub := range subs {
		for category, v := range sub.Ratings {
			if !(v > 0) {
				continue
			}
			sums[category] += v
			counts[category]++
		}
	}

	averages := make(scoring.Ratings, len(sums))
	for category, sum := range sums {
		averages[category] = sum / float64(counts[category])
	}
	return averages
}

// countTags counts tag occurrences in first-seen order.
func countTags(subs []models.FeedbackSubmission) []TagCount {
	var counts []TagCount
	index := make(map[string]int)
	for _, sub := range subs {
		for _, tag := range sub.Tags {
			if i, ok := index[tag]; ok {
				counts[i].Count++
				continue
			}
			index[tag] = len(counts)
			counts = append(counts, TagCount{Tag: tag, Count: 1})
		}
	}
	return counts
}

// topTags returns the limit most frequent tags. Ties keep first-seen order.
func topTags(counts []TagCount, limit int) []TagCount {
	sorted := append([]TagCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []TagCount{}
	}
	return sorted
}

func tagNames(counts []TagCount) []string {
	names := make([]string, 0, len(counts))
	for _, c := range counts {
		names = append(names, c.Tag)
	}
	return names
}

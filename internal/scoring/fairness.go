package scoring

import "math"

// FairnessIndex returns the weighted composite of ratings on a 0-100 scale.
//
// Categories that are missing or rated <= 0 are treated as not rated and drop out of both
// the weighted sum and the maximum achievable sum, so the index stays comparable across
// submissions that rate different subsets. Returns 0 when nothing is ratable.
func FairnessIndex(ratings Ratings) int {
	var weighted, maxWeighted float64

	for _, category := range Categories {
		rating, ok := ratings[category]
		if !ok || !(rating > 0) {
			continue
		}
		w := weights[category]
		weighted += rating * w
		maxWeighted += MaxRating * w
	}

	if maxWeighted == 0 {
		return 0
	}
	return int(math.Round(weighted / maxWeighted * 100))
}

// Ratable reports whether ratings contain at least one category FairnessIndex would use.
func Ratable(ratings Ratings) bool {
	for _, category := range Categories {
		if rating, ok := ratings[category]; ok && rating > 0 {
			return true
		}
	}
	return false
}

package evaluation

import (
	"fmt"
	"math"

	"appraise/internal/domain/template"
)

// ComputeOverallRating averages the usable ratings and rounds to the nearest
// half point. Entries that are NaN or not strictly positive are dropped; an
// empty list yields the scale minimum of 1. Question and category weights are
// stored on templates but deliberately take no part here.
func ComputeOverallRating(maxScale float64, ratings []float64) float64 {
	var sum float64
	var count int
	for _, r := range ratings {
		if math.IsNaN(r) || r <= 0 {
			continue
		}
		sum += r
		count++
	}
	if count == 0 {
		return 1
	}
	rating := math.Round(sum/float64(count)*2) / 2
	if rating < 1 {
		rating = 1
	}
	if rating > maxScale {
		rating = maxScale
	}
	return rating
}

// OverallFromReview resolves the snapshot's scoring scale and aggregates the
// review's manager ratings. A scoring system the scale table does not know
// means the snapshot is corrupt, and that surfaces as an error rather than a
// silently rescaled rating.
func OverallFromReview(scoringSystem string, review ManagerReview) (float64, error) {
	maxScale, err := template.ScoringMax(scoringSystem)
	if err != nil {
		return 0, fmt.Errorf("evaluation snapshot: %w", err)
	}
	return ComputeOverallRating(maxScale, CollectManagerRatings(review)), nil
}

// CollectManagerRatings flattens every question's manager rating across all
// categories of a review.
func CollectManagerRatings(review ManagerReview) []float64 {
	var out []float64
	for _, questions := range review.CategoryResponses {
		for _, resp := range questions {
			out = append(out, resp.ManagerRating)
		}
	}
	return out
}

// Package rating derives a trainer's displayed rating from its reviews.
package rating

import (
	"math"

	"trackify/api/internal/domain"
)

// Summarize returns the unweighted mean rounded to two decimals and the count.
// No ratings gives exactly 0 and 0.
func Summarize(ratings []int) domain.RatingSummary {
	if len(ratings) == 0 {
		return domain.RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return domain.RatingSummary{
		Rating:       math.Round(mean*100) / 100,
		ReviewsCount: len(ratings),
	}
}

package rating

import (
	"testing"

	"trackify/api/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    domain.RatingSummary
	}{
		{"no reviews", nil, domain.RatingSummary{Rating: 0, ReviewsCount: 0}},
		{"single five", []int{5}, domain.RatingSummary{Rating: 5, ReviewsCount: 1}},
		{"even mean", []int{3, 5}, domain.RatingSummary{Rating: 4, ReviewsCount: 2}},
		{"third review keeps mean", []int{3, 5, 4}, domain.RatingSummary{Rating: 4, ReviewsCount: 3}},
		{"rounds to two decimals", []int{5, 4, 4}, domain.RatingSummary{Rating: 4.33, ReviewsCount: 3}},
		{"rounds half up", []int{1, 2, 2, 2, 2, 2, 2, 2}, domain.RatingSummary{Rating: 1.88, ReviewsCount: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Summarize(tt.ratings))
		})
	}
}

func TestSummarize_StaysWithinBounds(t *testing.T) {
	ratings := []int{}
	for i := 0; i < 500; i++ {
		ratings = append(ratings, domain.MinRating+i%domain.MaxRating)
		s := Summarize(ratings)
		require.GreaterOrEqual(t, s.Rating, float64(domain.MinRating))
		require.LessOrEqual(t, s.Rating, float64(domain.MaxRating))
		require.Equal(t, len(ratings), s.ReviewsCount)
	}
}

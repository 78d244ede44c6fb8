package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"counselhub/internal/domain/entity"
)

func review(status entity.ReviewStatus, rating int) entity.Review {
	return entity.Review{Status: status, Rating: rating}
}

func TestFoldReviewStats(t *testing.T) {
	tests := []struct {
		name    string
		reviews []entity.Review
		want    ReviewStats
	}{
		{
			name: "empty set averages to zero",
			want: ReviewStats{},
		},
		{
			name:    "single pending five star",
			reviews: []entity.Review{review(entity.ReviewPending, 5)},
			want:    ReviewStats{TotalReviews: 1, TotalPending: 1, AverageRating: 5.0},
		},
		{
			name: "average includes every status",
			reviews: []entity.Review{
				review(entity.ReviewApproved, 5),
				review(entity.ReviewRejected, 1),
				review(entity.ReviewPending, 4),
			},
			want: ReviewStats{TotalReviews: 3, TotalPending: 1, TotalApproved: 1, TotalRejected: 1, AverageRating: 3.3},
		},
		{
			name: "rounds half up to one decimal",
			reviews: []entity.Review{
				review(entity.ReviewApproved, 4),
				review(entity.ReviewApproved, 4),
				review(entity.ReviewApproved, 4),
				review(entity.ReviewApproved, 5),
			},
			want: ReviewStats{TotalReviews: 4, TotalApproved: 4, AverageRating: 4.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldReviewStats(tt.reviews))
		})
	}
}

func TestStatsSumBackToTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []entity.ReviewStatus{entity.ReviewPending, entity.ReviewApproved, entity.ReviewRejected}

	for i := 0; i < 50; i++ {
		var set []entity.Review
		for j := 0; j < rng.Intn(30); j++ {
			set = append(set, review(statuses[rng.Intn(3)], 1+rng.Intn(5)))
		}
		s := FoldReviewStats(set)
		assert.Equal(t, s.TotalReviews, s.TotalPending+s.TotalApproved+s.TotalRejected)
		assert.Equal(t, len(set), s.TotalReviews)
	}
}

func TestAccumulatorAgreesWithFold(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []entity.ReviewStatus{entity.ReviewPending, entity.ReviewApproved, entity.ReviewRejected}

	acc := NewStatsAccumulator()
	var set []entity.Review

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(set) == 0:
			r := review(statuses[rng.Intn(3)], 1+rng.Intn(5))
			set = append(set, r)
			acc.Add(r)
		case op == 1:
			i := rng.Intn(len(set))
			updated := set[i]
			updated.Status = statuses[rng.Intn(3)]
			acc.Replace(set[i], updated)
			set[i] = updated
		default:
			i := rng.Intn(len(set))
			acc.Remove(set[i])
			set = append(set[:i], set[i+1:]...)
		}
		assert.Equal(t, FoldReviewStats(set), acc.Stats(), "step %d", step)
	}
}

func TestFoldLawyerRating(t *testing.T) {
	reviews := []entity.Review{
		{LawyerID: "l1", Status: entity.ReviewApproved, Rating: 5},
		{LawyerID: "l1", Status: entity.ReviewApproved, Rating: 4},
		{LawyerID: "l1", Status: entity.ReviewPending, Rating: 1},
		{LawyerID: "l2", Status: entity.ReviewApproved, Rating: 1},
	}

	got := FoldLawyerRating("l1", reviews)
	assert.Equal(t, LawyerRating{LawyerID: "l1", ReviewCount: 2, AverageRating: 4.5}, got)
	assert.Equal(t, 0.0, FoldLawyerRating("nobody", reviews).AverageRating)
}

func TestFoldLeadStats(t *testing.T) {
	leads := []entity.Lead{
		entity.DirectLead(entity.DirectContactLead{ID: "d1", Status: entity.LeadNew}),
		entity.MatchLead(entity.MatchRequestLead{ID: "m1", Status: entity.LeadClosed}),
		entity.MatchLead(entity.MatchRequestLead{ID: "m2", Status: entity.LeadNew}),
	}

	s := FoldLeadStats(leads)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus[entity.LeadNew])
	assert.Equal(t, 0, s.ByStatus[entity.LeadOpen])
	assert.Equal(t, 2, s.ByOrigin[entity.OriginMatchRequest])
	assert.Equal(t, 1, s.ByOrigin[entity.OriginDirectContact])
}

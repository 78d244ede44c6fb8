package service

import (
	"math"

	"counselhub/internal/domain/entity"
)

// ReviewStats is the dashboard aggregate derived from a review set.
type ReviewStats struct {
	TotalReviews  int     `json:"total_reviews"`
	TotalPending  int     `json:"total_pending"`
	TotalApproved int     `json:"total_approved"`
	TotalRejected int     `json:"total_rejected"`
	AverageRating float64 `json:"average_rating"`
}

// FoldReviewStats recomputes the aggregate from scratch. The average covers every
// review regardless of status, rounded to one decimal, and is 0 for an empty set.
// This is the source of truth; the accumulator below must agree with it.
func FoldReviewStats(reviews []entity.Review) ReviewStats {
	var s ReviewStats
	sum := 0
	for _, r := range reviews {
		s.TotalReviews++
		sum += r.Rating
		switch r.Status {
		case entity.ReviewPending:
			s.TotalPending++
		case entity.ReviewApproved:
			s.TotalApproved++
		case entity.ReviewRejected:
			s.TotalRejected++
		}
	}
	s.AverageRating = averageOneDecimal(sum, s.TotalReviews)
	return s
}

func averageOneDecimal(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

// StatsAccumulator keeps per-status counts and a rating sum so that stats can be
// patched per event instead of refolded.
type StatsAccumulator struct {
	byStatus  map[entity.ReviewStatus]int
	total     int
	ratingSum int
}

func NewStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{byStatus: make(map[entity.ReviewStatus]int)}
}

func (a *StatsAccumulator) Add(r entity.Review) {
	a.byStatus[r.Status]++
	a.total++
	a.ratingSum += r.Rating
}

func (a *StatsAccumulator) Remove(r entity.Review) {
	a.byStatus[r.Status]--
	a.total--
	a.ratingSum -= r.Rating
}

// Replace applies a modification of one review.
func (a *StatsAccumulator) Replace(old, updated entity.Review) {
	a.Remove(old)
	a.Add(updated)
}

func (a *StatsAccumulator) Stats() ReviewStats {
	return ReviewStats{
		TotalReviews:  a.total,
		TotalPending:  a.byStatus[entity.ReviewPending],
		TotalApproved: a.byStatus[entity.ReviewApproved],
		TotalRejected: a.byStatus[entity.ReviewRejected],
		AverageRating: averageOneDecimal(a.ratingSum, a.total),
	}
}

// LawyerRating summarises the approved reviews of one lawyer for public pages.
type LawyerRating struct {
	LawyerID      string  `json:"lawyer_id"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

func FoldLawyerRating(lawyerID string, reviews []entity.Review) LawyerRating {
	out := LawyerRating{LawyerID: lawyerID}
	sum := 0
	for _, r := range reviews {
		if r.LawyerID != lawyerID || r.Status != entity.ReviewApproved {
			continue
		}
		out.ReviewCount++
		sum += r.Rating
	}
	out.AverageRating = averageOneDecimal(sum, out.ReviewCount)
	return out
}

// LeadStats counts leads by status and by origin.
type LeadStats struct {
	Total    int                       `json:"total"`
	ByStatus map[entity.LeadStatus]int `json:"by_status"`
	ByOrigin map[entity.LeadOrigin]int `json:"by_origin"`
}

func FoldLeadStats(leads []entity.Lead) LeadStats {
	s := LeadStats{
		ByStatus: map[entity.LeadStatus]int{
			entity.LeadNew:       0,
			entity.LeadContacted: 0,
			entity.LeadOpen:      0,
			entity.LeadClosed:    0,
		},
		ByOrigin: map[entity.LeadOrigin]int{
			entity.OriginDirectContact: 0,
			entity.OriginMatchRequest:  0,
		},
	}
	for _, l := range leads {
		s.Total++
		s.ByStatus[l.Status()]++
		s.ByOrigin[l.Origin]++
	}
	return s
}

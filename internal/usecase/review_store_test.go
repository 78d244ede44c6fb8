package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/service"
	"counselhub/pkg/errors"
)

func newReviewStore(t *testing.T) (*ReviewStore, *flakyClient) {
	t.Helper()
	c := newFlakyClient()
	clock := newClock()
	s := NewReviewStore(c, "reviews", WithClock(clock.Now), WithIDGenerator(sequentialIDs("rev")))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s, c
}

func validReview() entity.ReviewInput {
	return entity.ReviewInput{
		LawyerID:   "law-7",
		LawyerName: "Dana Whitfield",
		AuthorName: "Sam Ortiz",
		Rating:     5,
		Title:      "Great",
		Body:       "Excellent help",
	}
}

func TestReviewStoreSubmitAndApproveScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	id, err := s.Submit(ctx, validReview())
	require.NoError(t, err)

	r, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, entity.ReviewPending, r.Status)
	assert.Empty(t, r.ModeratorID)
	assert.Nil(t, r.ModeratedAt)
	assert.Equal(t, service.ReviewStats{TotalReviews: 1, TotalPending: 1, AverageRating: 5.0}, s.Stats())

	require.NoError(t, s.Approve(ctx, admin, id))

	r, _ = s.Get(id)
	assert.Equal(t, entity.ReviewApproved, r.Status)
	assert.Equal(t, admin.UserID, r.ModeratorID)
	require.NotNil(t, r.ModeratedAt)
	assert.Equal(t, service.ReviewStats{TotalReviews: 1, TotalApproved: 1, AverageRating: 5.0}, s.Stats())
}

func TestReviewStoreSubmitValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	tests := []struct {
		name   string
		mutate func(*entity.ReviewInput)
	}{
		{"missing rating", func(in *entity.ReviewInput) { in.Rating = 0 }},
		{"rating above range", func(in *entity.ReviewInput) { in.Rating = 6 }},
		{"missing title", func(in *entity.ReviewInput) { in.Title = "" }},
		{"missing body", func(in *entity.ReviewInput) { in.Body = "" }},
		{"blank title", func(in *entity.ReviewInput) { in.Title = "   " }},
		{"blank body", func(in *entity.ReviewInput) { in.Body = " \t " }},
		{"blank author", func(in *entity.ReviewInput) { in.AuthorName = "  " }},
		{"missing author", func(in *entity.ReviewInput) { in.AuthorName = "" }},
		{"bad email", func(in *entity.ReviewInput) { in.Email = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validReview()
			tt.mutate(&in)
			_, err := s.Submit(ctx, in)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, s.Reviews())
}

func TestReviewStoreRatingOneIsSubmittable(t *testing.T) {
	s, _ := newReviewStore(t)
	in := validReview()
	in.Rating = 1

	assert.True(t, in.Submittable())
	id, err := s.Submit(context.Background(), in)
	require.NoError(t, err)

	r, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, 1, r.Rating)
}

func TestReviewStoreAnonymousSubmission(t *testing.T) {
	s, _ := newReviewStore(t)
	in := validReview()
	in.AuthorName = ""
	in.Anonymous = true
	in.LawyerID = ""

	id, err := s.Submit(context.Background(), in)
	require.NoError(t, err)

	r, _ := s.Get(id)
	assert.Equal(t, entity.AnonymousAuthor, r.AuthorDisplayName)
	assert.Equal(t, entity.GeneralLawyerID, r.LawyerID)
}

func TestReviewStoreDecisions(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)
	id, err := s.Submit(ctx, validReview())
	require.NoError(t, err)

	t.Run("non admin is forbidden", func(t *testing.T) {
		assert.True(t, errors.Is(s.Approve(ctx, lawyer, id), errors.CodeForbidden))
		assert.True(t, errors.Is(s.Reject(ctx, member, id), errors.CodeForbidden))
		assert.True(t, errors.Is(s.Delete(ctx, entity.Identity{}, id), errors.CodeForbidden))
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.True(t, errors.Is(s.Approve(ctx, admin, "missing"), errors.CodeNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, admin, "missing"), errors.CodeNotFound))
	})

	t.Run("approve twice is a no-op", func(t *testing.T) {
		require.NoError(t, s.Approve(ctx, admin, id))
		first, _ := s.Get(id)
		require.NoError(t, s.Approve(ctx, entity.Identity{UserID: "admin-2", Role: entity.RoleAdmin}, id))
		second, _ := s.Get(id)
		assert.Equal(t, first, second)
	})

	t.Run("decisions are final", func(t *testing.T) {
		err := s.Reject(ctx, admin, id)
		assert.True(t, errors.Is(err, errors.CodeInvalidTransition), "got %v", err)
		r, _ := s.Get(id)
		assert.Equal(t, entity.ReviewApproved, r.Status)
	})

	t.Run("delete in any status", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, admin, id))
		_, ok := s.Get(id)
		assert.False(t, ok)
		assert.Equal(t, service.ReviewStats{}, s.Stats())
	})
}

func TestReviewStoreWriteFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s, c := newReviewStore(t)
	id, err := s.Submit(ctx, validReview())
	require.NoError(t, err)
	before := s.Reviews()

	c.setFailWrites(true)
	err = s.Approve(ctx, admin, id)
	assert.True(t, errors.Is(err, errors.CodeTransport), "got %v", err)
	_, err = s.Submit(ctx, validReview())
	assert.True(t, errors.Is(err, errors.CodeTransport), "got %v", err)

	assert.Equal(t, before, s.Reviews())
	assert.Equal(t, 1, s.Stats().TotalPending)
}

func TestReviewStoreSubscriptionErrorServesLastSnapshot(t *testing.T) {
	ctx := context.Background()
	s, c := newReviewStore(t)
	_, err := s.Submit(ctx, validReview())
	require.NoError(t, err)
	assert.True(t, s.Health().Synced)

	c.breakListener("reviews", errors.Transport("listen stream reset", nil))

	h := s.Health()
	assert.True(t, h.Stale)
	assert.Contains(t, h.LastError, "listen stream reset")
	assert.Len(t, s.Reviews(), 1)

	// the next delivered snapshot clears the flag
	_, err = s.Submit(ctx, validReview())
	require.NoError(t, err)
	assert.False(t, s.Health().Stale)
	assert.Len(t, s.Reviews(), 2)
}

func TestReviewStoreQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	a := validReview()
	a.Title = "Thorough and patient"
	b := validReview()
	b.Body = "Won my custody case"
	b.LawyerName = "Priya Natarajan"
	idA, err := s.Submit(ctx, a)
	require.NoError(t, err)
	_, err = s.Submit(ctx, b)
	require.NoError(t, err)
	require.NoError(t, s.Approve(ctx, admin, idA))

	collect := func(f ReviewFilter) []string {
		var out []string
		for r := range s.Query(f) {
			out = append(out, r.Title+"|"+r.LawyerName)
		}
		return out
	}

	assert.Len(t, collect(ReviewFilter{}), 2)
	assert.Equal(t, []string{"Thorough and patient|Dana Whitfield"}, collect(ReviewFilter{Status: entity.ReviewApproved}))
	assert.Equal(t, []string{"Great|Priya Natarajan"}, collect(ReviewFilter{Text: "CUSTODY"}))
	assert.Equal(t, []string{"Great|Priya Natarajan"}, collect(ReviewFilter{Text: "priya"}))
	assert.Empty(t, collect(ReviewFilter{Text: "nothing matches"}))

	// the sequence restarts on every range and stops early when asked
	seq := s.Query(ReviewFilter{})
	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
	n = 0
	for range seq {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestReviewStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)
	first, err := s.Submit(ctx, validReview())
	require.NoError(t, err)
	second, err := s.Submit(ctx, validReview())
	require.NoError(t, err)

	reviews := s.Reviews()
	require.Len(t, reviews, 2)
	assert.Equal(t, second, reviews[0].ID)
	assert.Equal(t, first, reviews[1].ID)
}

func TestReviewStorePublicLawyerReviews(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	in := validReview()
	approved, err := s.Submit(ctx, in)
	require.NoError(t, err)
	in.Rating = 2
	approved2, err := s.Submit(ctx, in)
	require.NoError(t, err)
	_, err = s.Submit(ctx, in)
	require.NoError(t, err)
	other := validReview()
	other.LawyerID = "law-9"
	otherID, err := s.Submit(ctx, other)
	require.NoError(t, err)

	for _, id := range []string{approved, approved2, otherID} {
		require.NoError(t, s.Approve(ctx, admin, id))
	}

	assert.Len(t, s.ApprovedForLawyer("law-7"), 2)
	assert.Equal(t, service.LawyerRating{LawyerID: "law-7", ReviewCount: 2, AverageRating: 3.5}, s.LawyerRating("law-7"))
	assert.Empty(t, s.ApprovedForLawyer("law-unknown"))
}

func TestReviewStoreOnChange(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	var got []ReviewSnapshot
	unsubscribe := s.OnChange(func(snap ReviewSnapshot) { got = append(got, snap) })

	_, err := s.Submit(ctx, validReview())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Stats.TotalReviews)
	assert.Len(t, got[0].Reviews, 1)

	unsubscribe()
	_, err = s.Submit(ctx, validReview())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReviewStoreStatsMatchAccumulator(t *testing.T) {
	ctx := context.Background()
	s, _ := newReviewStore(t)

	acc := service.NewStatsAccumulator()
	var ids []string
	for rating := 1; rating <= 5; rating++ {
		in := validReview()
		in.Rating = rating
		id, err := s.Submit(ctx, in)
		require.NoError(t, err)
		ids = append(ids, id)
		r, _ := s.Get(id)
		acc.Add(r)
	}

	for i, id := range ids[:3] {
		old, _ := s.Get(id)
		if i%2 == 0 {
			require.NoError(t, s.Approve(ctx, admin, id))
		} else {
			require.NoError(t, s.Reject(ctx, admin, id))
		}
		updated, _ := s.Get(id)
		acc.Replace(old, updated)
	}

	gone, _ := s.Get(ids[4])
	require.NoError(t, s.Delete(ctx, admin, ids[4]))
	acc.Remove(gone)

	stats := s.Stats()
	assert.Equal(t, acc.Stats(), stats)
	assert.Equal(t, stats.TotalReviews, stats.TotalPending+stats.TotalApproved+stats.TotalRejected)
}

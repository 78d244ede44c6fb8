package usecase

import (
	"sort"
	"strings"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/service"
)

type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortRatingDesc SortKey = "rating_desc"
	SortRatingAsc  SortKey = "rating_asc"
	SortName       SortKey = "name"
	SortStatus     SortKey = "status"
)

// ViewConfig is what the dashboard controls select. StatusFilter is read against
// whichever status type the projected record has; a value that is not a status of
// that type filters nothing.
type ViewConfig struct {
	StatusFilter string  `query:"status"`
	OriginFilter string  `query:"origin"`
	SearchTerm   string  `query:"q"`
	SortKey      SortKey `query:"sort"`
}

// ModerationView is one rendered dashboard frame.
type ModerationView struct {
	Reviews     []entity.Review     `json:"reviews"`
	Leads       []entity.Lead       `json:"leads"`
	ReviewStats service.ReviewStats `json:"review_stats"`
	LeadStats   service.LeadStats   `json:"lead_stats"`
	Health      []SyncHealth        `json:"health"`
}

// ProjectReviews filters and sorts a copy of reviews.
func ProjectReviews(reviews []entity.Review, cfg ViewConfig) []entity.Review {
	status := entity.ReviewStatus(cfg.StatusFilter)
	filterStatus := status.Valid()
	term := strings.ToLower(strings.TrimSpace(cfg.SearchTerm))

	out := make([]entity.Review, 0, len(reviews))
	for _, r := range reviews {
		if filterStatus && r.Status != status {
			continue
		}
		if !r.Matches(term) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch cfg.SortKey {
		case SortOldest:
			return a.SubmittedAt.Before(b.SubmittedAt)
		case SortRatingDesc:
			return a.Rating > b.Rating
		case SortRatingAsc:
			return a.Rating < b.Rating
		case SortName:
			return strings.ToLower(a.AuthorDisplayName) < strings.ToLower(b.AuthorDisplayName)
		case SortStatus:
			return a.Status < b.Status
		}
		return a.SubmittedAt.After(b.SubmittedAt)
	})
	return out
}

// ProjectLeads filters and sorts a copy of leads. Rating sorts keep the feed order.
func ProjectLeads(leads []entity.Lead, cfg ViewConfig) []entity.Lead {
	status := entity.LeadStatus(cfg.StatusFilter)
	filterStatus := status.Valid()
	origin := entity.LeadOrigin(cfg.OriginFilter)
	filterOrigin := origin.Valid()
	term := strings.ToLower(strings.TrimSpace(cfg.SearchTerm))

	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if filterStatus && l.Status() != status {
			continue
		}
		if filterOrigin && l.Origin != origin {
			continue
		}
		if !l.Matches(term) {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch cfg.SortKey {
		case SortOldest:
			return a.CreatedAt().Before(b.CreatedAt())
		case SortName:
			return strings.ToLower(a.ContactName()) < strings.ToLower(b.ContactName())
		case SortStatus:
			return a.Status() < b.Status()
		case SortRatingDesc, SortRatingAsc:
			return false
		}
		return a.CreatedAt().After(b.CreatedAt())
	})
	return out
}

// Project renders a full dashboard frame. Stats always describe the unfiltered sets.
func Project(reviews []entity.Review, leads []entity.Lead, health []SyncHealth, cfg ViewConfig) ModerationView {
	h := make([]SyncHealth, len(health))
	copy(h, health)
	return ModerationView{
		Reviews:     ProjectReviews(reviews, cfg),
		Leads:       ProjectLeads(leads, cfg),
		ReviewStats: service.FoldReviewStats(reviews),
		LeadStats:   service.FoldLeadStats(leads),
		Health:      h,
	}
}

// ProjectBulletin reduces match-request leads that are not closed to their case tier.
// The owner id is stripped as well, so lawyers never learn who filed the request.
func ProjectBulletin(leads []entity.Lead, viewerID string) []entity.BulletinEntry {
	out := []entity.BulletinEntry{}
	for _, l := range leads {
		if l.Match == nil || l.Match.Status == entity.LeadClosed {
			continue
		}
		caseTier := l.Match.Case
		caseTier.UserID = ""

		already := false
		for _, uid := range l.Match.InterestedLawyers {
			if viewerID != "" && uid == viewerID {
				already = true
				break
			}
		}

		out = append(out, entity.BulletinEntry{
			ID:                l.Match.ID,
			Case:              caseTier,
			Status:            l.Match.Status,
			InterestCount:     len(l.Match.InterestedLawyers),
			AlreadyInterested: already,
			CreatedAt:         l.Match.CreatedAt,
		})
	}
	return out
}

package usecase

import (
	"counselhub/internal/domain/entity"
)

// MergeLeads combines the two origin feeds into one newest-first list of tagged
// leads. Each input must already be newest-first, as its subscription delivers it.
// The merge only interleaves by created_at: the two streams are not ordered against
// each other, so a late-arriving document from one origin can land behind newer
// documents of the other. On equal timestamps direct-contact leads come first.
func MergeLeads(direct []entity.DirectContactLead, match []entity.MatchRequestLead) []entity.Lead {
	out := make([]entity.Lead, 0, len(direct)+len(match))
	i, j := 0, 0
	for i < len(direct) && j < len(match) {
		if !match[j].CreatedAt.After(direct[i].CreatedAt) {
			out = append(out, entity.DirectLead(direct[i]))
			i++
		} else {
			out = append(out, entity.MatchLead(match[j]))
			j++
		}
	}
	for ; i < len(direct); i++ {
		out = append(out, entity.DirectLead(direct[i]))
	}
	for ; j < len(match); j++ {
		out = append(out, entity.MatchLead(match[j]))
	}
	return out
}

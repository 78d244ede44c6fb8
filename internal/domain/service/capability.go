package service

import (
	"counselhub/internal/domain/entity"
	"counselhub/pkg/errors"
)

type Capability string

const (
	CapSubmitMatchRequest Capability = "submit_match_request"
	CapViewBulletin       Capability = "view_bulletin"
	CapExpressInterest    Capability = "express_interest"
	CapModerateReviews    Capability = "moderate_reviews"
	CapManageLeads        Capability = "manage_leads"
	CapViewContactInfo    Capability = "view_contact_info"
	CapViewConflictData   Capability = "view_conflict_data"
)

// capabilities is the single role matrix. Lawyers hold no moderation rights.
var capabilities = map[entity.Role]map[Capability]bool{
	entity.RoleUser: {
		CapSubmitMatchRequest: true,
	},
	entity.RoleLawyer: {
		CapSubmitMatchRequest: true,
		CapViewBulletin:       true,
		CapExpressInterest:    true,
	},
	entity.RoleAdmin: {
		CapSubmitMatchRequest: true,
		CapViewBulletin:       true,
		CapModerateReviews:    true,
		CapManageLeads:        true,
		CapViewContactInfo:    true,
		CapViewConflictData:   true,
	},
}

// Can reports whether the identity holds c. Anonymous callers hold nothing.
func Can(id entity.Identity, c Capability) bool {
	if !id.Authenticated() {
		return false
	}
	return capabilities[id.Role][c]
}

// IsModerator is the moderation capability check used by review and lead writes.
func IsModerator(role entity.Role) bool {
	return capabilities[role][CapModerateReviews]
}

// Require returns an AuthorizationError when the identity lacks c.
func Require(id entity.Identity, c Capability) error {
	if Can(id, c) {
		return nil
	}
	return errors.Forbidden("missing capability "+string(c), nil)
}

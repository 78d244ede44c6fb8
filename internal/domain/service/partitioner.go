package service

import (
	"strings"

	"counselhub/internal/domain/entity"
	"counselhub/pkg/errors"
)

// MatchRequestInput is the raw structured intake form. Field keys (mapstructure tags)
// are the ones persisted in the tier documents.
type MatchRequestInput struct {
	FirstName        string `json:"first_name" validate:"required,notblank,max=60"`
	LastName         string `json:"last_name" validate:"required,notblank,max=60"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required,notblank,max=40"`
	OpposingParty    string `json:"opposing_party" validate:"max=200"`
	OpposingLawFirm  string `json:"opposing_law_firm" validate:"max=200"`
	Category         string `json:"category" validate:"required,notblank,max=80"`
	Timeline         string `json:"timeline" validate:"max=80"`
	Budget           string `json:"budget" validate:"max=80"`
	Location         string `json:"location" validate:"max=120"`
	Summary          string `json:"summary" validate:"required,notblank,max=2000"`
	PreferredContact string `json:"preferred_contact" validate:"omitempty,oneof=email phone either"`
}

// Fields returns the non-empty raw fields keyed as they are stored.
func (in MatchRequestInput) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	for k, v := range map[string]string{
		"firstName":        in.FirstName,
		"lastName":         in.LastName,
		"email":            in.Email,
		"phone":            in.Phone,
		"opposingParty":    in.OpposingParty,
		"opposingLawFirm":  in.OpposingLawFirm,
		"category":         in.Category,
		"timeline":         in.Timeline,
		"budget":           in.Budget,
		"location":         in.Location,
		"summary":          in.Summary,
		"preferredContact": in.PreferredContact,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// OwnerField is the only key that may appear in more than one tier.
const OwnerField = "userId"

// Partition is the result of splitting one match request into its privacy tiers.
type Partition struct {
	Contact  entity.ContactInfo
	Conflict entity.ConflictData
	Case     entity.CaseDetails
}

// PartitionMatchRequest splits raw into the contact (PII), conflict-check and public
// case tiers. The owner is stamped on the contact and case tiers only. It is pure and
// deterministic; an empty owner is a PreconditionError.
func PartitionMatchRequest(raw MatchRequestInput, ownerUserID string) (Partition, error) {
	owner := strings.TrimSpace(ownerUserID)
	if owner == "" {
		return Partition{}, errors.Precondition("match request requires an authenticated owner")
	}

	return Partition{
		Contact: entity.ContactInfo{
			FirstName: raw.FirstName,
			LastName:  raw.LastName,
			Email:     raw.Email,
			Phone:     raw.Phone,
			UserID:    owner,
		},
		Conflict: entity.ConflictData{
			OpposingParty:   raw.OpposingParty,
			OpposingLawFirm: raw.OpposingLawFirm,
		},
		Case: entity.CaseDetails{
			Category:         raw.Category,
			Timeline:         raw.Timeline,
			Budget:           raw.Budget,
			Location:         raw.Location,
			Summary:          raw.Summary,
			PreferredContact: raw.PreferredContact,
			UserID:           owner,
		},
	}, nil
}

// Reassemble is the inverse of PartitionMatchRequest. It returns the raw input and
// the owner stamped on the tiers.
func Reassemble(p Partition) (MatchRequestInput, string) {
	owner := p.Contact.UserID
	if owner == "" {
		owner = p.Case.UserID
	}
	return MatchRequestInput{
		FirstName:        p.Contact.FirstName,
		LastName:         p.Contact.LastName,
		Email:            p.Contact.Email,
		Phone:            p.Contact.Phone,
		OpposingParty:    p.Conflict.OpposingParty,
		OpposingLawFirm:  p.Conflict.OpposingLawFirm,
		Category:         p.Case.Category,
		Timeline:         p.Case.Timeline,
		Budget:           p.Case.Budget,
		Location:         p.Case.Location,
		Summary:          p.Case.Summary,
		PreferredContact: p.Case.PreferredContact,
	}, owner
}

package entity

import (
	"strings"
	"time"
)

type LeadOrigin string

const (
	OriginDirectContact LeadOrigin = "direct-contact"
	OriginMatchRequest  LeadOrigin = "match-request"
)

func (o LeadOrigin) Valid() bool {
	return o == OriginDirectContact || o == OriginMatchRequest
}

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadOpen      LeadStatus = "open"
	LeadClosed    LeadStatus = "closed"
)

// leadTransitions lists the forward moves staff may make. closed has no exits.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadNew:       {LeadContacted, LeadClosed},
	LeadContacted: {LeadOpen, LeadClosed},
	LeadOpen:      {LeadClosed},
	LeadClosed:    nil,
}

func (s LeadStatus) Valid() bool {
	_, ok := leadTransitions[s]
	return ok
}

func (s LeadStatus) CanMoveTo(next LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ContactInfo is the PII tier. A direct-contact lead may carry a single Name,
// a match request always carries first and last name.
type ContactInfo struct {
	Name      string `json:"name,omitempty" mapstructure:"name"`
	FirstName string `json:"first_name,omitempty" mapstructure:"firstName"`
	LastName  string `json:"last_name,omitempty" mapstructure:"lastName"`
	Email     string `json:"email" mapstructure:"email"`
	Phone     string `json:"phone,omitempty" mapstructure:"phone"`
	UserID    string `json:"user_id,omitempty" mapstructure:"userId"`
}

// DisplayName assembles the contact name from whichever fields are present.
func (c ContactInfo) DisplayName() string {
	if n := strings.TrimSpace(c.Name); n != "" {
		return n
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

func (c ContactInfo) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putIfSet(m, "name", c.Name)
	putIfSet(m, "firstName", c.FirstName)
	putIfSet(m, "lastName", c.LastName)
	putIfSet(m, "email", c.Email)
	putIfSet(m, "phone", c.Phone)
	putIfSet(m, "userId", c.UserID)
	return m
}

// ConflictData is the conflict-check tier. It never carries the owner id.
type ConflictData struct {
	OpposingParty   string `json:"opposing_party,omitempty" mapstructure:"opposingParty"`
	OpposingLawFirm string `json:"opposing_law_firm,omitempty" mapstructure:"opposingLawFirm"`
}

func (c ConflictData) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putIfSet(m, "opposingParty", c.OpposingParty)
	putIfSet(m, "opposingLawFirm", c.OpposingLawFirm)
	return m
}

// CaseDetails is the public tier, the only part of a lead a lawyer pool may see.
type CaseDetails struct {
	Category         string `json:"category" mapstructure:"category"`
	Timeline         string `json:"timeline,omitempty" mapstructure:"timeline"`
	Budget           string `json:"budget,omitempty" mapstructure:"budget"`
	Location         string `json:"location,omitempty" mapstructure:"location"`
	Summary          string `json:"summary" mapstructure:"summary"`
	PreferredContact string `json:"preferred_contact,omitempty" mapstructure:"preferredContact"`
	UserID           string `json:"user_id,omitempty" mapstructure:"userId"`
}

func (c CaseDetails) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putIfSet(m, "category", c.Category)
	putIfSet(m, "timeline", c.Timeline)
	putIfSet(m, "budget", c.Budget)
	putIfSet(m, "location", c.Location)
	putIfSet(m, "summary", c.Summary)
	putIfSet(m, "preferredContact", c.PreferredContact)
	putIfSet(m, "userId", c.UserID)
	return m
}

// DirectContactLead comes from the flat contact form, stored in one document.
type DirectContactLead struct {
	ID             string      `json:"id" mapstructure:"id"`
	Contact        ContactInfo `json:"contact_info" mapstructure:"contact_info"`
	Category       string      `json:"category,omitempty" mapstructure:"category"`
	CaseSummary    string      `json:"case_summary,omitempty" mapstructure:"case_summary"`
	Message        string      `json:"message,omitempty" mapstructure:"message"`
	AssignedLawyer string      `json:"assigned_lawyer,omitempty" mapstructure:"assigned_lawyer"`
	Status         LeadStatus  `json:"status" mapstructure:"status"`
	CreatedAt      time.Time   `json:"created_at" mapstructure:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" mapstructure:"updated_at"`
}

// DirectContactInput is the public contact form payload.
type DirectContactInput struct {
	Name        string `json:"name" validate:"required_without=FirstName,notblank,max=120"`
	FirstName   string `json:"first_name" validate:"notblank,max=60"`
	LastName    string `json:"last_name" validate:"required_with=FirstName,notblank,max=60"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=40"`
	Category    string `json:"category" validate:"max=80"`
	CaseSummary string `json:"case_summary" validate:"max=2000"`
	Message     string `json:"message" validate:"max=2000"`
}

func (l DirectContactLead) ToDocument() map[string]interface{} {
	doc := map[string]interface{}{
		"id":           l.ID,
		"contact_info": l.Contact.Fields(),
		"status":       string(l.Status),
		"created_at":   l.CreatedAt,
		"updated_at":   l.UpdatedAt,
	}
	putIfSet(doc, "category", l.Category)
	putIfSet(doc, "case_summary", l.CaseSummary)
	putIfSet(doc, "message", l.Message)
	putIfSet(doc, "assigned_lawyer", l.AssignedLawyer)
	return doc
}

func DirectContactLeadFromDocument(id string, data map[string]interface{}) (DirectContactLead, error) {
	var l DirectContactLead
	if err := decodeDocument(data, &l); err != nil {
		return DirectContactLead{}, err
	}
	l.ID = id
	if !l.Status.Valid() {
		l.Status = LeadNew
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	return l, nil
}

// MatchRequestLead is the lifecycle document of a structured match request. It holds
// the public tier only; Contact is attached for staff reads from the separately stored
// PII tier and is nil when that tier has not been joined.
type MatchRequestLead struct {
	ID                string       `json:"id" mapstructure:"id"`
	Case              CaseDetails  `json:"case_details" mapstructure:"case_details"`
	Contact           *ContactInfo `json:"contact_info,omitempty" mapstructure:"-"`
	Status            LeadStatus   `json:"status" mapstructure:"status"`
	InterestedLawyers []string     `json:"interested_lawyers" mapstructure:"interested_lawyers"`
	AssignedLawyer    string       `json:"assigned_lawyer,omitempty" mapstructure:"assigned_lawyer"`
	CreatedAt         time.Time    `json:"created_at" mapstructure:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" mapstructure:"updated_at"`
}

func (l MatchRequestLead) ToDocument() map[string]interface{} {
	interested := l.InterestedLawyers
	if interested == nil {
		interested = []string{}
	}
	doc := map[string]interface{}{
		"id":                 l.ID,
		"case_details":       l.Case.Fields(),
		"status":             string(l.Status),
		"interested_lawyers": interested,
		"created_at":         l.CreatedAt,
		"updated_at":         l.UpdatedAt,
	}
	putIfSet(doc, "assigned_lawyer", l.AssignedLawyer)
	return doc
}

func MatchRequestLeadFromDocument(id string, data map[string]interface{}) (MatchRequestLead, error) {
	var l MatchRequestLead
	if err := decodeDocument(data, &l); err != nil {
		return MatchRequestLead{}, err
	}
	l.ID = id
	if !l.Status.Valid() {
		l.Status = LeadNew
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	return l, nil
}

// ContactFromDocument decodes a lead_contacts document.
func ContactFromDocument(data map[string]interface{}) (ContactInfo, error) {
	var wrapper struct {
		Contact ContactInfo `mapstructure:"contact_info"`
	}
	if err := decodeDocument(data, &wrapper); err != nil {
		return ContactInfo{}, err
	}
	return wrapper.Contact, nil
}

// ConflictFromDocument decodes a lead_conflicts document.
func ConflictFromDocument(data map[string]interface{}) (ConflictData, error) {
	var wrapper struct {
		Conflict ConflictData `mapstructure:"conflict_data"`
	}
	if err := decodeDocument(data, &wrapper); err != nil {
		return ConflictData{}, err
	}
	return wrapper.Conflict, nil
}

// Lead is the origin-tagged union the aggregator feeds to staff views.
// Exactly one of Direct and Match is set, selected by Origin.
type Lead struct {
	Origin LeadOrigin         `json:"origin"`
	Direct *DirectContactLead `json:"direct_contact,omitempty"`
	Match  *MatchRequestLead  `json:"match_request,omitempty"`
}

func DirectLead(l DirectContactLead) Lead {
	return Lead{Origin: OriginDirectContact, Direct: &l}
}

func MatchLead(l MatchRequestLead) Lead {
	return Lead{Origin: OriginMatchRequest, Match: &l}
}

func (l Lead) ID() string {
	if l.Direct != nil {
		return l.Direct.ID
	}
	if l.Match != nil {
		return l.Match.ID
	}
	return ""
}

func (l Lead) Status() LeadStatus {
	if l.Direct != nil {
		return l.Direct.Status
	}
	if l.Match != nil {
		return l.Match.Status
	}
	return ""
}

func (l Lead) CreatedAt() time.Time {
	if l.Direct != nil {
		return l.Direct.CreatedAt
	}
	if l.Match != nil {
		return l.Match.CreatedAt
	}
	return time.Time{}
}

func (l Lead) ContactName() string {
	if c := l.contact(); c != nil {
		return c.DisplayName()
	}
	return ""
}

func (l Lead) Email() string {
	if c := l.contact(); c != nil {
		return c.Email
	}
	return ""
}

func (l Lead) Summary() string {
	if l.Direct != nil {
		if l.Direct.CaseSummary != "" {
			return l.Direct.CaseSummary
		}
		return l.Direct.Category
	}
	if l.Match != nil {
		return l.Match.Case.Summary
	}
	return ""
}

func (l Lead) AssignedLawyer() string {
	if l.Direct != nil {
		return l.Direct.AssignedLawyer
	}
	if l.Match != nil {
		return l.Match.AssignedLawyer
	}
	return ""
}

func (l Lead) contact() *ContactInfo {
	if l.Direct != nil {
		return &l.Direct.Contact
	}
	if l.Match != nil {
		return l.Match.Contact
	}
	return nil
}

// Matches searches contact name, email, case summary and assigned lawyer.
// term must already be lower-cased.
func (l Lead) Matches(term string) bool {
	if term == "" {
		return true
	}
	for _, f := range []string{l.ContactName(), l.Email(), l.Summary(), l.AssignedLawyer()} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// BulletinEntry is a match-request lead as shown to the lawyer pool. The type has no
// contact or conflict fields, so nothing built from it can carry them.
type BulletinEntry struct {
	ID                string      `json:"id"`
	Case              CaseDetails `json:"case_details"`
	Status            LeadStatus  `json:"status"`
	InterestCount     int         `json:"interest_count"`
	AlreadyInterested bool        `json:"already_interested"`
	CreatedAt         time.Time   `json:"created_at"`
}

package entity

import (
	"strings"
	"time"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

const (
	// GeneralLawyerID marks a review about the firm rather than a specific lawyer.
	GeneralLawyerID = "general"
	AnonymousAuthor = "Anonymous"
	MaxReviewBody   = 500
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// CanMoveTo reports whether a moderation decision may move a review from s to next.
// Only pending reviews are decided, and decisions are final.
func (s ReviewStatus) CanMoveTo(next ReviewStatus) bool {
	return s == ReviewPending && (next == ReviewApproved || next == ReviewRejected)
}

// Review is a client testimonial awaiting or past moderation.
type Review struct {
	ID                string       `json:"id" mapstructure:"id"`
	LawyerID          string       `json:"lawyer_id" mapstructure:"lawyerId"`
	LawyerName        string       `json:"lawyer_name" mapstructure:"lawyerName"`
	AuthorDisplayName string       `json:"author_display_name" mapstructure:"clientName"`
	AuthorEmail       string       `json:"author_email,omitempty" mapstructure:"email"`
	Anonymous         bool         `json:"anonymous" mapstructure:"anonymous"`
	Rating            int          `json:"rating" mapstructure:"rating"`
	Title             string       `json:"title" mapstructure:"title"`
	Body              string       `json:"body" mapstructure:"content"`
	SubmittedAt       time.Time    `json:"submitted_at" mapstructure:"date"`
	Status            ReviewStatus `json:"status" mapstructure:"status"`
	Verified          bool         `json:"verified" mapstructure:"verified"`
	ModeratorID       string       `json:"moderator_id,omitempty" mapstructure:"moderatorId"`
	ModeratedAt       *time.Time   `json:"moderated_at,omitempty" mapstructure:"moderatedAt"`
}

// ReviewInput is what a visitor submits through the public review form.
type ReviewInput struct {
	LawyerID   string `json:"lawyer_id"`
	LawyerName string `json:"lawyer_name" validate:"max=120"`
	AuthorName string `json:"author_name" validate:"required_without=Anonymous,notblank,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	Anonymous  bool   `json:"anonymous"`
	Rating     int    `json:"rating" validate:"rating"`
	Title      string `json:"title" validate:"required,notblank,max=120"`
	Body       string `json:"body" validate:"required,notblank,max=500"`
}

// Submittable reports whether the form may be sent. Only a missing rating blocks it;
// every rating from 1 to 5 is a valid choice.
func (in ReviewInput) Submittable() bool {
	return in.Rating != 0 && strings.TrimSpace(in.Title) != "" && strings.TrimSpace(in.Body) != ""
}

// NewReview builds the pending review for a submission.
func NewReview(id string, in ReviewInput, now time.Time) Review {
	lawyerID := strings.TrimSpace(in.LawyerID)
	if lawyerID == "" {
		lawyerID = GeneralLawyerID
	}
	author := strings.TrimSpace(in.AuthorName)
	if in.Anonymous || author == "" {
		author = AnonymousAuthor
	}
	return Review{
		ID:                id,
		LawyerID:          lawyerID,
		LawyerName:        strings.TrimSpace(in.LawyerName),
		AuthorDisplayName: author,
		AuthorEmail:       strings.TrimSpace(in.Email),
		Anonymous:         in.Anonymous,
		Rating:            in.Rating,
		Title:             strings.TrimSpace(in.Title),
		Body:              strings.TrimSpace(in.Body),
		SubmittedAt:       now.UTC(),
		Status:            ReviewPending,
	}
}

// ToDocument encodes the review in the reviews collection shape.
func (r Review) ToDocument() map[string]interface{} {
	doc := map[string]interface{}{
		"id":          r.ID,
		"lawyerId":    r.LawyerID,
		"lawyerName":  r.LawyerName,
		"clientName":  r.AuthorDisplayName,
		"title":       r.Title,
		"content":     r.Body,
		"rating":      r.Rating,
		"anonymous":   r.Anonymous,
		"date":        FormatISO(r.SubmittedAt),
		"status":      string(r.Status),
		"verified":    r.Verified,
		"moderatorId": nilIfEmpty(r.ModeratorID),
		"moderatedAt": nil,
	}
	putIfSet(doc, "email", r.AuthorEmail)
	if r.ModeratedAt != nil {
		doc["moderatedAt"] = FormatISO(*r.ModeratedAt)
	}
	return doc
}

// ReviewFromDocument decodes a reviews document. The document id wins over any id field.
func ReviewFromDocument(id string, data map[string]interface{}) (Review, error) {
	var r Review
	if err := decodeDocument(data, &r); err != nil {
		return Review{}, err
	}
	r.ID = id
	if r.LawyerID == "" {
		r.LawyerID = GeneralLawyerID
	}
	if !r.Status.Valid() {
		r.Status = ReviewPending
	}
	return r, nil
}

// Matches is the case-insensitive substring search used by review queries.
// term must already be lower-cased.
func (r Review) Matches(term string) bool {
	if term == "" {
		return true
	}
	for _, f := range []string{r.Title, r.Body, r.AuthorDisplayName, r.LawyerName} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

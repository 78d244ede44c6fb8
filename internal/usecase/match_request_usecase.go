package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/repository"
	"counselhub/internal/domain/service"
	"counselhub/internal/infrastructure/metrics"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
	"counselhub/pkg/validation"
)

// MatchRequestRecord is a match request read back through all three tiers.
type MatchRequestRecord struct {
	Lead     entity.MatchRequestLead   `json:"lead"`
	Input    service.MatchRequestInput `json:"input"`
	Owner    string                    `json:"owner"`
	Contact  entity.ContactInfo        `json:"contact_info"`
	Conflict entity.ConflictData       `json:"conflict_data"`
}

type MatchRequestUseCase struct {
	client repository.CollectionClient
	cols   LeadCollections
	now    func() time.Time
	newID  func() string
	log    *zap.Logger
}

func NewMatchRequestUseCase(client repository.CollectionClient, cols LeadCollections, opts ...StoreOption) *MatchRequestUseCase {
	o := buildOptions(opts)
	return &MatchRequestUseCase{
		client: client,
		cols:   cols,
		now:    o.now,
		newID:  o.newID,
		log:    logger.Named("match_requests"),
	}
}

// Submit partitions the form into its three tiers and writes them in one commit.
// Either all tiers exist afterwards or none do.
func (uc *MatchRequestUseCase) Submit(ctx context.Context, actor entity.Identity, in service.MatchRequestInput) (string, error) {
	id, err := uc.submit(ctx, actor, in)
	metrics.RecordAction("match_request_submit", err)
	return id, err
}

func (uc *MatchRequestUseCase) submit(ctx context.Context, actor entity.Identity, in service.MatchRequestInput) (string, error) {
	p, err := service.PartitionMatchRequest(in, actor.UserID)
	if err != nil {
		return "", err
	}
	if err := service.Require(actor, service.CapSubmitMatchRequest); err != nil {
		return "", err
	}
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	now := uc.now().UTC()
	lead := entity.MatchRequestLead{
		ID:                uc.newID(),
		Case:              p.Case,
		Status:            entity.LeadNew,
		InterestedLawyers: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = uc.client.Commit(ctx, []repository.WriteOp{
		{Kind: repository.WriteCreate, Collection: uc.cols.MatchRequest, ID: lead.ID, Data: lead.ToDocument()},
		{Kind: repository.WriteCreate, Collection: uc.cols.Contacts, ID: lead.ID, Data: map[string]interface{}{
			"contact_info": p.Contact.Fields(),
		}},
		{Kind: repository.WriteCreate, Collection: uc.cols.Conflicts, ID: lead.ID, Data: map[string]interface{}{
			"conflict_data": p.Conflict.Fields(),
		}},
	})
	if err != nil {
		uc.log.Error("match request commit failed", zap.String("owner", actor.UserID), zap.Error(err))
		return "", err
	}

	uc.log.Info("match request submitted", zap.String("id", lead.ID), zap.String("owner", actor.UserID))
	return lead.ID, nil
}

// Load reads the three tiers of one match request and reassembles them. Only staff
// allowed to see both the contact and the conflict tier may call it.
func (uc *MatchRequestUseCase) Load(ctx context.Context, actor entity.Identity, id string) (*MatchRequestRecord, error) {
	if err := service.Require(actor, service.CapViewContactInfo); err != nil {
		return nil, err
	}
	if err := service.Require(actor, service.CapViewConflictData); err != nil {
		return nil, err
	}

	leadDoc, err := uc.client.Get(ctx, uc.cols.MatchRequest, id)
	if err != nil {
		return nil, err
	}
	lead, err := entity.MatchRequestLeadFromDocument(leadDoc.ID, leadDoc.Data)
	if err != nil {
		return nil, errors.Internal("failed to decode match request", err)
	}

	contactDoc, err := uc.client.Get(ctx, uc.cols.Contacts, id)
	if err != nil {
		return nil, err
	}
	contact, err := entity.ContactFromDocument(contactDoc.Data)
	if err != nil {
		return nil, errors.Internal("failed to decode contact tier", err)
	}

	conflictDoc, err := uc.client.Get(ctx, uc.cols.Conflicts, id)
	if err != nil {
		return nil, err
	}
	conflict, err := entity.ConflictFromDocument(conflictDoc.Data)
	if err != nil {
		return nil, errors.Internal("failed to decode conflict tier", err)
	}

	input, owner := service.Reassemble(service.Partition{Contact: contact, Conflict: conflict, Case: lead.Case})
	lead.Contact = &contact
	return &MatchRequestRecord{
		Lead:     lead,
		Input:    input,
		Owner:    owner,
		Contact:  contact,
		Conflict: conflict,
	}, nil
}
